package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/userdesk/userdesk/internal/model"
)

func TestAuthContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if AuthFromContext(ctx) != nil {
		t.Fatal("empty context should carry no auth")
	}
	if UserIDFromContext(ctx) != "" {
		t.Fatal("empty context should have no user id")
	}

	ac := &model.AuthContext{UserID: "u-1", Email: "ana@x.io", TokenID: "t-1"}
	ctx = ContextWithAuth(ctx, ac)

	if got := AuthFromContext(ctx); got != ac {
		t.Errorf("AuthFromContext = %+v, want %+v", got, ac)
	}
	if got := UserIDFromContext(ctx); got != "u-1" {
		t.Errorf("UserIDFromContext = %q", got)
	}
}

func TestAuthFromClaims(t *testing.T) {
	t.Parallel()

	c := &Claims{
		Email:            "ana@x.io",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ID: "jti-1"},
	}

	got := AuthFromClaims(c)
	want := model.AuthContext{UserID: "u-1", Email: "ana@x.io", TokenID: "jti-1"}
	if *got != want {
		t.Errorf("AuthFromClaims = %+v, want %+v", *got, want)
	}
}
