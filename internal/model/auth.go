package model

// AuthContext is the identity attached to an authenticated request.
type AuthContext struct {
	UserID  string
	Email   string
	TokenID string
}
