package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdesk/userdesk/internal/metrics"
	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/repository"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type userFixture struct {
	svc     *UserService
	store   *repository.MemoryStore[*model.User]
	clock   *testClock
	metrics *metrics.InMemoryRecorder
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	f := &userFixture{
		store:   repository.NewUserMemoryStore(),
		clock:   &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		metrics: metrics.NewInMemory(),
	}
	f.svc = NewUserService(f.store, f.metrics, repository.WithClock(f.clock.Now))
	return f
}

func (f *userFixture) seed(t *testing.T, name, email string) *model.User {
	t.Helper()
	u, err := f.svc.Save(context.Background(), SaveUserInput{Name: name, Email: email})
	require.NoError(t, err)
	return u
}

func TestUserService_SaveAssignsIdentity(t *testing.T) {
	f := newUserFixture(t)

	u, err := f.svc.Save(context.Background(), SaveUserInput{Name: "Ana", Email: "ana@x.com"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
	assert.False(t, u.CreatedAt.After(f.clock.now))
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().UsersCreated)
}

func TestUserService_SaveThenGetByID(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	inputs := []SaveUserInput{
		{Name: "Ana", Email: "ana@x.com"},
		{Name: "Bob", Email: "bob@x.com"},
		{Name: "Çağla Öztürk", Email: "cagla@example.org"},
		{Name: strings.Repeat("n", 60), Email: strings.Repeat("e", 60) + "@" + strings.Repeat("d", 30) + ".com"},
	}

	for _, in := range inputs {
		saved, err := f.svc.Save(ctx, in)
		require.NoError(t, err, "save %+v", in)

		got, err := f.svc.GetByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, in.Name, got.Name)
		assert.Equal(t, in.Email, got.Email)
	}

	all, err := f.svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(inputs))
}

func TestUserService_SaveConflictLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	f.seed(t, "Ana", "ana@x.com")

	_, err := f.svc.Save(ctx, SaveUserInput{Name: "Bob", Email: "ana@x.com"})

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, ce.Message, "ana@x.com")
	assert.Equal(t, "email", ce.Field)
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, uint64(1), f.metrics.Snapshot().UsersCreated)
}

func TestUserService_UpdateRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	ana := f.seed(t, "Ana", "ana@x.com")

	f.clock.Advance(time.Minute)
	updated, err := f.svc.Update(ctx, ana.ID, UpdateUserInput{Name: "Ana B.", Email: "ana.b@x.com"})
	require.NoError(t, err)

	assert.Equal(t, ana.ID, updated.ID)
	assert.Equal(t, ana.CreatedAt, updated.CreatedAt)
	assert.True(t, !updated.UpdatedAt.Before(ana.UpdatedAt))
	assert.True(t, updated.UpdatedAt.After(ana.UpdatedAt))

	got, err := f.svc.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana B.", got.Name)
	assert.Equal(t, "ana.b@x.com", got.Email)
	assert.Equal(t, updated.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().UsersUpdated)
}

func TestUserService_UpdateConflictLeavesTargetUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	f.seed(t, "Ana", "ana@x.com")
	bob := f.seed(t, "Bob", "bob@x.com")

	f.clock.Advance(time.Minute)
	_, err := f.svc.Update(ctx, bob.ID, UpdateUserInput{Name: "Bobby", Email: "ana@x.com"})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := f.svc.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob, got)
}

func TestUserService_UpdateKeepingOwnEmail(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	ana := f.seed(t, "Ana", "ana@x.com")

	updated, err := f.svc.Update(ctx, ana.ID, UpdateUserInput{Name: "Ana B.", Email: "ana@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ana B.", updated.Name)
	assert.Equal(t, "ana@x.com", updated.Email)
}

func TestUserService_DeleteThenGetByID(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	ana := f.seed(t, "Ana", "ana@x.com")

	require.NoError(t, f.svc.Delete(ctx, ana.ID))

	_, err := f.svc.GetByID(ctx, ana.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, uint64(1), f.metrics.Snapshot().UsersDeleted)

	// The email is free again.
	_, err = f.svc.Save(ctx, SaveUserInput{Name: "Ana", Email: "ana@x.com"})
	assert.NoError(t, err)
}

func TestUserService_UnknownIDIsAlwaysNotFound(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	f.seed(t, "Ana", "ana@x.com")

	for i := 0; i < 10; i++ {
		id := uuid.New()

		_, err := f.svc.GetByID(ctx, id)
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "user not found", nf.Message)

		_, err = f.svc.Update(ctx, id, UpdateUserInput{Name: "X", Email: fmt.Sprintf("x%d@x.com", i)})
		assert.ErrorIs(t, err, ErrNotFound)

		err = f.svc.Delete(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestUserService_GetByEmail(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	ana := f.seed(t, "Ana", "ana@x.com")

	got, found, err := f.svc.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ana.ID, got.ID)

	got, found, err = f.svc.GetByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestUserService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	tests := []struct {
		name   string
		input  SaveUserInput
		fields map[string]string
	}{
		{
			name:   "empty",
			input:  SaveUserInput{},
			fields: map[string]string{"name": "is required", "email": "is required"},
		},
		{
			name:   "blank name",
			input:  SaveUserInput{Name: "   ", Email: "ana@x.com"},
			fields: map[string]string{"name": "is required"},
		},
		{
			name:   "bad email",
			input:  SaveUserInput{Name: "Ana", Email: "not-an-email"},
			fields: map[string]string{"email": "must be a valid email address"},
		},
		{
			name:   "name too long",
			input:  SaveUserInput{Name: strings.Repeat("a", 61), Email: "ana@x.com"},
			fields: map[string]string{"name": "must be at most 60 characters"},
		},
		{
			name:   "email too long",
			input:  SaveUserInput{Name: "Ana", Email: strings.Repeat("a", 60) + "@" + strings.Repeat("b", 40) + ".com"},
			fields: map[string]string{"email": "must be at most 100 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Save(ctx, tt.input)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.fields, ve.Fields)
		})
	}

	assert.Equal(t, 0, f.store.Len())
}

func TestUserService_UpdateValidatesBeforeLookup(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Update(context.Background(), uuid.New(), UpdateUserInput{Name: "", Email: "x@x.com"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_AnaBobScenario(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	ana := f.seed(t, "Ana", "ana@x.com")

	_, err := f.svc.Save(ctx, SaveUserInput{Name: "Bob", Email: "ana@x.com"})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "ana@x.com")

	updated, err := f.svc.Update(ctx, ana.ID, UpdateUserInput{Name: "Ana B.", Email: "ana@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ana B.", updated.Name)
}

// racyStore reports every email as free, so only the commit can catch a
// duplicate. It simulates a concurrent insert landing between the check and
// the commit.
type racyStore struct {
	*repository.MemoryStore[*model.User]
}

func (s racyStore) Exists(ctx context.Context, f repository.Filter) (bool, error) {
	return false, nil
}

func TestUserService_CommitRaceIsConflict(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewUserMemoryStore()
	svc := NewUserService(racyStore{mem}, nil)

	_, err := svc.Save(ctx, SaveUserInput{Name: "Ana", Email: "ana@x.com"})
	require.NoError(t, err)

	_, err = svc.Save(ctx, SaveUserInput{Name: "Bob", Email: "ana@x.com"})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "ana@x.com")
	assert.Equal(t, 1, mem.Len())
}

type failingStore struct {
	err error
}

func (s failingStore) Select(context.Context, repository.Filter, int) ([]*model.User, error) {
	return nil, s.err
}

func (s failingStore) Count(context.Context, repository.Filter) (int64, error) {
	return 0, s.err
}

func (s failingStore) Exists(context.Context, repository.Filter) (bool, error) {
	return false, s.err
}

func (s failingStore) Apply(context.Context, []repository.Op[*model.User]) error {
	return s.err
}

func TestUserService_StorageFailuresAreNotDomainErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	svc := NewUserService(failingStore{err: boom}, nil)

	_, err := svc.GetAll(ctx)
	assertStorageFailure(t, err, boom)

	_, err = svc.GetByID(ctx, uuid.New())
	assertStorageFailure(t, err, boom)

	_, _, err = svc.GetByEmail(ctx, "ana@x.com")
	assertStorageFailure(t, err, boom)

	_, err = svc.Save(ctx, SaveUserInput{Name: "Ana", Email: "ana@x.com"})
	assertStorageFailure(t, err, boom)

	err = svc.Delete(ctx, uuid.New())
	assertStorageFailure(t, err, boom)
}

func assertStorageFailure(t *testing.T, err, cause error) {
	t.Helper()
	var se *repository.StorageError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestParseUserID(t *testing.T) {
	id := uuid.New()

	got, err := ParseUserID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUserID("not-a-uuid")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be a valid UUID", ve.Fields["id"])
}
