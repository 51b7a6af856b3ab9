package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"balancete/internal/core"
	"balancete/internal/session"
	"balancete/internal/storage"
)

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.auth.Register(ctx, "  Ana@Example.com ", "pass1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", id.Email)
	assert.False(t, id.IsAdmin)
	assert.Positive(t, id.UserID)

	u, err := f.store.User(ctx, id.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "pass1", u.PasswordHash)
	assert.True(t, core.CheckPassword(u.PasswordHash, "pass1"))

	_, err = f.auth.Register(ctx, "ANA@example.com", "other")
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = f.auth.Register(ctx, adminEmail, "whatever")
	assert.ErrorIs(t, err, core.ErrConflict)

	tests := []struct {
		email, password string
		want            error
	}{
		{"", "pass1", core.ErrEmptyEmail},
		{"not-an-email", "pass1", core.ErrInvalidEmail},
		{"bia@example.com", "abc", core.ErrShortPassword},
	}
	for _, tt := range tests {
		_, err := f.auth.Register(ctx, tt.email, tt.password)
		assert.ErrorIs(t, err, tt.want, tt.email)
		assert.ErrorIs(t, err, core.ErrValidation)
	}
}

func TestAuth_Authenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "ana@example.com")

	got, err := f.auth.Authenticate(ctx, "ANA@example.com", "pass1")
	require.NoError(t, err)
	assert.Equal(t, user.UserID, got.UserID)

	_, wrongPassword := f.auth.Authenticate(ctx, "ana@example.com", "nope")
	_, unknownEmail := f.auth.Authenticate(ctx, "who@example.com", "pass1")
	assert.ErrorIs(t, wrongPassword, core.ErrAuthFailed)
	assert.ErrorIs(t, unknownEmail, core.ErrAuthFailed)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	_, err = f.auth.Authenticate(ctx, adminEmail, "wrong")
	assert.ErrorIs(t, err, core.ErrAuthFailed)
	_, err = f.auth.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, core.ErrAuthFailed)
}

func TestAuth_AdminIgnoresUserTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		f.register(t, email)
	}
	require.NoError(t, f.store.Reset(ctx))

	id, err := f.auth.Authenticate(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	assert.True(t, id.IsBuiltinAdmin())
}

func TestAuth_BootstrapAdmin(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(storage.NewMemoryBackend())
	auth := NewAuth(store, bcrypt.MinCost, nil)

	seeded, err := auth.BootstrapAdmin(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, seeded)

	// without a record nobody authenticates as admin, even with empty input
	_, err = auth.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, core.ErrAuthFailed)

	_, err = auth.BootstrapAdmin(ctx, "root@example.com", "abc")
	assert.ErrorIs(t, err, core.ErrValidation)

	seeded, err = auth.BootstrapAdmin(ctx, "root@example.com", "first-pass")
	require.NoError(t, err)
	assert.True(t, seeded)

	// a later bootstrap never replaces the record
	seeded, err = auth.BootstrapAdmin(ctx, "root@example.com", "second-pass")
	require.NoError(t, err)
	assert.False(t, seeded)
	_, err = auth.Authenticate(ctx, "root@example.com", "second-pass")
	assert.ErrorIs(t, err, core.ErrAuthFailed)
	_, err = auth.Authenticate(ctx, "root@example.com", "first-pass")
	assert.NoError(t, err)
}

func TestAuth_BootstrapAdminEmailTaken(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(storage.NewMemoryBackend())
	auth := NewAuth(store, bcrypt.MinCost, nil)
	_, err := auth.Register(ctx, "root@example.com", "pass1")
	require.NoError(t, err)

	_, err = auth.BootstrapAdmin(ctx, "root@example.com", "admin-pass")
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestAuth_EmptyVerifierNeverMatches(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(storage.NewMemoryBackend())
	_, err := store.SeedAdmin(ctx, storage.AdminRecord{Email: "root@example.com"})
	require.NoError(t, err)

	auth := NewAuth(store, bcrypt.MinCost, nil)
	_, err = auth.Authenticate(ctx, "root@example.com", "anything")
	assert.ErrorIs(t, err, core.ErrAuthFailed)
}

func TestSessions_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.sessions.Restore(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	registered, err := f.sessions.Register(ctx, "ana@example.com", "pass1")
	require.NoError(t, err)
	m, ok, _ := f.tab.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, session.UserMarker(registered.UserID), m)

	// restore re-reads the user, picking up later changes
	condo, err := f.ledger.CreateCondominium(ctx, registered, "Sol")
	require.NoError(t, err)
	restored, err := f.sessions.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{condo.ID}, restored.CondominiumIDs)

	require.NoError(t, f.sessions.Logout(ctx))
	_, err = f.sessions.Restore(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	admin, err := f.sessions.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	m, _, _ = f.tab.Get(ctx)
	assert.Equal(t, session.AdminMarker, m)

	restored, err = f.sessions.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, restored.IsBuiltinAdmin())
	assert.Equal(t, adminEmail, restored.Email)

	_, err = f.sessions.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, core.ErrAuthFailed)
	m, _, _ = f.tab.Get(ctx)
	assert.Equal(t, session.AdminMarker, m, "failed login keeps the current session")
}

func TestSessions_StaleMarker(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, marker := range []string{"42", "garbage"} {
		require.NoError(t, f.tab.Set(ctx, marker))
		_, err := f.sessions.Restore(ctx)
		assert.True(t, errors.Is(err, ErrNotLoggedIn), marker)
		_, ok, _ := f.tab.Get(ctx)
		assert.False(t, ok, "stale marker %q should be cleared", marker)
	}
}

func TestSessions_AdminMarkerWithoutAdmin(t *testing.T) {
	ctx := context.Background()
	auth := NewAuth(storage.NewStore(storage.NewMemoryBackend()), bcrypt.MinCost, nil)
	tab := session.NewTabs(8, 0).Open()
	sessions := NewSessions(auth, tab, nil)

	_, err := auth.Resolve(ctx, AdminUserID, true)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, tab.Set(ctx, session.AdminMarker))
	_, err = sessions.Restore(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, ok, _ := tab.Get(ctx)
	assert.False(t, ok, "admin marker should be cleared when no admin is seeded")
}
