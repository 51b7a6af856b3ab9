package services

import (
	"context"
	"fmt"
	"strings"

	"balancete/internal/core"
	"balancete/internal/log"
	"balancete/internal/storage"
)

// AdminUserID is the id of the built-in administrator. No stored user ever
// gets it since stored ids start at 1.
const AdminUserID int64 = 0

// Identity is who is acting. The administrator sees every condominium and
// owns none.
type Identity struct {
	UserID         int64
	Email          string
	IsAdmin        bool
	CondominiumIDs []int64
}

func (i Identity) IsBuiltinAdmin() bool {
	return i.IsAdmin && i.UserID == AdminUserID
}

// CanSee reports whether the identity may read the condominium.
func (i Identity) CanSee(c core.Condominium) bool {
	return i.IsAdmin || c.OwnedBy(i.UserID)
}

func adminIdentity(email string) Identity {
	return Identity{UserID: AdminUserID, Email: email, IsAdmin: true, CondominiumIDs: []int64{}}
}

func userIdentity(u core.User) Identity {
	return Identity{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin, CondominiumIDs: u.CondominiumIDs}
}

// UserStore is the part of the store authentication works with.
type UserStore interface {
	AddUser(ctx context.Context, u core.User) (core.User, error)
	User(ctx context.Context, id int64) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, error)
	LoadAdmin(ctx context.Context) (storage.AdminRecord, bool)
	SeedAdmin(ctx context.Context, rec storage.AdminRecord) (bool, error)
}

// Auth verifies credentials and registers users.
type Auth struct {
	users      UserStore
	bcryptCost int
	logger     *log.Logger
}

func NewAuth(users UserStore, bcryptCost int, logger *log.Logger) *Auth {
	if logger == nil {
		logger = log.Discard()
	}
	return &Auth{
		users:      users,
		bcryptCost: bcryptCost,
		logger:     logger.WithComponent(log.ComponentAuth),
	}
}

// BootstrapAdmin seeds the administrator record on first run. An existing
// record is never overwritten, and nothing is seeded without both values.
func (a *Auth) BootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	email = core.NormalizeEmail(email)
	if email == "" || password == "" {
		a.logger.DebugContext(ctx, "No admin credentials configured, skipping bootstrap")
		return false, nil
	}
	if _, found := a.users.LoadAdmin(ctx); found {
		return false, nil
	}
	if _, err := a.users.UserByEmail(ctx, email); err == nil {
		return false, fmt.Errorf("bootstrap admin: %w", core.ErrEmailTaken)
	}

	u, err := core.NewUser(email, password, a.bcryptCost).Unwrap()
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	return a.users.SeedAdmin(ctx, storage.AdminRecord{Email: u.Email, PasswordHash: u.PasswordHash})
}

// Authenticate resolves credentials to an identity. Unknown emails and wrong
// passwords both fail with core.ErrAuthFailed.
func (a *Auth) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	email = core.NormalizeEmail(email)
	if email == "" || password == "" {
		return Identity{}, core.ErrAuthFailed
	}

	if rec, found := a.users.LoadAdmin(ctx); found && rec.Email == email {
		if !core.CheckPassword(rec.PasswordHash, password) {
			a.logger.WarnContext(ctx, "Failed login", log.FieldOperation, log.OpLogin, log.FieldAdmin, true)
			return Identity{}, core.ErrAuthFailed
		}
		a.logger.InfoContext(ctx, "Admin logged in", log.FieldOperation, log.OpLogin, log.FieldAdmin, true)
		return adminIdentity(rec.Email), nil
	}

	u, err := a.users.UserByEmail(ctx, email)
	if err != nil || !core.CheckPassword(u.PasswordHash, password) {
		a.logger.WarnContext(ctx, "Failed login", log.FieldOperation, log.OpLogin)
		return Identity{}, core.ErrAuthFailed
	}
	a.logger.InfoContext(ctx, "User logged in", log.FieldOperation, log.OpLogin, log.FieldUserID, u.ID)
	return userIdentity(u), nil
}

// Register validates the credentials and stores a new user. The admin email
// counts as taken.
func (a *Auth) Register(ctx context.Context, email, password string) (Identity, error) {
	u, err := core.NewUser(email, password, a.bcryptCost).Unwrap()
	if err != nil {
		return Identity{}, err
	}
	if rec, found := a.users.LoadAdmin(ctx); found && strings.EqualFold(rec.Email, u.Email) {
		return Identity{}, core.ErrEmailTaken
	}

	u, err = a.users.AddUser(ctx, u)
	if err != nil {
		return Identity{}, err
	}
	a.logger.InfoContext(ctx, "User registered", log.FieldOperation, log.OpRegister, log.FieldUserID, u.ID)
	return userIdentity(u), nil
}

// Resolve rebuilds an identity from its user id, reading the store so that
// changes since login are visible.
func (a *Auth) Resolve(ctx context.Context, userID int64, admin bool) (Identity, error) {
	if admin {
		rec, found := a.users.LoadAdmin(ctx)
		if !found {
			return Identity{}, fmt.Errorf("admin account: %w", core.ErrNotFound)
		}
		return adminIdentity(rec.Email), nil
	}
	u, err := a.users.User(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	return userIdentity(u), nil
}
