package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"balancete/internal/core"
	"balancete/internal/session"
	"balancete/internal/storage"
)

const (
	adminEmail    = "admin@balancete.local"
	adminPassword = "s3cret-admin"
)

type fixture struct {
	store    *storage.Store
	auth     *Auth
	ledger   *Ledger
	sessions *Sessions
	tab      *session.Tab
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := storage.NewStore(storage.NewMemoryBackend())
	auth := NewAuth(store, bcrypt.MinCost, nil)
	seeded, err := auth.BootstrapAdmin(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.True(t, seeded)

	tab := session.NewTabs(8, 0).Open()
	return &fixture{
		store:    store,
		auth:     auth,
		ledger:   NewLedger(store, nil),
		sessions: NewSessions(auth, tab, nil),
		tab:      tab,
	}
}

func (f *fixture) register(t *testing.T, email string) Identity {
	t.Helper()
	id, err := f.auth.Register(context.Background(), email, "pass1")
	require.NoError(t, err)
	return id
}

func TestScenario_StatisticsForOneCondominium(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user := f.register(t, "a@b.com")
	condo, err := f.ledger.CreateCondominium(ctx, user, "Edificio A")
	require.NoError(t, err)
	assert.Equal(t, user.UserID, condo.OwnerUserID)

	_, err = f.ledger.AddMovement(ctx, user, core.MovementInput{
		Kind: "income", Category: "Aluguel", Description: "rent", Amount: "1500.00", Date: "2024-03-05", CondominiumID: condo.ID,
	})
	require.NoError(t, err)
	_, err = f.ledger.AddMovement(ctx, user, core.MovementInput{
		Kind: "expense", Category: "Água", Description: "water bill", Amount: "120.50", Date: "2024-03-10", CondominiumID: condo.ID,
	})
	require.NoError(t, err)

	want := core.Statistics{
		Income:  core.Money{Cents: 150000},
		Expense: core.Money{Cents: 12050},
		Balance: core.Money{Cents: 137950},
		Count:   2,
	}

	stats, err := f.ledger.Statistics(ctx, user, condo.ID, core.PeriodFilter{})
	require.NoError(t, err)
	assert.Equal(t, want, stats)

	stats, err = f.ledger.Statistics(ctx, user, condo.ID, core.PeriodFilter{Month: 3, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, want, stats)

	stats, err = f.ledger.Statistics(ctx, user, condo.ID, core.PeriodFilter{Month: 4})
	require.NoError(t, err)
	assert.Equal(t, core.Statistics{}, stats)

	periods, err := f.ledger.Periods(ctx, user, condo.ID)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "03/2024", periods[0].Label)
}

func TestScenario_AdminVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ana := f.register(t, "ana@example.com")
	bia := f.register(t, "bia@example.com")
	anaCondo, err := f.ledger.CreateCondominium(ctx, ana, "Sol")
	require.NoError(t, err)
	biaCondo, err := f.ledger.CreateCondominium(ctx, bia, "Lua")
	require.NoError(t, err)

	admin, err := f.auth.Authenticate(ctx, "ADMIN@balancete.local", adminPassword)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, AdminUserID, admin.UserID)
	assert.Empty(t, admin.CondominiumIDs)

	assert.Len(t, f.ledger.Condominiums(ctx, admin), 2)

	anaSees := f.ledger.Condominiums(ctx, ana)
	require.Len(t, anaSees, 1)
	assert.Equal(t, anaCondo.ID, anaSees[0].ID)

	_, err = f.ledger.Statistics(ctx, ana, biaCondo.ID, core.PeriodFilter{})
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.ErrorIs(t, f.ledger.DeleteCondominium(ctx, ana, biaCondo.ID), core.ErrForbidden)

	_, err = f.ledger.Statistics(ctx, admin, biaCondo.ID, core.PeriodFilter{})
	assert.NoError(t, err)

	_, err = f.ledger.CreateCondominium(ctx, admin, "Admin's")
	assert.ErrorIs(t, err, core.ErrForbidden)

	// stored users never include the administrator
	for _, u := range f.store.Load(ctx).Users {
		assert.NotEqual(t, adminEmail, u.Email)
	}
}

func TestLedger_MovementsAndDeletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "ana@example.com")
	condo, err := f.ledger.CreateCondominium(ctx, user, "Sol")
	require.NoError(t, err)

	_, err = f.ledger.AddMovement(ctx, user, core.MovementInput{
		Kind: "income", Category: "x", Description: "y", Amount: "-1", Date: "2024-01-01", CondominiumID: condo.ID,
	})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.ledger.AddMovement(ctx, user, core.MovementInput{
		Kind: "income", Category: "x", Description: "y", Amount: "10", Date: "2024-01-01", CondominiumID: 999,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)

	m, err := f.ledger.AddMovement(ctx, user, core.MovementInput{
		Kind: "expense", Category: "Luz", Description: "bill", Amount: "10,5", Date: "2024-01-01", CondominiumID: condo.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1050, m.Amount.Cents)

	list, err := f.ledger.Movements(ctx, user, condo.ID, core.MovementFilter{Kind: core.Expense})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.ledger.RemoveMovement(ctx, user, condo.ID, m.ID))
	assert.ErrorIs(t, f.ledger.RemoveMovement(ctx, user, condo.ID, m.ID), core.ErrMovementNotFound)

	renamed, err := f.ledger.RenameCondominium(ctx, user, condo.ID, "Lua")
	require.NoError(t, err)
	assert.Equal(t, "Lua", renamed.Name)
	_, err = f.ledger.RenameCondominium(ctx, user, condo.ID, " ")
	assert.ErrorIs(t, err, core.ErrValidation)

	require.NoError(t, f.ledger.DeleteCondominium(ctx, user, condo.ID))
	assert.Empty(t, f.ledger.Condominiums(ctx, user))
	assert.ErrorIs(t, f.ledger.DeleteCondominium(ctx, user, condo.ID), core.ErrNotFound)

	u, err := f.store.User(ctx, user.UserID)
	require.NoError(t, err)
	assert.Empty(t, u.CondominiumIDs)
}

func TestLedger_Categories(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	added, err := f.ledger.AddCategory(ctx, "Jardinagem")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = f.ledger.AddCategory(ctx, "Jardinagem")
	require.NoError(t, err)
	assert.False(t, added)

	assert.Contains(t, f.ledger.Categories(ctx), "Jardinagem")
}

func TestLedger_Overview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.register(t, "ana@example.com")
	bia := f.register(t, "bia@example.com")

	names := []string{"A", "B", "C", "D", "E", "F"}
	for i, name := range names {
		owner := ana
		if i%2 == 1 {
			owner = bia
		}
		c, err := f.ledger.CreateCondominium(ctx, owner, name)
		require.NoError(t, err)
		_, err = f.ledger.AddMovement(ctx, owner, core.MovementInput{
			Kind: "income", Category: "Condomínio", Description: "fee", Amount: "100", Date: "2024-05-01", CondominiumID: c.ID,
		})
		require.NoError(t, err)
	}

	admin, err := f.auth.Resolve(ctx, AdminUserID, true)
	require.NoError(t, err)

	rows, err := f.ledger.Overview(ctx, admin, core.PeriodFilter{Year: 2024})
	require.NoError(t, err)
	require.Len(t, rows, len(names))
	for i, row := range rows {
		assert.Equal(t, names[i], row.Name)
		assert.EqualValues(t, 10000, row.Statistics.Balance.Cents)
		assert.Equal(t, 1, row.Statistics.Count)
	}

	rows, err = f.ledger.Overview(ctx, ana, core.PeriodFilter{Year: 2023})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Zero(t, rows[0].Statistics.Count)

	_, err = f.ledger.Overview(ctx, ana, core.PeriodFilter{Month: -1})
	assert.ErrorIs(t, err, core.ErrValidation)
}
