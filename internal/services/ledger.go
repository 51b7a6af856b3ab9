package services

import (
	"context"
	"strings"

	"balancete/internal/core"
	"balancete/internal/log"
)

// LedgerStore is the part of the store the ledger drives.
type LedgerStore interface {
	MovementReader
	Condominiums(ctx context.Context) []core.Condominium
	Condominium(ctx context.Context, id int64) (core.Condominium, error)
	AddCondominium(ctx context.Context, c core.Condominium) (core.Condominium, error)
	RenameCondominium(ctx context.Context, id int64, name string) (core.Condominium, error)
	RemoveCondominium(ctx context.Context, id int64) error
	AddMovement(ctx context.Context, condominiumID int64, m core.Movement) (core.Movement, error)
	RemoveMovement(ctx context.Context, condominiumID, movementID int64) error
	Categories(ctx context.Context) []string
	AddCategory(ctx context.Context, name string) (bool, error)
}

// CondominiumOverview is one row of the overview: a condominium and its
// totals for the requested period.
type CondominiumOverview struct {
	ID          int64
	Name        string
	OwnerUserID int64
	Statistics  core.Statistics
}

// Ledger is what the presentation layer calls. It applies visibility rules
// on top of the store: the administrator sees and manages every
// condominium but creates none, other users only touch their own.
type Ledger struct {
	store      LedgerStore
	aggregator *Aggregator
	logger     *log.Logger
}

func NewLedger(store LedgerStore, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.Discard()
	}
	return &Ledger{
		store:      store,
		aggregator: NewAggregator(store, logger),
		logger:     logger.WithComponent(log.ComponentLedger),
	}
}

// Condominiums lists what the identity may see, in insertion order.
func (l *Ledger) Condominiums(ctx context.Context, who Identity) []core.Condominium {
	all := l.store.Condominiums(ctx)
	if who.IsAdmin {
		return all
	}
	out := make([]core.Condominium, 0, len(all))
	for _, c := range all {
		if c.OwnedBy(who.UserID) {
			out = append(out, c)
		}
	}
	return out
}

// visible loads a condominium the identity may see. Someone else's
// condominium is reported as forbidden.
func (l *Ledger) visible(ctx context.Context, who Identity, id int64) (core.Condominium, error) {
	c, err := l.store.Condominium(ctx, id)
	if err != nil {
		return core.Condominium{}, err
	}
	if !who.CanSee(c) {
		l.logger.WarnContext(ctx, "Access denied",
			log.FieldUserID, who.UserID, log.FieldCondominiumID, id)
		return core.Condominium{}, core.ErrForbidden
	}
	return c, nil
}

func (l *Ledger) CreateCondominium(ctx context.Context, who Identity, name string) (core.Condominium, error) {
	if who.IsAdmin {
		return core.Condominium{}, core.ErrForbidden
	}
	c, err := core.NewCondominium(name, who.UserID).Unwrap()
	if err != nil {
		return core.Condominium{}, err
	}
	return l.store.AddCondominium(ctx, c)
}

func (l *Ledger) RenameCondominium(ctx context.Context, who Identity, id int64, name string) (core.Condominium, error) {
	if strings.TrimSpace(name) == "" {
		return core.Condominium{}, core.ErrEmptyName
	}
	if _, err := l.visible(ctx, who, id); err != nil {
		return core.Condominium{}, err
	}
	return l.store.RenameCondominium(ctx, id, name)
}

// DeleteCondominium removes the condominium with all of its movements.
func (l *Ledger) DeleteCondominium(ctx context.Context, who Identity, id int64) error {
	if _, err := l.visible(ctx, who, id); err != nil {
		return err
	}
	return l.store.RemoveCondominium(ctx, id)
}

func (l *Ledger) AddMovement(ctx context.Context, who Identity, in core.MovementInput) (core.Movement, error) {
	m, err := core.NewMovement(in).Unwrap()
	if err != nil {
		return core.Movement{}, err
	}
	if _, err := l.visible(ctx, who, m.CondominiumID); err != nil {
		return core.Movement{}, err
	}
	return l.store.AddMovement(ctx, m.CondominiumID, m)
}

func (l *Ledger) RemoveMovement(ctx context.Context, who Identity, condominiumID, movementID int64) error {
	if _, err := l.visible(ctx, who, condominiumID); err != nil {
		return err
	}
	return l.store.RemoveMovement(ctx, condominiumID, movementID)
}

func (l *Ledger) Statistics(ctx context.Context, who Identity, condominiumID int64, f core.PeriodFilter) (core.Statistics, error) {
	if _, err := l.visible(ctx, who, condominiumID); err != nil {
		return core.Statistics{}, err
	}
	return l.aggregator.Statistics(ctx, condominiumID, f)
}

func (l *Ledger) Movements(ctx context.Context, who Identity, condominiumID int64, f core.MovementFilter) ([]core.Movement, error) {
	if _, err := l.visible(ctx, who, condominiumID); err != nil {
		return nil, err
	}
	return l.aggregator.FilteredMovements(ctx, condominiumID, f)
}

func (l *Ledger) Periods(ctx context.Context, who Identity, condominiumID int64) ([]core.Period, error) {
	if _, err := l.visible(ctx, who, condominiumID); err != nil {
		return nil, err
	}
	return l.aggregator.AvailablePeriods(ctx, condominiumID), nil
}

func (l *Ledger) ByCategory(ctx context.Context, who Identity, condominiumID int64, f core.PeriodFilter) ([]core.CategoryAmount, error) {
	if _, err := l.visible(ctx, who, condominiumID); err != nil {
		return nil, err
	}
	return l.aggregator.ByCategory(ctx, condominiumID, f)
}

func (l *Ledger) Categories(ctx context.Context) []string {
	return l.store.Categories(ctx)
}

// AddCategory reports false when the name is blank or already listed.
func (l *Ledger) AddCategory(ctx context.Context, name string) (bool, error) {
	return l.store.AddCategory(ctx, name)
}

// Overview computes the period totals of every visible condominium from a
// single read. The result follows the listing order.
func (l *Ledger) Overview(ctx context.Context, who Identity, f core.PeriodFilter) ([]CondominiumOverview, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	condos := l.Condominiums(ctx, who)
	out := make([]CondominiumOverview, 0, len(condos))
	for _, c := range condos {
		out = append(out, CondominiumOverview{
			ID:          c.ID,
			Name:        c.Name,
			OwnerUserID: c.OwnerUserID,
			Statistics:  ComputeStatistics(c.Movements, f),
		})
	}

	l.logger.DebugContext(ctx, "Overview computed", log.FieldCount, len(out), log.FieldUserID, who.UserID)
	return out, nil
}
