package services

import (
	"cmp"
	"context"
	"slices"
	"sort"
	"time"

	"balancete/internal/core"
	"balancete/internal/log"
)

// FilterByPeriod keeps the movements whose date falls within f. A zero
// filter keeps everything.
func FilterByPeriod(movements []core.Movement, f core.PeriodFilter) []core.Movement {
	out := make([]core.Movement, 0, len(movements))
	for _, m := range movements {
		if f.Matches(m.Date) {
			out = append(out, m)
		}
	}
	return out
}

// SumByKind adds up the movements of one kind within the period.
func SumByKind(movements []core.Movement, kind core.Kind, f core.PeriodFilter) core.Money {
	var total core.Money
	for _, m := range movements {
		if m.Kind == kind && f.Matches(m.Date) {
			total = total.Add(m.Amount)
		}
	}
	return total
}

// Balance is income minus expense within the period. It can be negative.
func Balance(movements []core.Movement, f core.PeriodFilter) core.Money {
	return SumByKind(movements, core.Income, f).Sub(SumByKind(movements, core.Expense, f))
}

func ComputeStatistics(movements []core.Movement, f core.PeriodFilter) core.Statistics {
	filtered := FilterByPeriod(movements, f)
	income := SumByKind(filtered, core.Income, core.PeriodFilter{})
	expense := SumByKind(filtered, core.Expense, core.PeriodFilter{})
	return core.Statistics{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
		Count:   len(filtered),
	}
}

// FilterMovements applies the period, kind and exact category filters and
// returns the result newest first. Movements on the same date keep their
// stored order.
func FilterMovements(movements []core.Movement, f core.MovementFilter) []core.Movement {
	out := make([]core.Movement, 0, len(movements))
	for _, m := range movements {
		if !f.Matches(m.Date) {
			continue
		}
		if f.Kind != "" && m.Kind != f.Kind {
			continue
		}
		if f.Category != "" && m.Category != f.Category {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// Periods lists the distinct year/month pairs present, newest first.
func Periods(movements []core.Movement) []core.Period {
	seen := make(map[[2]int]struct{})
	out := []core.Period{}
	for _, m := range movements {
		key := [2]int{m.Date.Year(), m.Date.Month()}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, core.NewPeriod(key[0], key[1]))
	}
	slices.SortFunc(out, func(a, b core.Period) int {
		if c := cmp.Compare(b.Year, a.Year); c != 0 {
			return c
		}
		return cmp.Compare(b.Month, a.Month)
	})
	return out
}

// SumByCategory totals the movements within the period per category and
// kind, largest amounts first.
func SumByCategory(movements []core.Movement, f core.PeriodFilter) []core.CategoryAmount {
	type key struct {
		name string
		kind core.Kind
	}
	totals := make(map[key]core.Money)
	var order []key
	for _, m := range movements {
		if !f.Matches(m.Date) {
			continue
		}
		k := key{m.Category, m.Kind}
		if _, ok := totals[k]; !ok {
			order = append(order, k)
		}
		totals[k] = totals[k].Add(m.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(order))
	for _, k := range order {
		out = append(out, core.CategoryAmount{Name: k.name, Kind: k.kind, Amount: totals[k]})
	}
	slices.SortStableFunc(out, func(a, b core.CategoryAmount) int {
		return cmp.Compare(b.Amount.Cents, a.Amount.Cents)
	})
	return out
}

// CurrentPeriod is the month and year of now.
func CurrentPeriod(now time.Time) core.PeriodFilter {
	return core.PeriodFilter{Month: int(now.Month()), Year: now.Year()}
}

// MovementReader is the read side of the store the aggregator needs.
type MovementReader interface {
	Movements(ctx context.Context, condominiumID int64) []core.Movement
}

// Aggregator computes projections of one condominium. Each call performs
// exactly one read; an unknown condominium behaves like one with no
// movements.
type Aggregator struct {
	reader MovementReader
	logger *log.Logger
}

func NewAggregator(reader MovementReader, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Discard()
	}
	return &Aggregator{
		reader: reader,
		logger: logger.WithComponent(log.ComponentAggregation),
	}
}

// Statistics returns the totals of a condominium. It fails only when the
// filter itself is malformed.
func (a *Aggregator) Statistics(ctx context.Context, condominiumID int64, f core.PeriodFilter) (core.Statistics, error) {
	if err := f.Validate(); err != nil {
		return core.Statistics{}, err
	}
	stats := ComputeStatistics(a.reader.Movements(ctx, condominiumID), f)
	a.logger.DebugContext(ctx, "Statistics computed", log.NewFields().
		WithPeriod(f.Month, f.Year).
		WithOperation(log.OpRead).
		ToSlice()...)
	return stats, nil
}

func (a *Aggregator) FilteredMovements(ctx context.Context, condominiumID int64, f core.MovementFilter) ([]core.Movement, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, core.ErrInvalidKind
	}
	return FilterMovements(a.reader.Movements(ctx, condominiumID), f), nil
}

func (a *Aggregator) AvailablePeriods(ctx context.Context, condominiumID int64) []core.Period {
	return Periods(a.reader.Movements(ctx, condominiumID))
}

func (a *Aggregator) ByCategory(ctx context.Context, condominiumID int64, f core.PeriodFilter) ([]core.CategoryAmount, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return SumByCategory(a.reader.Movements(ctx, condominiumID), f), nil
}
