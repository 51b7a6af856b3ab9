package core

import "fmt"

// PeriodFilter restricts movements to a month and/or year. A zero field means
// no restriction on it.
type PeriodFilter struct {
	Month int // 1-12, 0 for any
	Year  int // 0 for any
}

// MovementFilter narrows a movement listing. Zero fields are ignored and the
// rest are combined with AND.
type MovementFilter struct {
	PeriodFilter
	Kind     Kind
	Category string
}

// Statistics are the totals of a condominium under a period filter.
type Statistics struct {
	Income  Money
	Expense Money
	Balance Money
	Count   int
}

// Period is a (year, month) pair that has at least one movement.
type Period struct {
	Year  int
	Month int // 1-12
	Label string
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Kind   Kind
	Amount Money
}

// IsZero reports whether the filter restricts nothing.
func (f PeriodFilter) IsZero() bool {
	return f.Month == 0 && f.Year == 0
}

// Validate rejects months outside 1-12 and negative years.
func (f PeriodFilter) Validate() error {
	if f.Month < 0 || f.Month > 12 {
		return invalid("month", "month must be between 1 and 12")
	}
	if f.Year < 0 {
		return invalid("year", "year must be positive")
	}
	return nil
}

// Matches reports whether the date falls within the filter.
func (f PeriodFilter) Matches(d Date) bool {
	if f.Month != 0 && d.Month() != f.Month {
		return false
	}
	if f.Year != 0 && d.Year() != f.Year {
		return false
	}
	return true
}

// NewPeriod builds a period with its MM/YYYY label.
func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: month, Label: fmt.Sprintf("%02d/%04d", month, year)}
}
