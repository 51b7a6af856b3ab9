package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// DateLayout is the only accepted textual form of a movement date.
const DateLayout = "2006-01-02"

type (
	Kind string

	Date struct {
		time.Time
	}

	Movement struct {
		ID            int64  `json:"id"`
		Kind          Kind   `json:"kind"`
		Category      string `json:"category"`
		Description   string `json:"description"`
		Amount        Money  `json:"amountMinorUnits"`
		Date          Date   `json:"date"`
		CondominiumID int64  `json:"condominiumId"`
	}

	Condominium struct {
		ID          int64      `json:"id"`
		Name        string     `json:"name"`
		OwnerUserID int64      `json:"ownerUserId"`
		Movements   []Movement `json:"movements"`
	}

	User struct {
		ID             int64   `json:"id"`
		Email          string  `json:"email"`
		PasswordHash   string  `json:"passwordHash"`
		CondominiumIDs []int64 `json:"condominiumIds"`
		IsAdmin        bool    `json:"isAdmin"`
	}
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Valid reports whether k is one of the two movement kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// ParseKind accepts a kind name in any letter case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// ParseDate parses a YYYY-MM-DD string into a real calendar date.
// Out of range days such as 2024-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	if !datePattern.MatchString(s) {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// String returns the date in its stored YYYY-MM-DD form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Display returns the date as DD/MM/YYYY.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// OwnedBy reports whether the condominium belongs to the given user id.
func (c Condominium) OwnedBy(userID int64) bool {
	return c.OwnerUserID != 0 && c.OwnerUserID == userID
}

// FindMovement returns the index of the movement with the given id, or -1.
func (c Condominium) FindMovement(id int64) int {
	for i, m := range c.Movements {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// OwnsCondominium reports whether id is in the user's condominium list.
func (u User) OwnsCondominium(id int64) bool {
	for _, cid := range u.CondominiumIDs {
		if cid == id {
			return true
		}
	}
	return false
}

// NormalizeEmail trims and lowercases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
