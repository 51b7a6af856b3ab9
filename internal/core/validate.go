package core

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MovementInput is the raw form data of a movement, before validation.
type MovementInput struct {
	Kind          string
	Category      string
	Description   string
	Amount        string
	Date          string
	CondominiumID int64
}

type credentials struct {
	Email    string `validate:"required"`
	Password string `validate:"min=4"`
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// NewMovement validates the input and builds a movement with placeholder id 0.
func NewMovement(in MovementInput) Result[Movement] {
	kind := Kind(in.Kind)
	if !kind.Valid() {
		return Err[Movement](ErrInvalidKind)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return Err[Movement](ErrEmptyCategory)
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return Err[Movement](ErrEmptyDescription)
	}
	cents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		return Err[Movement](err)
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return Err[Movement](err)
	}
	if in.CondominiumID <= 0 {
		return Err[Movement](ErrInvalidCondominiumID)
	}

	return Ok(Movement{
		ID:            0, // assigned by the store
		Kind:          kind,
		Category:      category,
		Description:   description,
		Amount:        Money{Cents: cents},
		Date:          date,
		CondominiumID: in.CondominiumID,
	})
}

// ValidateMovement checks the input without keeping the result.
func ValidateMovement(in MovementInput) error {
	return NewMovement(in).Err()
}

// NewUser validates credentials and builds a user with a bcrypt verifier.
func NewUser(email, password string, cost int) Result[User] {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return Err[User](err)
	}
	hash, err := HashPassword(password, cost)
	if err != nil {
		return Err[User](err)
	}
	return Ok(User{
		ID:             0,
		Email:          strings.ToLower(email),
		PasswordHash:   hash,
		CondominiumIDs: []int64{},
	})
}

func validateCredentials(email, password string) error {
	err := structValidator().Struct(credentials{Email: email, Password: password})
	var fieldErrs validator.ValidationErrors
	if err != nil && !errors.As(err, &fieldErrs) {
		return err
	}
	failed := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		failed[fe.Field()] = true
	}

	switch {
	case failed["Email"]:
		return ErrEmptyEmail
	case !emailPattern.MatchString(email):
		return ErrInvalidEmail
	case failed["Password"]:
		return ErrShortPassword
	}
	return nil
}

// NewCondominium validates the name and owner and builds an empty condominium
// with placeholder id 0.
func NewCondominium(name string, ownerID int64) Result[Condominium] {
	name = strings.TrimSpace(name)
	if name == "" {
		return Err[Condominium](ErrEmptyName)
	}
	if ownerID <= 0 {
		return Err[Condominium](ErrInvalidOwnerID)
	}
	return Ok(Condominium{
		ID:          0,
		Name:        name,
		OwnerUserID: ownerID,
		Movements:   []Movement{},
	})
}
