package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldKey           = "key"
	FieldBackend       = "backend"
	FieldUserID        = "user_id"
	FieldEmail         = "email"
	FieldCondominiumID = "condominium_id"
	FieldMovementID    = "movement_id"
	FieldKind          = "kind"
	FieldCategory      = "category"
	FieldAmountCents   = "amount_cents"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldCount         = "count"
	FieldAdmin         = "admin"
	FieldSessionID     = "session_id"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentCLI         = "cli"
	ComponentStorage     = "storage"
	ComponentBackend     = "backend"
	ComponentAggregation = "aggregation"
	ComponentAuth        = "auth"
	ComponentSession     = "session"
	ComponentLedger      = "ledger"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpMigrate  = "migrate"
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpRegister = "register"
	OpRestore  = "restore"
	OpSeed     = "seed"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithMovement adds movement-related fields
func (f LogFields) WithMovement(id, condominiumID int64, kind string, amountCents int64, category string) LogFields {
	f[FieldMovementID] = id
	f[FieldCondominiumID] = condominiumID
	f[FieldKind] = kind
	f[FieldAmountCents] = amountCents
	f[FieldCategory] = category
	return f
}

// WithPeriod adds the month/year filter fields, skipping absent ones
func (f LogFields) WithPeriod(month, year int) LogFields {
	if month != 0 {
		f[FieldMonth] = month
	}
	if year != 0 {
		f[FieldYear] = year
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
