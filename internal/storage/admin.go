package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"balancete/internal/core"
	"balancete/internal/log"
)

// AdminRecord is the verifier of the built-in administrator. It lives under
// its own key, outside the dataset document, so the admin never appears in
// the user list.
type AdminRecord struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// LoadAdmin returns the stored admin record. found is false when none was
// seeded or the record cannot be read.
func (s *Store) LoadAdmin(ctx context.Context) (rec AdminRecord, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok, err := s.backend.Get(ctx, AdminKey)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read admin record", log.FieldOperation, log.OpLoad, log.FieldError, err)
		return AdminRecord{}, false
	}
	if !ok {
		return AdminRecord{}, false
	}
	if err := json.Unmarshal(body, &rec); err != nil {
		s.logger.WarnContext(ctx, "Failed to decode admin record", log.FieldOperation, log.OpLoad, log.FieldError, err)
		return AdminRecord{}, false
	}
	return rec, true
}

// SeedAdmin stores rec unless a record already exists. It reports whether
// it wrote.
func (s *Store) SeedAdmin(ctx context.Context, rec AdminRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found, err := s.backend.Get(ctx, AdminKey); err == nil && found {
		return false, nil
	}

	rec.Email = core.NormalizeEmail(rec.Email)
	body, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("%w: encode admin record: %w", core.ErrPersistence, err)
	}
	if err := s.backend.Put(ctx, AdminKey, body); err != nil {
		return false, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	s.logger.InfoContext(ctx, "Admin record seeded", log.FieldOperation, log.OpSeed, log.FieldEmail, rec.Email)
	return true, nil
}
