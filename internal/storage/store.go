package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"balancete/internal/core"
	"balancete/internal/log"
)

// Store is the persistence layer over one dataset document. Every mutation
// is a single load → mutate → save cycle held under the store's mutex, so
// cycles never interleave within a process. Processes sharing a backend are
// not coordinated: the last save wins.
type Store struct {
	mu      sync.Mutex
	backend Backend
	key     string
	logger  *log.Logger
}

// errSkip aborts an update without saving and without reporting an error.
var errSkip = errors.New("skip")

type Option func(*Store)

// WithDocumentKey overrides the key the dataset is stored under.
func WithDocumentKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentStorage)
		}
	}
}

func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultDocumentKey,
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Load returns the current dataset. It never fails: a missing, unreadable or
// undecodable document yields a fresh dataset.
func (s *Store) Load(ctx context.Context) *core.Dataset {
	var out *core.Dataset
	s.view(ctx, func(d *core.Dataset) { out = d })
	return out
}

// Save replaces the stored document. Failures wrap core.ErrPersistence.
func (s *Store) Save(ctx context.Context, d *core.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, d)
}

// Reset deletes the stored document; the next load starts fresh.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	s.logger.InfoContext(ctx, "Dataset reset", log.FieldKey, s.key)
	return nil
}

// load reads and decodes the document and applies the ownerless migration.
// Callers must hold s.mu.
func (s *Store) load(ctx context.Context) (d *core.Dataset, migrated bool) {
	body, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read dataset, starting fresh",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return core.NewDataset(), false
	}
	if !found || len(body) == 0 {
		return core.NewDataset(), false
	}

	d = &core.Dataset{}
	if err := json.Unmarshal(body, d); err != nil {
		s.logger.WarnContext(ctx, "Failed to decode dataset, starting fresh",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return core.NewDataset(), false
	}
	d.Normalize()

	if MigrateOwnerless(d) {
		s.logger.InfoContext(ctx, "Assigned owner to legacy condominiums",
			log.FieldOperation, log.OpMigrate, log.FieldUserID, d.Users[0].ID)
		migrated = true
	}
	return d, migrated
}

// save encodes and writes the document. Callers must hold s.mu.
func (s *Store) save(ctx context.Context, d *core.Dataset) error {
	body, err := json.Marshal(d)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode dataset", log.FieldOperation, log.OpSave, log.FieldError, err)
		return fmt.Errorf("%w: encode dataset: %w", core.ErrPersistence, err)
	}
	if err := s.backend.Put(ctx, s.key, body); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save dataset", log.FieldOperation, log.OpSave, log.FieldError, err)
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return nil
}

// view runs fn on a freshly loaded dataset. A pending legacy migration is
// persisted on the way.
func (s *Store) view(ctx context.Context, fn func(d *core.Dataset)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, migrated := s.load(ctx)
	if migrated {
		// the migration is retried on the next load if this fails
		_ = s.save(ctx, d)
	}
	fn(d)
}

// update runs fn on a freshly loaded dataset and saves once if fn succeeds.
func (s *Store) update(ctx context.Context, fn func(d *core.Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, _ := s.load(ctx)
	if err := fn(d); err != nil {
		return err
	}
	return s.save(ctx, d)
}

// AddUser assigns the next user id. The email is normalized and must not be
// registered yet in any letter case.
func (s *Store) AddUser(ctx context.Context, u core.User) (core.User, error) {
	err := s.update(ctx, func(d *core.Dataset) error {
		u.Email = core.NormalizeEmail(u.Email)
		if d.UserByEmail(u.Email) != nil {
			return core.ErrEmailTaken
		}
		u.ID = d.NextUserID
		d.NextUserID++
		if u.CondominiumIDs == nil {
			u.CondominiumIDs = []int64{}
		}
		d.Users = append(d.Users, u)
		return nil
	})
	if err != nil {
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "User added", log.FieldOperation, log.OpCreate, log.FieldUserID, u.ID)
	return u, nil
}

func (s *Store) User(ctx context.Context, id int64) (core.User, error) {
	var (
		u     core.User
		found bool
	)
	s.view(ctx, func(d *core.Dataset) {
		if p := d.User(id); p != nil {
			u, found = *p, true
		}
	})
	if !found {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (core.User, error) {
	var (
		u     core.User
		found bool
	)
	s.view(ctx, func(d *core.Dataset) {
		if p := d.UserByEmail(email); p != nil {
			u, found = *p, true
		}
	})
	if !found {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

// AddCondominium assigns the next id and links the condominium to its owner.
func (s *Store) AddCondominium(ctx context.Context, c core.Condominium) (core.Condominium, error) {
	err := s.update(ctx, func(d *core.Dataset) error {
		owner := d.User(c.OwnerUserID)
		if owner == nil {
			return core.ErrUserNotFound
		}
		c.ID = d.NextCondominiumID
		d.NextCondominiumID++
		if c.Movements == nil {
			c.Movements = []core.Movement{}
		}
		d.Condominiums = append(d.Condominiums, c)
		owner.CondominiumIDs = append(owner.CondominiumIDs, c.ID)
		return nil
	})
	if err != nil {
		return core.Condominium{}, err
	}
	s.logger.InfoContext(ctx, "Condominium added",
		log.FieldOperation, log.OpCreate, log.FieldCondominiumID, c.ID, log.FieldUserID, c.OwnerUserID)
	return c, nil
}

// RenameCondominium is the only update a condominium supports.
func (s *Store) RenameCondominium(ctx context.Context, id int64, name string) (core.Condominium, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Condominium{}, core.ErrEmptyName
	}
	var out core.Condominium
	err := s.update(ctx, func(d *core.Dataset) error {
		c := d.Condominium(id)
		if c == nil {
			return core.ErrCondominiumNotFound
		}
		c.Name = name
		out = *c
		return nil
	})
	if err != nil {
		return core.Condominium{}, err
	}
	s.logger.InfoContext(ctx, "Condominium renamed", log.FieldOperation, log.OpUpdate, log.FieldCondominiumID, id)
	return out, nil
}

// RemoveCondominium deletes the condominium and its movements and unlinks it
// from every user in the same write.
func (s *Store) RemoveCondominium(ctx context.Context, id int64) error {
	err := s.update(ctx, func(d *core.Dataset) error {
		idx := slices.IndexFunc(d.Condominiums, func(c core.Condominium) bool { return c.ID == id })
		if idx < 0 {
			return core.ErrCondominiumNotFound
		}
		d.Condominiums = slices.Delete(d.Condominiums, idx, idx+1)
		for i := range d.Users {
			u := &d.Users[i]
			u.CondominiumIDs = slices.DeleteFunc(u.CondominiumIDs, func(cid int64) bool { return cid == id })
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Condominium removed", log.FieldOperation, log.OpDelete, log.FieldCondominiumID, id)
	return nil
}

func (s *Store) Condominium(ctx context.Context, id int64) (core.Condominium, error) {
	var (
		c     core.Condominium
		found bool
	)
	s.view(ctx, func(d *core.Dataset) {
		if p := d.Condominium(id); p != nil {
			c, found = *p, true
		}
	})
	if !found {
		return core.Condominium{}, core.ErrCondominiumNotFound
	}
	return c, nil
}

// Condominiums returns every stored condominium in insertion order.
func (s *Store) Condominiums(ctx context.Context) []core.Condominium {
	var out []core.Condominium
	s.view(ctx, func(d *core.Dataset) { out = d.Condominiums })
	return out
}

// Movements returns the embedded movements of a condominium, or an empty
// list when it does not exist.
func (s *Store) Movements(ctx context.Context, condominiumID int64) []core.Movement {
	out := []core.Movement{}
	s.view(ctx, func(d *core.Dataset) {
		if c := d.Condominium(condominiumID); c != nil {
			out = c.Movements
		}
	})
	return out
}

// AddMovement assigns the next movement id and appends it to the
// condominium's list.
func (s *Store) AddMovement(ctx context.Context, condominiumID int64, m core.Movement) (core.Movement, error) {
	err := s.update(ctx, func(d *core.Dataset) error {
		c := d.Condominium(condominiumID)
		if c == nil {
			return core.ErrCondominiumNotFound
		}
		m.ID = d.NextMovementID
		d.NextMovementID++
		m.CondominiumID = condominiumID
		c.Movements = append(c.Movements, m)
		return nil
	})
	if err != nil {
		return core.Movement{}, err
	}
	s.logger.InfoContext(ctx, "Movement added", log.NewFields().
		WithOperation(log.OpCreate).
		WithMovement(m.ID, condominiumID, string(m.Kind), m.Amount.Cents, m.Category).
		ToSlice()...)
	return m, nil
}

func (s *Store) RemoveMovement(ctx context.Context, condominiumID, movementID int64) error {
	err := s.update(ctx, func(d *core.Dataset) error {
		c := d.Condominium(condominiumID)
		if c == nil {
			return core.ErrCondominiumNotFound
		}
		idx := c.FindMovement(movementID)
		if idx < 0 {
			return core.ErrMovementNotFound
		}
		c.Movements = slices.Delete(c.Movements, idx, idx+1)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Movement removed",
		log.FieldOperation, log.OpDelete, log.FieldCondominiumID, condominiumID, log.FieldMovementID, movementID)
	return nil
}

// Categories returns the category list in insertion order.
func (s *Store) Categories(ctx context.Context) []string {
	var out []string
	s.view(ctx, func(d *core.Dataset) { out = d.Categories })
	return out
}

// AddCategory appends a trimmed category. It reports false without writing
// when the name is blank or already present (exact match).
func (s *Store) AddCategory(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	added := false
	err := s.update(ctx, func(d *core.Dataset) error {
		if d.HasCategory(name) {
			return errSkip
		}
		d.Categories = append(d.Categories, name)
		added = true
		return nil
	})
	if errors.Is(err, errSkip) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logger.InfoContext(ctx, "Category added", log.FieldOperation, log.OpCreate, log.FieldCategory, name)
	return added, nil
}
