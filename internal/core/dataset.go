package core

// DefaultCategories seeds the category list of a fresh dataset.
var DefaultCategories = []string{
	"Condomínio",
	"Água",
	"Luz",
	"Gás",
	"Manutenção",
	"Salários",
	"Segurança",
	"Limpeza",
	"Administração",
	"Multas",
	"Outros",
}

// Dataset is the root document holding every persisted entity.
type Dataset struct {
	Users             []User        `json:"users"`
	Condominiums      []Condominium `json:"condominiums"`
	Categories        []string      `json:"categories"`
	NextUserID        int64         `json:"nextUserId"`
	NextCondominiumID int64         `json:"nextCondominiumId"`
	NextMovementID    int64         `json:"nextMovementId"`
}

func NewDataset() *Dataset {
	return &Dataset{
		Users:             []User{},
		Condominiums:      []Condominium{},
		Categories:        append([]string(nil), DefaultCategories...),
		NextUserID:        1,
		NextCondominiumID: 1,
		NextMovementID:    1,
	}
}

// Normalize fills fields missing from older documents. Counters that are
// absent or behind the highest stored id are moved past it so ids are never
// reused.
func (d *Dataset) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Condominiums == nil {
		d.Condominiums = []Condominium{}
	}
	if d.Categories == nil {
		d.Categories = append([]string(nil), DefaultCategories...)
	}

	var maxUser, maxCondo, maxMovement int64
	for i := range d.Users {
		if d.Users[i].CondominiumIDs == nil {
			d.Users[i].CondominiumIDs = []int64{}
		}
		maxUser = max(maxUser, d.Users[i].ID)
	}
	for i := range d.Condominiums {
		c := &d.Condominiums[i]
		if c.Movements == nil {
			c.Movements = []Movement{}
		}
		maxCondo = max(maxCondo, c.ID)
		for _, m := range c.Movements {
			maxMovement = max(maxMovement, m.ID)
		}
	}
	d.NextUserID = max(d.NextUserID, maxUser+1)
	d.NextCondominiumID = max(d.NextCondominiumID, maxCondo+1)
	d.NextMovementID = max(d.NextMovementID, maxMovement+1)
}

// Condominium returns a pointer into the dataset, or nil.
func (d *Dataset) Condominium(id int64) *Condominium {
	for i := range d.Condominiums {
		if d.Condominiums[i].ID == id {
			return &d.Condominiums[i]
		}
	}
	return nil
}

// User returns a pointer into the dataset, or nil.
func (d *Dataset) User(id int64) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// UserByEmail matches the normalized email, or returns nil.
func (d *Dataset) UserByEmail(email string) *User {
	email = NormalizeEmail(email)
	for i := range d.Users {
		if d.Users[i].Email == email {
			return &d.Users[i]
		}
	}
	return nil
}

// HasCategory is an exact, case-sensitive match.
func (d *Dataset) HasCategory(name string) bool {
	for _, c := range d.Categories {
		if c == name {
			return true
		}
	}
	return false
}
