package storage

import "balancete/internal/core"

// LegacyOwnerEmail identifies the user synthesized to own condominiums that
// were stored before ownership existed. It has no verifier and cannot log in.
const LegacyOwnerEmail = "legacy-owner@balancete.local"

// MigrateOwnerless assigns every condominium without an owner to the first
// user, synthesizing one when the dataset has no users. It reports whether
// the dataset changed; a second run on the result is a no-op.
func MigrateOwnerless(d *core.Dataset) bool {
	var ownerless []int
	for i, c := range d.Condominiums {
		if c.OwnerUserID == 0 {
			ownerless = append(ownerless, i)
		}
	}
	if len(ownerless) == 0 {
		return false
	}

	if len(d.Users) == 0 {
		d.Users = append(d.Users, core.User{
			ID:             d.NextUserID,
			Email:          LegacyOwnerEmail,
			CondominiumIDs: []int64{},
			IsAdmin:        true,
		})
		d.NextUserID++
	}

	owner := &d.Users[0]
	for _, i := range ownerless {
		c := &d.Condominiums[i]
		c.OwnerUserID = owner.ID
		if !owner.OwnsCondominium(c.ID) {
			owner.CondominiumIDs = append(owner.CondominiumIDs, c.ID)
		}
	}
	return true
}
