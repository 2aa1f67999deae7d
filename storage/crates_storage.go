package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/craterio/registry/storage/model"
)

// CratesStorage implements CratesStore using GORM
type CratesStorage struct {
	db *gorm.DB
}

// List returns all crates
func (s *CratesStorage) List() ([]model.Crate, error) {
	var crates []model.Crate
	if err := s.db.Order("id ASC").Find(&crates).Error; err != nil {
		return nil, errors.Wrap(err, "crates: list failed")
	}
	return crates, nil
}

// Get returns a crate by name; the lookup ignores case
func (s *CratesStorage) Get(name string) (*model.Crate, error) {
	var crate model.Crate
	if err := s.db.Where("lower(name) = lower(?)", name).First(&crate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("crate `%s` does not exist", name)
		}
		return nil, errors.Wrap(err, "crates: get failed")
	}
	return &crate, nil
}

// GetByID returns a crate by ID
func (s *CratesStorage) GetByID(id int64) (*model.Crate, error) {
	var crate model.Crate
	if err := s.db.First(&crate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("crate %d does not exist", id)
		}
		return nil, errors.Wrap(err, "crates: get failed")
	}
	return &crate, nil
}

// Create creates a new crate
func (s *CratesStorage) Create(name, description string) (*model.Crate, error) {
	crate := &model.Crate{Name: name, Description: description}
	if err := s.db.Create(crate).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, model.AlreadyExistsErrorFmt("crate `%s` already exists", name)
		}
		return nil, errors.Wrap(err, "crates: create failed")
	}
	return crate, nil
}

// AddOwner registers a user or team as owner of a crate
func (s *CratesStorage) AddOwner(crateID, ownerID int64, kind model.OwnerKind) error {
	owner := model.CrateOwner{CrateID: crateID, OwnerID: ownerID, OwnerKind: kind}
	if err := s.db.Create(&owner).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsError("owner already registered for crate")
		}
		return errors.Wrap(err, "crates: add owner failed")
	}
	return nil
}

// IsUserOwner reports whether the user directly owns the crate
func (s *CratesStorage) IsUserOwner(crateID, userID int64) (bool, error) {
	var count int64
	err := s.db.Model(&model.CrateOwner{}).
		Where("crate_id = ? AND owner_id = ? AND owner_kind = ?", crateID, userID, model.OwnerKindUser).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "crates: owner check failed")
	}
	return count > 0, nil
}

// UserOwners returns the users that directly own the crate
func (s *CratesStorage) UserOwners(crateID int64) ([]model.User, error) {
	var users []model.User
	err := s.db.Model(&model.User{}).
		Joins("JOIN crate_owners ON crate_owners.owner_id = users.id").
		Where("crate_owners.crate_id = ? AND crate_owners.owner_kind = ?", crateID, model.OwnerKindUser).
		Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "crates: list owners failed")
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// OwnedCrates returns the crates the user directly owns
func (s *CratesStorage) OwnedCrates(userID int64) ([]model.Crate, error) {
	var crates []model.Crate
	err := s.db.Model(&model.Crate{}).
		Joins("JOIN crate_owners ON crate_owners.crate_id = crates.id").
		Where("crate_owners.owner_id = ? AND crate_owners.owner_kind = ?", userID, model.OwnerKindUser).
		Order("crates.id ASC").
		Find(&crates).Error
	if err != nil {
		return nil, errors.Wrap(err, "crates: list owned failed")
	}
	return crates, nil
}
