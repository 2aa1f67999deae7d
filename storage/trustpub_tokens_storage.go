package storage

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/craterio/registry/storage/model"
)

// TokensStorage implements TokensStore using GORM
type TokensStorage struct {
	db *gorm.DB
}

// InsertUsedJTI records a JWT ID; it returns an AlreadyExistsError when the
// JTI was seen before
func (s *TokensStorage) InsertUsedJTI(jti string, expiresAt time.Time) error {
	row := model.UsedJTI{JTI: jti, ExpiresAt: expiresAt}
	if err := s.db.Create(&row).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsError("jti already used")
		}
		return errors.Wrap(err, "tokens: jti insert failed")
	}
	return nil
}

// Create stores a new token
func (s *TokensStorage) Create(token *model.Token) error {
	if err := s.db.Create(token).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsError("token already exists")
		}
		return errors.Wrap(err, "tokens: create failed")
	}
	return nil
}

// FindByHash returns the unexpired token with the given hash
func (s *TokensStorage) FindByHash(hashedToken string) (*model.Token, error) {
	var token model.Token
	err := s.db.Where("hashed_token = ? AND expires_at > ?", hashedToken, time.Now()).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundError("token not found")
		}
		return nil, errors.Wrap(err, "tokens: lookup failed")
	}
	return &token, nil
}

// DeleteByHash removes the token with the given hash; missing tokens are not
// an error
func (s *TokensStorage) DeleteByHash(hashedToken string) error {
	err := s.db.Where("hashed_token = ?", hashedToken).Delete(&model.Token{}).Error
	if err != nil {
		return errors.Wrap(err, "tokens: delete failed")
	}
	return nil
}

// SweepExpired removes expired tokens and JTI records, returning the number
// of rows removed
func (s *TokensStorage) SweepExpired(now time.Time) (int64, error) {
	var removed int64
	res := s.db.Where("expires_at <= ?", now).Delete(&model.Token{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "tokens: sweep failed")
	}
	removed += res.RowsAffected
	res = s.db.Where("expires_at <= ?", now).Delete(&model.UsedJTI{})
	if res.Error != nil {
		return removed, errors.Wrap(res.Error, "tokens: jti sweep failed")
	}
	removed += res.RowsAffected
	return removed, nil
}
