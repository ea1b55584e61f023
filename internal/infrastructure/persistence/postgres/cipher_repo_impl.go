package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/turtacn/vaultgate/internal/domain/models"
	"github.com/turtacn/vaultgate/internal/domain/repository"
	apperrors "github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// CipherRepoImpl implements CipherRepository using gorm.
type CipherRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewCipherRepository creates a new gorm-backed cipher repository instance.
func NewCipherRepository(db *gorm.DB, log logger.Logger) repository.CipherRepository {
	return &CipherRepoImpl{
		db:     db,
		logger: log.WithComponent("cipher_repository"),
	}
}

// Save inserts a new cipher.
func (r *CipherRepoImpl) Save(ctx context.Context, cipher *models.Cipher) error {
	start := time.Now()
	if err := r.db.WithContext(ctx).Create(cipher).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict("cipher already exists").WithMetadata("cipher_id", cipher.ID)
		}
		r.logger.Error(ctx, "Failed to create cipher", err, logger.String("cipher_id", cipher.ID))
		return apperrors.WrapError(err, apperrors.CodeServerError, "failed to create cipher")
	}

	r.logger.Debug(ctx, "Cipher created successfully",
		logger.String("cipher_id", cipher.ID),
		logger.Int64("latency_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// Update overwrites every mutable column of an existing, non-deleted cipher.
func (r *CipherRepoImpl) Update(ctx context.Context, cipher *models.Cipher) error {
	result := r.db.WithContext(ctx).
		Model(&models.Cipher{}).
		Where("id = ? AND user_id = ? AND deleted_date IS NULL", cipher.ID, cipher.UserID).
		Select("*").
		Omit("id", "user_id", "creation_date").
		Updates(cipher)

	if result.Error != nil {
		r.logger.Error(ctx, "Failed to update cipher", result.Error, logger.String("cipher_id", cipher.ID))
		return apperrors.WrapError(result.Error, apperrors.CodeServerError, "failed to update cipher")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrCipherNotFound(cipher.ID)
	}
	return nil
}

// FindByID retrieves a live cipher owned by userID.
func (r *CipherRepoImpl) FindByID(ctx context.Context, userID, cipherID string) (*models.Cipher, error) {
	var cipher models.Cipher
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND deleted_date IS NULL", cipherID, userID).
		First(&cipher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCipherNotFound(cipherID)
		}
		r.logger.Error(ctx, "Failed to retrieve cipher", err, logger.String("cipher_id", cipherID))
		return nil, apperrors.WrapError(err, apperrors.CodeServerError, "failed to retrieve cipher")
	}
	return &cipher, nil
}

// ListByUser returns all live ciphers for userID in creation order.
func (r *CipherRepoImpl) ListByUser(ctx context.Context, userID string) ([]*models.Cipher, error) {
	var ciphers []*models.Cipher
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_date IS NULL", userID).
		Order("creation_date ASC, id ASC").
		Find(&ciphers).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to list ciphers", err)
		return nil, apperrors.WrapError(err, apperrors.CodeServerError, "failed to list ciphers")
	}
	return ciphers, nil
}

// SoftDelete stamps DeletedDate and RevisionDate.
func (r *CipherRepoImpl) SoftDelete(ctx context.Context, userID, cipherID string) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.Cipher{}).
		Where("id = ? AND user_id = ? AND deleted_date IS NULL", cipherID, userID).
		Updates(map[string]interface{}{"deleted_date": now, "revision_date": now})
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to delete cipher", result.Error, logger.String("cipher_id", cipherID))
		return apperrors.WrapError(result.Error, apperrors.CodeServerError, "failed to delete cipher")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrCipherNotFound(cipherID)
	}
	return nil
}

// isUniqueViolation recognises duplicate keys from gorm's translated errors and from raw pgx errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
