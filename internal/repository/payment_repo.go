package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/novelhub/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound = errors.New("payment profile not found")
)

// PaymentRepository handles payment profile data access
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment profile
func (r *PaymentRepository) Create(profile *models.PaymentProfile) error {
	return r.db.Create(profile).Error
}

// GetActiveByType retrieves the active profile of a given type for a user
func (r *PaymentRepository) GetActiveByType(userID uuid.UUID, paymentType models.PaymentType) (*models.PaymentProfile, error) {
	var profile models.PaymentProfile
	result := r.db.
		Where("user_id = ? AND payment_type = ? AND is_active = ?", userID, paymentType, true).
		Order("updated_at DESC").
		First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, result.Error
	}
	return &profile, nil
}

// ListActiveByUserID retrieves all active profiles of a user
func (r *PaymentRepository) ListActiveByUserID(userID uuid.UUID) ([]models.PaymentProfile, error) {
	var profiles []models.PaymentProfile
	result := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&profiles)
	return profiles, result.Error
}

// Update writes the method details of a profile that is still active
func (r *PaymentRepository) Update(profile *models.PaymentProfile) error {
	result := r.db.Model(profile).
		Where("id = ? AND is_active = ?", profile.ID, true).
		Select("upi_id", "upi_qr_image", "paypal_email", "paypal_username", "updated_at").
		Updates(profile)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// DeactivateAllByUserID flips every active profile of a user to inactive
func (r *PaymentRepository) DeactivateAllByUserID(userID uuid.UUID) (int64, error) {
	result := r.db.Model(&models.PaymentProfile{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
