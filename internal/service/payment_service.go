package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/novelhub/internal/models"
	"github.com/novelhub/internal/repository"
	"github.com/novelhub/pkg/keygen"
)

var upiPattern = regexp.MustCompile(`^[\w.-]+@[\w-]+$`)

// ValidUPIID reports whether id looks like a UPI virtual payment address
func ValidUPIID(id string) bool {
	return upiPattern.MatchString(id)
}

// PaymentService handles payout profile operations
type PaymentService struct {
	paymentRepo *repository.PaymentRepository
	uploads     *UploadService
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(paymentRepo *repository.PaymentRepository, uploads *UploadService) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		uploads:     uploads,
	}
}

// UPIRequest represents the UPI upsert request
type UPIRequest struct {
	UPIID      string `json:"upiId" binding:"required,upi"`
	UPIQRImage string `json:"upiQrImage" binding:"omitempty,url"`
}

// PayPalRequest represents the PayPal upsert request
type PayPalRequest struct {
	PayPalEmail    string `json:"paypalEmail" binding:"required,email"`
	PayPalUsername string `json:"paypalUsername"`
}

// CreatePaymentRequest is the type-tagged form accepted by the generic endpoint
type CreatePaymentRequest struct {
	PaymentType    models.PaymentType `json:"paymentType" binding:"required,oneof=upi paypal"`
	UPIID          string             `json:"upiId"`
	UPIQRImage     string             `json:"upiQrImage"`
	PayPalEmail    string             `json:"paypalEmail"`
	PayPalUsername string             `json:"paypalUsername"`
}

// UpsertUPI updates the active UPI profile of userID or creates one.
// created reports whether a new record was inserted.
func (s *PaymentService) UpsertUPI(userID uuid.UUID, req *UPIRequest) (profile *models.PaymentProfile, created bool, err error) {
	upiID := strings.TrimSpace(req.UPIID)
	if upiID == "" {
		return nil, false, invalid("upiId", "UPI ID is required")
	}
	if !ValidUPIID(upiID) {
		return nil, false, invalid("upiId", "Invalid UPI ID format")
	}
	qr := strings.TrimSpace(req.UPIQRImage)

	existing, err := s.paymentRepo.GetActiveByType(userID, models.PaymentTypeUPI)
	if err != nil && !errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, false, err
	}

	if existing != nil {
		existing.UPIID = upiID
		if qr != "" {
			existing.UPIQRImage = qr
		}
		err := s.paymentRepo.Update(existing)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, false, fmt.Errorf("failed to update UPI details: %w", err)
		}
		// deactivated since it was read, so start a new profile
	}

	profile = &models.PaymentProfile{
		UserID:      userID,
		PaymentType: models.PaymentTypeUPI,
		UPIID:       upiID,
		UPIQRImage:  qr,
		IsActive:    true,
	}
	if err := s.paymentRepo.Create(profile); err != nil {
		return nil, false, fmt.Errorf("failed to save UPI details: %w", err)
	}
	return profile, true, nil
}

// UpsertPayPal updates the active PayPal profile of userID or creates one
func (s *PaymentService) UpsertPayPal(userID uuid.UUID, req *PayPalRequest) (profile *models.PaymentProfile, created bool, err error) {
	email := strings.TrimSpace(req.PayPalEmail)
	if email == "" {
		return nil, false, invalid("paypalEmail", "PayPal email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, false, invalid("paypalEmail", "Invalid PayPal email")
	}
	username := strings.TrimSpace(req.PayPalUsername)

	existing, err := s.paymentRepo.GetActiveByType(userID, models.PaymentTypePayPal)
	if err != nil && !errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, false, err
	}

	if existing != nil {
		existing.PayPalEmail = email
		if username != "" {
			existing.PayPalUsername = username
		}
		err := s.paymentRepo.Update(existing)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, false, fmt.Errorf("failed to update PayPal details: %w", err)
		}
		// deactivated since it was read, so start a new profile
	}

	profile = &models.PaymentProfile{
		UserID:         userID,
		PaymentType:    models.PaymentTypePayPal,
		PayPalEmail:    email,
		PayPalUsername: username,
		IsActive:       true,
	}
	if err := s.paymentRepo.Create(profile); err != nil {
		return nil, false, fmt.Errorf("failed to save PayPal details: %w", err)
	}
	return profile, true, nil
}

// CreatePayment routes a type-tagged request to the matching upsert
func (s *PaymentService) CreatePayment(userID uuid.UUID, req *CreatePaymentRequest) (*models.PaymentProfile, bool, error) {
	switch req.PaymentType {
	case models.PaymentTypeUPI:
		if strings.TrimSpace(req.UPIID) == "" {
			return nil, false, invalid("upiId", "UPI ID is required for UPI payment method")
		}
		return s.UpsertUPI(userID, &UPIRequest{UPIID: req.UPIID, UPIQRImage: req.UPIQRImage})
	case models.PaymentTypePayPal:
		if strings.TrimSpace(req.PayPalEmail) == "" {
			return nil, false, invalid("paypalEmail", "PayPal email is required for PayPal payment method")
		}
		return s.UpsertPayPal(userID, &PayPalRequest{PayPalEmail: req.PayPalEmail, PayPalUsername: req.PayPalUsername})
	default:
		return nil, false, invalid("paymentType", "Payment type must be upi or paypal")
	}
}

// ListActive returns the active profiles of userID
func (s *PaymentService) ListActive(userID uuid.UUID) ([]models.PaymentProfile, error) {
	profiles, err := s.paymentRepo.ListActiveByUserID(userID)
	if err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = []models.PaymentProfile{}
	}
	return profiles, nil
}

// DeactivateAll marks every active profile of userID inactive
func (s *PaymentService) DeactivateAll(userID uuid.UUID) (int64, error) {
	n, err := s.paymentRepo.DeactivateAllByUserID(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate payment methods: %w", err)
	}
	return n, nil
}

// Settings returns the public snapshot of each active method
func (s *PaymentService) Settings(userID uuid.UUID) (*models.PaymentSettings, error) {
	settings := &models.PaymentSettings{}

	upi, err := s.paymentRepo.GetActiveByType(userID, models.PaymentTypeUPI)
	switch {
	case err == nil:
		settings.UPIPayment = &models.UPISnapshot{UPIID: upi.UPIID, UPIQRImage: upi.UPIQRImage}
	case !errors.Is(err, repository.ErrPaymentNotFound):
		return nil, err
	}

	paypal, err := s.paymentRepo.GetActiveByType(userID, models.PaymentTypePayPal)
	switch {
	case err == nil:
		settings.PayPalPayment = &models.PayPalSnapshot{PayPalEmail: paypal.PayPalEmail, PayPalUsername: paypal.PayPalUsername}
	case !errors.Is(err, repository.ErrPaymentNotFound):
		return nil, err
	}

	return settings, nil
}

// UploadQR stores a payment QR image and returns its URL
func (s *PaymentService) UploadQR(ctx context.Context, userID uuid.UUID, file *File) (string, error) {
	return s.uploads.Upload(ctx, file, keygen.PaymentFolder(userID), s.uploads.QRImagePolicy())
}
