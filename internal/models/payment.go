package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentType represents a supported payout method
type PaymentType string

const (
	PaymentTypeUPI    PaymentType = "upi"
	PaymentTypePayPal PaymentType = "paypal"
)

var (
	ErrUPIIDRequired       = errors.New("UPI ID is required for UPI payment type")
	ErrPayPalEmailRequired = errors.New("PayPal email is required for PayPal payment type")
	ErrUnknownPaymentType  = errors.New("unknown payment type")
)

// PaymentProfile holds one payout method of a user
type PaymentProfile struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID   `gorm:"type:uuid;index:idx_payment_user_type;not null" json:"userId"`
	PaymentType    PaymentType `gorm:"size:20;index:idx_payment_user_type;not null" json:"paymentType"`
	UPIID          string      `gorm:"column:upi_id;size:255" json:"upiId,omitempty"`
	UPIQRImage     string      `gorm:"column:upi_qr_image;size:512" json:"upiQrImage,omitempty"`
	PayPalEmail    string      `gorm:"column:paypal_email;size:255" json:"paypalEmail,omitempty"`
	PayPalUsername string      `gorm:"column:paypal_username;size:255" json:"paypalUsername,omitempty"`
	IsActive       bool        `gorm:"not null;default:true" json:"isActive"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// TableName specifies the table name for PaymentProfile model
func (PaymentProfile) TableName() string {
	return "payment_profiles"
}

// BeforeCreate assigns a fresh identifier
func (p *PaymentProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeSave enforces the type specific required field
func (p *PaymentProfile) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}

// Validate checks that the method specific field for the declared type is present
func (p *PaymentProfile) Validate() error {
	switch p.PaymentType {
	case PaymentTypeUPI:
		if p.UPIID == "" {
			return ErrUPIIDRequired
		}
	case PaymentTypePayPal:
		if p.PayPalEmail == "" {
			return ErrPayPalEmailRequired
		}
	default:
		return ErrUnknownPaymentType
	}
	return nil
}

// UPISnapshot is the public view of a UPI profile
type UPISnapshot struct {
	UPIID      string `json:"upiId"`
	UPIQRImage string `json:"upiQrImage,omitempty"`
}

// PayPalSnapshot is the public view of a PayPal profile
type PayPalSnapshot struct {
	PayPalEmail    string `json:"paypalEmail"`
	PayPalUsername string `json:"paypalUsername,omitempty"`
}

// PaymentSettings is at most one active profile per method
type PaymentSettings struct {
	UPIPayment    *UPISnapshot    `json:"upiPayment"`
	PayPalPayment *PayPalSnapshot `json:"paypalPayment"`
}
