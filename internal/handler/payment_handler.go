package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/novelhub/internal/middleware"
	"github.com/novelhub/internal/models"
	"github.com/novelhub/internal/service"
	"github.com/novelhub/pkg/response"
)

// PaymentHandler handles payout profile API requests
type PaymentHandler struct {
	paymentService *service.PaymentService
	uploadService  *service.UploadService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService, uploadService *service.UploadService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		uploadService:  uploadService,
	}
}

// ListPayments returns the caller's active payment methods
// GET /api/v1/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	profiles, err := h.paymentService.ListActive(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, profiles)
}

// CreatePayment handles the type-tagged payment method form
// POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	profile, created, err := h.paymentService.CreatePayment(middleware.GetUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	writeUpsert(c, created, "Payment method saved successfully", profile)
}

// SaveUPI handles the UPI upsert
// POST /api/v1/payments/upi
func (h *PaymentHandler) SaveUPI(c *gin.Context) {
	var req service.UPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	profile, created, err := h.paymentService.UpsertUPI(middleware.GetUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	writeUpsert(c, created, "UPI payment details saved successfully",
		&models.UPISnapshot{UPIID: profile.UPIID, UPIQRImage: profile.UPIQRImage})
}

// SavePayPal handles the PayPal upsert
// POST /api/v1/payments/paypal
func (h *PaymentHandler) SavePayPal(c *gin.Context) {
	var req service.PayPalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	profile, created, err := h.paymentService.UpsertPayPal(middleware.GetUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	writeUpsert(c, created, "PayPal payment details saved successfully",
		&models.PayPalSnapshot{PayPalEmail: profile.PayPalEmail, PayPalUsername: profile.PayPalUsername})
}

// Settings returns the active UPI and PayPal methods
// GET /api/v1/payments/settings
func (h *PaymentHandler) Settings(c *gin.Context) {
	settings, err := h.paymentService.Settings(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, settings)
}

// DeactivateAll marks every payment method of the caller inactive
// DELETE /api/v1/payments
func (h *PaymentHandler) DeactivateAll(c *gin.Context) {
	n, err := h.paymentService.DeactivateAll(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithStatus(c, http.StatusOK, "All payment methods deactivated", gin.H{"deactivated": n})
}

// UploadQR handles a payment QR image upload
// POST /api/v1/payments/upload
func (h *PaymentHandler) UploadQR(c *gin.Context) {
	file, ok := formFile(c, "file", h.uploadService.QRImagePolicy().MaxBytes)
	if !ok {
		return
	}

	url, err := h.paymentService.UploadQR(c.Request.Context(), middleware.GetUserID(c), file)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"url": url})
}

func writeUpsert(c *gin.Context, created bool, message string, data interface{}) {
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.SuccessWithStatus(c, status, message, data)
}

// RegisterRoutes registers payment routes, all of which require a session
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	payments := rg.Group("/payments")
	payments.Use(authMiddleware)
	{
		payments.GET("", h.ListPayments)
		payments.POST("", h.CreatePayment)
		payments.DELETE("", h.DeactivateAll)
		payments.POST("/upi", h.SaveUPI)
		payments.POST("/paypal", h.SavePayPal)
		payments.GET("/settings", h.Settings)
		payments.POST("/upload", h.UploadQR)
	}
}
