package payments

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/BRian-210/Karumande/app/config"
	"github.com/BRian-210/Karumande/app/logging"
	"github.com/BRian-210/Karumande/app/models"
	"github.com/BRian-210/Karumande/app/services"
)

// Handler carries the injected collaborators for the payment endpoints.
type Handler struct {
	store    Store
	gateway  Gateway
	cfg      config.DarajaConfig
	validate *validator.Validate
}

func NewHandler(store Store, gateway Gateway, cfg config.DarajaConfig) *Handler {
	return &Handler{
		store:    store,
		gateway:  gateway,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// InitiatePaymentAPI starts an STK push for a student's fees. The pending
// payment is written before the gateway call so a crash mid-call still
// leaves a reconcilable record; no lock is held across the network round
// trip.
func (h *Handler) InitiatePaymentAPI(c *fiber.Ctx) error {
	type InitiateRequest struct {
		StudentID string  `json:"student_id" validate:"required,uuid"`
		BillID    *string `json:"bill_id,omitempty" validate:"omitempty,uuid"`
		Phone     string  `json:"phone" validate:"required"`
		Amount    float64 `json:"amount" validate:"required,gt=0"`
	}

	var req InitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if !services.ValidAmount(req.Amount) {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid amount"})
	}

	user := c.Locals("user").(*models.User)

	student, err := h.store.GetStudentByID(req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).JSON(fiber.Map{"error": "Student not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}

	// A parent may only pay for their own children; staff may pay for any.
	if !user.HasRole("admin") && !user.HasRole("teacher") {
		guardians, err := h.store.GetStudentGuardianUserIDs(student.ID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Database error"})
		}
		allowed := false
		for _, id := range guardians {
			if id == user.ID {
				allowed = true
				break
			}
		}
		if !allowed {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden"})
		}
	}

	accountReference := h.cfg.AccountReference
	if req.BillID != nil {
		bill, err := h.store.GetBillByID(*req.BillID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.Status(404).JSON(fiber.Map{"error": "Bill not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": "Database error"})
		}
		if bill.StudentID != student.ID {
			return c.Status(400).JSON(fiber.Map{"error": "Bill does not belong to this student"})
		}
		accountReference = bill.ID
	}

	normalizedPhone := services.NormalizePhone(req.Phone)

	payment := &models.Payment{
		StudentID: student.ID,
		BillID:    req.BillID,
		Phone:     normalizedPhone,
		Amount:    req.Amount,
		Status:    models.PaymentPending,
	}
	if err := h.store.CreatePayment(payment); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create payment"})
	}

	stkRes, err := h.gateway.STKPush(c.Context(), services.STKPushRequest{
		Phone:            normalizedPhone,
		Amount:           req.Amount,
		AccountReference: accountReference,
		Description:      "Fees payment",
	})
	if err != nil {
		var gerr *services.GatewayError
		var aerr *services.AuthError
		switch {
		case errors.As(err, &aerr):
			logging.GetLogger().Error("payment initiation failed: gateway authentication",
				zap.String("payment_id", payment.ID), zap.Error(err))
			if err := h.store.MarkPaymentFailed(payment.ID); err != nil {
				logging.GetLogger().Error("failed to mark payment failed",
					zap.String("payment_id", payment.ID), zap.Error(err))
			}
		case errors.As(err, &gerr):
			logging.GetLogger().Warn("payment initiation declined by gateway",
				zap.String("payment_id", payment.ID),
				zap.String("error_code", gerr.Code),
				zap.String("error_message", gerr.Message),
			)
			if err := h.store.MarkPaymentFailed(payment.ID); err != nil {
				logging.GetLogger().Error("failed to mark declined payment failed",
					zap.String("payment_id", payment.ID), zap.Error(err))
			}
		default:
			// Provider unreachable. The payment is marked failed so staff
			// can retry with a fresh initiation, unless configured to keep
			// it pending for the callback that may still arrive.
			logging.GetLogger().Error("payment initiation failed to reach gateway",
				zap.String("payment_id", payment.ID), zap.Error(err))
			if !h.cfg.PendingOnNetworkError {
				if err := h.store.MarkPaymentFailed(payment.ID); err != nil {
					logging.GetLogger().Error("failed to mark payment failed",
						zap.String("payment_id", payment.ID), zap.Error(err))
				}
			}
		}
		return c.Status(502).JSON(fiber.Map{"error": "Payment could not be initiated"})
	}

	if err := h.store.SetPaymentCorrelation(payment.ID, stkRes.MerchantRequestID, stkRes.CheckoutRequestID); err != nil {
		logging.GetLogger().Error("failed to store payment correlation ids",
			zap.String("payment_id", payment.ID),
			zap.String("checkout_request_id", stkRes.CheckoutRequestID),
			zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "Failed to record payment"})
	}
	payment.MerchantRequestID = &stkRes.MerchantRequestID
	payment.CheckoutRequestID = &stkRes.CheckoutRequestID

	return c.Status(201).JSON(fiber.Map{
		"message": "Payment initiated",
		"payment": payment,
	})
}

// darajaEnvelope is the provider's callback payload shape.
type darajaEnvelope struct {
	Body struct {
		StkCallback *struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  *struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// DarajaCallbackAPI receives the provider's asynchronous payment result.
// Deliveries are unordered and at-least-once; replays are acknowledged with
// 200 but only the first pending-to-success transition credits the bill.
func (h *Handler) DarajaCallbackAPI(c *fiber.Ctx) error {
	log := logging.GetLogger()

	source := resolveSourceIP(c.Get("X-Forwarded-For"), c.IP())
	if !isOriginAllowed(h.cfg.AllowedIPs, source) {
		log.Warn("payment callback rejected: origin not allowed", zap.String("source", source))
		return c.Status(403).JSON(fiber.Map{"error": "Forbidden"})
	}
	if len(h.cfg.AllowedIPs) == 0 {
		log.Warn("payment callback accepted without origin check; DARAJA_ALLOWED_IPS is not set",
			zap.String("source", source))
	}

	rawBody := c.Body()
	signature := c.Get("X-Daraja-Signature")
	if signature == "" {
		signature = c.Get("X-Mpesa-Signature")
	}
	if !verifySignature(h.cfg.CallbackSecret, rawBody, signature) {
		log.Warn("payment callback rejected: invalid signature", zap.String("source", source))
		return c.Status(403).JSON(fiber.Map{"error": "Invalid signature"})
	}
	if h.cfg.CallbackSecret == "" {
		log.Warn("payment callback accepted without signature verification; DARAJA_CALLBACK_SECRET is not set")
	}

	var envelope darajaEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil || envelope.Body.StkCallback == nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid callback payload"})
	}
	callback := envelope.Body.StkCallback

	status := models.PaymentFailed
	if callback.ResultCode == 0 {
		status = models.PaymentSuccess
	}

	outcome := models.TerminalOutcome{
		MerchantRequestID: callback.MerchantRequestID,
		CheckoutRequestID: callback.CheckoutRequestID,
		Status:            status,
		RawCallback:       json.RawMessage(rawBody),
	}
	if callback.CallbackMetadata != nil {
		for _, item := range callback.CallbackMetadata.Item {
			switch item.Name {
			case "Amount":
				if v, ok := item.Value.(float64); ok {
					outcome.Amount = &v
				}
			case "MpesaReceiptNumber":
				if v, ok := item.Value.(string); ok {
					outcome.TransactionID = &v
				}
			}
		}
	}

	payment, firstSuccess, err := h.store.ApplyTerminalOutcome(outcome)
	if err != nil {
		log.Error("failed to apply payment callback",
			zap.String("checkout_request_id", callback.CheckoutRequestID), zap.Error(err))
		// Non-2xx so the provider retries the delivery.
		return c.Status(500).JSON(fiber.Map{"error": "Failed to process callback"})
	}

	if payment.StudentID == "" {
		log.Warn("payment callback matched no initiated payment; recorded without a bill",
			zap.String("checkout_request_id", callback.CheckoutRequestID),
			zap.String("payment_id", payment.ID),
			zap.String("status", string(payment.Status)))
	}

	if firstSuccess && payment.BillID != nil {
		bill, err := h.store.CreditBillPayment(*payment.BillID, payment.Amount)
		if err != nil {
			log.Error("failed to credit bill for successful payment",
				zap.String("payment_id", payment.ID),
				zap.String("bill_id", *payment.BillID), zap.Error(err))
			return c.Status(500).JSON(fiber.Map{"error": "Failed to process callback"})
		}
		log.Info("bill credited from payment callback",
			zap.String("payment_id", payment.ID),
			zap.String("bill_id", bill.ID),
			zap.Float64("amount", payment.Amount),
			zap.Float64("balance", bill.Balance),
			zap.String("bill_status", string(bill.Status)))
	} else if !firstSuccess && payment.Status == models.PaymentSuccess {
		log.Debug("duplicate success callback acknowledged without bill update",
			zap.String("payment_id", payment.ID))
	}

	return c.JSON(fiber.Map{
		"received": true,
		"status":   payment.Status,
	})
}

// ConfirmPaymentAPI is the staff-only manual equivalent of the callback
// path, used when no callback arrived (e.g., provider outage).
func (h *Handler) ConfirmPaymentAPI(c *fiber.Ctx) error {
	type ConfirmRequest struct {
		Status string   `json:"status" validate:"required,oneof=success failed"`
		Amount *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	}

	var req ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	paymentID := c.Params("id")

	payment, firstSuccess, err := h.store.ConfirmPaymentManually(paymentID, models.PaymentStatus(req.Status), req.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update payment"})
	}

	if firstSuccess && payment.BillID != nil {
		if _, err := h.store.CreditBillPayment(*payment.BillID, payment.Amount); err != nil {
			logging.GetLogger().Error("failed to credit bill for manually confirmed payment",
				zap.String("payment_id", payment.ID),
				zap.String("bill_id", *payment.BillID), zap.Error(err))
			return c.Status(500).JSON(fiber.Map{"error": "Payment updated but bill credit failed"})
		}
	}

	logging.GetLogger().Info("payment manually confirmed",
		zap.String("payment_id", payment.ID),
		zap.String("status", string(payment.Status)),
		zap.String("confirmed_by", c.Locals("user_id").(string)))

	return c.JSON(payment)
}

// GetPaymentAPI returns one payment. Parents only see payments for students
// they are linked to.
func (h *Handler) GetPaymentAPI(c *fiber.Ctx) error {
	payment, err := h.store.GetPaymentByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}

	user := c.Locals("user").(*models.User)
	if !user.HasRole("admin") && !user.HasRole("teacher") {
		if payment.StudentID == "" || !h.isGuardianOf(user.ID, payment.StudentID) {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden"})
		}
	}

	return c.JSON(payment)
}

// GetPaymentsAPI lists payments for a student.
func (h *Handler) GetPaymentsAPI(c *fiber.Ctx) error {
	studentID := c.Query("student_id")
	if studentID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "student_id is required"})
	}

	user := c.Locals("user").(*models.User)
	if !user.HasRole("admin") && !user.HasRole("teacher") && !h.isGuardianOf(user.ID, studentID) {
		return c.Status(403).JSON(fiber.Map{"error": "Forbidden"})
	}

	payments, err := h.store.GetPaymentsByStudent(studentID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch payments"})
	}

	return c.JSON(fiber.Map{
		"payments": payments,
		"count":    len(payments),
	})
}

func (h *Handler) isGuardianOf(userID, studentID string) bool {
	guardians, err := h.store.GetStudentGuardianUserIDs(studentID)
	if err != nil {
		return false
	}
	for _, id := range guardians {
		if id == userID {
			return true
		}
	}
	return false
}
