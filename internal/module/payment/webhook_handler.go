package payment

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vestire/server/internal/module/payment/provider"
	"github.com/vestire/server/internal/shared/response"
	"go.uber.org/zap"
)

// XenditCallbackTokenHeader carries the shared webhook token.
const XenditCallbackTokenHeader = "x-callback-token"

// maxWebhookBody bounds callback bodies read into memory.
const maxWebhookBody = 1 << 20

// WebhookHandler handles provider callbacks.
type WebhookHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(service *Service, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, logger: logger}
}

// RegisterRoutes registers the webhook routes.
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/webhook", h.HandleXenditWebhook)
		payments.GET("/webhook", h.XenditWebhookHealth)
		payments.POST("/nowpayments/webhook", h.HandleNOWPaymentsWebhook)
	}
}

// HandleXenditWebhook handles card/bank invoice callbacks. Every callback
// past authentication is answered with 200.
//
//	@Summary		Xendit webhook
//	@Tags			Webhook
//	@Accept			json
//	@Produce		json
//	@Param			x-callback-token	header		string	false	"Callback token"
//	@Success		200					{object}	WebhookResponse
//	@Failure		401					{object}	response.ErrorResponse
//	@Router			/payments/webhook [post]
func (h *WebhookHandler) HandleXenditWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.String("provider", provider.NameXendit), zap.Error(err))
		c.JSON(http.StatusOK, WebhookResponse{Success: false, Error: "failed to read body"})
		return
	}

	resp, err := h.service.HandleXenditWebhook(c.Request.Context(), c.GetHeader(XenditCallbackTokenHeader), body)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// XenditWebhookHealth lets the provider dashboard probe the endpoint.
//
//	@Summary		Xendit webhook probe
//	@Tags			Webhook
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/payments/webhook [get]
func (h *WebhookHandler) XenditWebhookHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "active", "service": "xendit-webhook"})
}

// HandleNOWPaymentsWebhook handles crypto IPN callbacks.
//
//	@Summary		NOWPayments webhook
//	@Tags			Webhook
//	@Accept			json
//	@Produce		json
//	@Param			x-nowpayments-sig	header		string	false	"IPN signature"
//	@Success		200					{object}	WebhookResponse
//	@Failure		400					{object}	response.ErrorResponse
//	@Failure		401					{object}	response.ErrorResponse
//	@Failure		404					{object}	response.ErrorResponse
//	@Failure		500					{object}	response.ErrorResponse
//	@Router			/payments/nowpayments/webhook [post]
func (h *WebhookHandler) HandleNOWPaymentsWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.String("provider", provider.NameNOWPayments), zap.Error(err))
		response.BadRequest(c, "failed to read body")
		return
	}

	resp, err := h.service.HandleNOWPaymentsWebhook(c.Request.Context(), c.GetHeader(provider.IPNSignatureHeader), body)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
