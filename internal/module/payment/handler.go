package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vestire/server/internal/module/order"
	"github.com/vestire/server/internal/shared/response"
)

var paymentErrorMappings = []response.ErrorMapping{
	{Err: order.ErrOrderNotFound, Status: http.StatusNotFound, Code: "ORDER_NOT_FOUND"},
	{Err: ErrWebhookEventNotFound, Status: http.StatusNotFound, Code: "WEBHOOK_EVENT_NOT_FOUND"},
	{Err: ErrEventNotReplayable, Status: http.StatusConflict, Code: "WEBHOOK_EVENT_NOT_REPLAYABLE"},
}

// Handler handles invoice and status HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers payment routes. Extra handlers, such as
// idempotency, run before both create-invoice endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, createMiddleware ...gin.HandlerFunc) {
	payments := r.Group("/payments")
	{
		payments.POST("/create-invoice", append(createMiddleware, h.CreateInvoice)...)
		payments.POST("/check-status", h.CheckStatus)
		payments.GET("/status", h.GetInvoiceStatus)
		payments.POST("/nowpayments/create-invoice", append(createMiddleware, h.CreateCryptoInvoice)...)
		payments.GET("/nowpayments/status", h.GetCryptoStatus)
	}

	crypto := r.Group("/crypto")
	{
		crypto.GET("/currencies", h.GetCurrencies)
		crypto.GET("/min-amount", h.GetMinAmount)
		crypto.GET("/payment/:id", h.GetCryptoPayment)
	}
}

// CreateInvoice creates a card/bank invoice.
//
//	@Summary		Create invoice
//	@Description	Create a hosted card/bank invoice for an order
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string					false	"Idempotency key"
//	@Param			request			body		CreateInvoiceRequest	true	"Invoice request"
//	@Success		200				{object}	CreateInvoiceResponse
//	@Failure		400				{object}	response.ErrorResponse
//	@Failure		409				{object}	response.ErrorResponse
//	@Failure		500				{object}	response.ErrorResponse
//	@Router			/payments/create-invoice [post]
func (h *Handler) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.service.CreateCardInvoice(c.Request.Context(), &req)
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	c.JSON(http.StatusOK, CreateInvoiceResponse{Success: true, XenditInvoiceResult: res})
}

// CheckStatus re-reads a card/bank invoice and reconciles the order.
//
//	@Summary		Check payment status
//	@Description	Fetch the provider invoice and apply its status to the order
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CheckStatusRequest	true	"Status request"
//	@Success		200		{object}	CheckStatusResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/payments/check-status [post]
func (h *Handler) CheckStatus(c *gin.Context) {
	var req CheckStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.service.CheckStatus(c.Request.Context(), &req)
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetInvoiceStatus returns the mapped status of a card/bank invoice.
//
//	@Summary		Get invoice status
//	@Tags			Payment
//	@Produce		json
//	@Param			invoiceId	query		string	true	"Invoice ID"
//	@Success		200			{object}	XenditInvoiceStatus
//	@Failure		400			{object}	response.ErrorResponse
//	@Router			/payments/status [get]
func (h *Handler) GetInvoiceStatus(c *gin.Context) {
	res, err := h.service.GetXenditInvoice(c.Request.Context(), c.Query("invoiceId"))
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	c.JSON(http.StatusOK, res)
}

// CreateCryptoInvoice creates a crypto invoice.
//
//	@Summary		Create crypto invoice
//	@Description	Create a hosted cryptocurrency invoice for an order
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string						false	"Idempotency key"
//	@Param			request			body		CreateCryptoInvoiceRequest	true	"Invoice request"
//	@Success		200				{object}	CreateCryptoInvoiceResponse
//	@Failure		400				{object}	response.ErrorResponse
//	@Failure		500				{object}	response.ErrorResponse
//	@Router			/payments/nowpayments/create-invoice [post]
func (h *Handler) CreateCryptoInvoice(c *gin.Context) {
	var req CreateCryptoInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	inv, err := h.service.CreateCryptoInvoice(c.Request.Context(), &req)
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	c.JSON(http.StatusOK, CreateCryptoInvoiceResponse{Success: true, Invoice: inv})
}

// GetCryptoStatus returns the mapped status of a crypto payment.
//
//	@Summary		Get crypto payment status
//	@Tags			Payment
//	@Produce		json
//	@Param			invoiceId	query		string	true	"Payment or invoice ID"
//	@Success		200			{object}	CryptoStatusResponse
//	@Failure		400			{object}	response.ErrorResponse
//	@Router			/payments/nowpayments/status [get]
func (h *Handler) GetCryptoStatus(c *gin.Context) {
	status, err := h.service.GetCryptoStatus(c.Request.Context(), c.Query("invoiceId"))
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	c.JSON(http.StatusOK, CryptoStatusResponse{Success: true, Status: status})
}

// GetCurrencies lists accepted crypto currencies.
//
//	@Summary		List crypto currencies
//	@Tags			Crypto
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/crypto/currencies [get]
func (h *Handler) GetCurrencies(c *gin.Context) {
	currencies, err := h.service.GetCurrencies(c.Request.Context())
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "currencies": currencies})
}

// GetMinAmount returns the minimum payable amount for a currency.
//
//	@Summary		Get minimum amount
//	@Tags			Crypto
//	@Produce		json
//	@Param			currency_from	query		string	true	"Pay currency"
//	@Param			currency_to		query		string	false	"Settlement currency"
//	@Success		200				{object}	map[string]interface{}
//	@Failure		400				{object}	response.ErrorResponse
//	@Router			/crypto/min-amount [get]
func (h *Handler) GetMinAmount(c *gin.Context) {
	from := c.Query("currency_from")
	if from == "" {
		response.BadRequest(c, "currency_from is required")
		return
	}

	minAmount, err := h.service.GetMinAmount(c.Request.Context(), from, c.Query("currency_to"))
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "minAmount": minAmount})
}

// GetCryptoPayment returns the provider's crypto payment record.
//
//	@Summary		Get crypto payment
//	@Tags			Crypto
//	@Produce		json
//	@Param			id	path		string	true	"Payment ID"
//	@Success		200	{object}	map[string]interface{}
//	@Router			/crypto/payment/{id} [get]
func (h *Handler) GetCryptoPayment(c *gin.Context) {
	payment, err := h.service.GetCryptoPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "payment": payment})
}
