package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vestire/server/internal/shared/response"
)

var orderErrorMappings = []response.ErrorMapping{
	{Err: ErrOrderNotFound, Status: http.StatusNotFound, Code: "ORDER_NOT_FOUND"},
	{Err: ErrOrderPaid, Status: http.StatusConflict, Code: "ORDER_ALREADY_PAID"},
}

// Handler handles HTTP requests for orders.
type Handler struct {
	service *Service
}

// NewHandler creates a new order handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers customer order routes. Extra handlers, such as
// idempotency, run before Checkout.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, checkoutMiddleware ...gin.HandlerFunc) {
	orders := r.Group("/orders")
	{
		orders.POST("", append(checkoutMiddleware, h.Checkout)...)
		orders.GET("/:id", h.GetOrder)
	}
}

// RegisterAdminRoutes registers operator order routes.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetAdminOrder)
	}
}

// Checkout creates a pending order.
//
//	@Summary		Checkout
//	@Description	Create a pending order from cart items
//	@Tags			Order
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string			false	"Idempotency key"
//	@Param			request			body		CheckoutRequest	true	"Checkout request"
//	@Success		201				{object}	OrderResponse
//	@Failure		400				{object}	response.ErrorResponse
//	@Router			/orders [post]
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	order, err := h.service.Checkout(c.Request.Context(), &req)
	if err != nil {
		response.HandleErrorWithDefault(c, err, orderErrorMappings)
		return
	}

	c.JSON(http.StatusCreated, order.ToResponse())
}

// GetOrder returns the customer view of an order.
//
//	@Summary		Get order
//	@Description	Get an order's payment and fulfilment status
//	@Tags			Order
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"
//	@Success		200	{object}	OrderResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleErrorWithDefault(c, err, orderErrorMappings)
		return
	}

	c.JSON(http.StatusOK, order.ToResponse())
}

// ListOrders lists orders for operators.
//
//	@Summary		List orders
//	@Description	List orders with payment filters
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			paymentStatus	query		string	false	"Payment status"
//	@Param			status			query		string	false	"Order status"
//	@Param			page			query		int		false	"Page number"	default(1)
//	@Param			page_size		query		int		false	"Page size"		default(20)
//	@Success		200				{object}	OrderListResponse
//	@Failure		401				{object}	response.ErrorResponse
//	@Router			/admin/orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	var filter OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pagination := NewPagination()
	if err := c.ShouldBindQuery(pagination); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	orders, total, err := h.service.ListOrders(c.Request.Context(), &filter, pagination)
	if err != nil {
		response.InternalError(c, "failed to list orders")
		return
	}

	responses := make([]*AdminOrderResponse, len(orders))
	for i, o := range orders {
		responses[i] = o.ToAdminResponse()
	}

	totalPages := int(total) / pagination.PageSize
	if int(total)%pagination.PageSize > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, OrderListResponse{
		Orders:     responses,
		Total:      total,
		Page:       pagination.Page,
		PageSize:   pagination.PageSize,
		TotalPages: totalPages,
	})
}

// GetAdminOrder returns the operator view of an order.
//
//	@Summary		Get order (admin)
//	@Description	Get an order including provider reference and raw status
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Order ID"
//	@Success		200	{object}	AdminOrderResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/admin/orders/{id} [get]
func (h *Handler) GetAdminOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleErrorWithDefault(c, err, orderErrorMappings)
		return
	}

	c.JSON(http.StatusOK, order.ToAdminResponse())
}
