package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vestire/server/internal/module/order"
	"github.com/vestire/server/internal/shared/response"
)

// AdminHandler exposes the webhook event log to operators.
type AdminHandler struct {
	service *Service
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers admin webhook routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	webhooks := r.Group("/webhooks")
	{
		webhooks.GET("", h.ListWebhookEvents)
		webhooks.POST("/:id/replay", h.ReplayWebhookEvent)
	}
}

// ListWebhookEvents lists stored webhook events.
//
//	@Summary		List webhook events
//	@Description	List received webhooks, use processed=false for the dead-letter view
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			provider	query		string	false	"Provider"
//	@Param			processed	query		bool	false	"Processed"
//	@Param			orderId		query		string	false	"Order ID"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	EventListResponse
//	@Failure		401			{object}	response.ErrorResponse
//	@Router			/admin/webhooks [get]
func (h *AdminHandler) ListWebhookEvents(c *gin.Context) {
	var filter EventFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pagination := order.NewPagination()
	if err := c.ShouldBindQuery(pagination); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	events, total, err := h.service.ListWebhookEvents(c.Request.Context(), &filter, pagination)
	if err != nil {
		response.InternalError(c, "failed to list webhook events")
		return
	}

	totalPages := int(total) / pagination.PageSize
	if int(total)%pagination.PageSize > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, EventListResponse{
		Events:     events,
		Total:      total,
		Page:       pagination.Page,
		PageSize:   pagination.PageSize,
		TotalPages: totalPages,
	})
}

// ReplayWebhookEvent re-processes a failed webhook event.
//
//	@Summary		Replay webhook event
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	ReplayResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Failure		409	{object}	response.ErrorResponse
//	@Router			/admin/webhooks/{id}/replay [post]
func (h *AdminHandler) ReplayWebhookEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	event, result, err := h.service.ReplayWebhookEvent(c.Request.Context(), id)
	if err != nil {
		response.HandleErrorWithDefault(c, err, paymentErrorMappings)
		return
	}

	c.JSON(http.StatusOK, ReplayResponse{
		Success: result.Success,
		Event:   event,
		Result:  result,
	})
}
