package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wrenchworks/docdesk/internal/api/dto"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/service"
	"github.com/wrenchworks/docdesk/internal/types"
	"github.com/wrenchworks/docdesk/internal/validator"
)

type DocumentHandler struct {
	service service.DocumentService
	log     *logger.Logger
}

func NewDocumentHandler(service service.DocumentService, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		log:     log,
	}
}

// @Summary Reserve document numbers
// @Description Assign an invoice and a protocol number to a completed order. Repeated calls return the numbers already assigned.
// @Tags Documents
// @Produce json
// @Param id path string true "Order ID"
// @Success 201 {object} dto.DocumentResponse
// @Success 200 {object} dto.DocumentResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /orders/{id}/document [post]
func (h *DocumentHandler) ReserveDocumentNumbers(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("order id is required").
			WithHint("Order ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ReserveDocumentNumbers(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusOK
	if resp.Outcome == types.ReservationOutcomeCreated {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

// @Summary Mark an invoice as paid
// @Tags Documents
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} dto.DocumentResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /orders/{id}/document/pay [post]
func (h *DocumentHandler) MarkDocumentPaid(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.MarkDocumentPaid(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get the documents of an order
// @Tags Documents
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} dto.OrderDocumentResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /orders/{id}/document [get]
func (h *DocumentHandler) GetOrderDocument(c *gin.Context) {
	resp, err := h.service.GetOrderDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List orders
// @Description List work orders in the current or the archive view
// @Tags Orders
// @Produce json
// @Param view query string false "current or archive"
// @Success 200 {object} dto.ListOrdersResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /orders [get]
func (h *DocumentHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if err := validator.ValidateRequest(req); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.ListOrders(c.Request.Context(), req.View)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List documents
// @Tags Documents
// @Produce json
// @Param is_paid query bool false "Filter by payment"
// @Success 200 {object} dto.ListDocumentsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var req dto.ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListDocuments(c.Request.Context(), req.ToFilter())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
