package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/service"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *logger.Logger
}

func NewDashboardHandler(service service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		log:     log,
	}
}

// @Summary Document summary
// @Description Order counts per document state and listing view with outstanding and paid totals
// @Tags Dashboard
// @Produce json
// @Success 200 {object} dto.DocumentSummaryResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /dashboard/documents [get]
func (h *DashboardHandler) GetDocumentSummary(c *gin.Context) {
	resp, err := h.service.GetDocumentSummary(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to build document summary", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
