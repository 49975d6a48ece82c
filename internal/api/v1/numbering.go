package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wrenchworks/docdesk/internal/service"
)

type NumberingHandler struct {
	service service.NumberingService
}

func NewNumberingHandler(service service.NumberingService) *NumberingHandler {
	return &NumberingHandler{service: service}
}

// @Summary Get numbering settings
// @Description Get the numbering settings, the last issued numbers and the numbers the next reservation would take
// @Tags Numbering
// @Produce json
// @Success 200 {object} dto.NumberingResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /numbering [get]
func (h *NumberingHandler) GetNumbering(c *gin.Context) {
	resp, err := h.service.GetNumbering(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
