package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-challan-service/internal/audit"
	"github.com/fekuna/omnipos-challan-service/internal/audit/dto"
	"github.com/fekuna/omnipos-challan-service/internal/httpapi"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	uc     audit.UseCase
	logger logger.ZapLogger
}

func NewAuditHandler(uc audit.UseCase, log logger.ZapLogger) *AuditHandler {
	return &AuditHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *AuditHandler) Register(rg *gin.RouterGroup) {
	movements := rg.Group("/movements")
	movements.GET("", h.ListMovements)
	movements.GET("/unused", h.ListUnused)
}

func filters(c *gin.Context) *dto.AuditFilters {
	page, size := httpapi.Page(c)
	return &dto.AuditFilters{
		BoxID:     c.Query("box_id"),
		UserID:    c.Query("user_id"),
		Action:    model.AuditAction(c.Query("action")),
		Used:      httpapi.BoolQuery(c, "used"),
		StartDate: httpapi.TimeQuery(c, "start_date"),
		EndDate:   httpapi.TimeQuery(c, "end_date"),
		Page:      page,
		PageSize:  size,
	}
}

func (h *AuditHandler) ListMovements(c *gin.Context) {
	f := filters(c)
	items, total, err := h.uc.ListMovements(c.Request.Context(), f)
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, httpapi.ListResponse{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize})
}

// ListUnused lists the candidates for a new challan.
func (h *AuditHandler) ListUnused(c *gin.Context) {
	f := filters(c)
	items, total, err := h.uc.ListUnused(c.Request.Context(), f)
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, httpapi.ListResponse{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize})
}
