package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-challan-service/internal/challan"
	"github.com/fekuna/omnipos-challan-service/internal/challan/dto"
	"github.com/fekuna/omnipos-challan-service/internal/httpapi"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/gin-gonic/gin"
)

type ChallanHandler struct {
	uc     challan.UseCase
	logger logger.ZapLogger
}

func NewChallanHandler(uc challan.UseCase, log logger.ZapLogger) *ChallanHandler {
	return &ChallanHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ChallanHandler) Register(rg *gin.RouterGroup) {
	challans := rg.Group("/challans")
	challans.POST("", h.CreateChallan)
	challans.POST("/preview", h.PreviewTotals)
	challans.GET("", h.ListChallans)
	challans.GET("/search", h.SearchChallans)
	challans.GET("/by-number", h.GetChallanByNumber)
	challans.GET("/:id", h.GetChallan)
	challans.POST("/:id/cancel", h.CancelChallan)
}

func (h *ChallanHandler) bindCreate(c *gin.Context) (*dto.CreateChallanInput, bool) {
	var input dto.CreateChallanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpapi.BadRequest(c, err)
		return nil, false
	}
	user := httpapi.User(c)
	input.UserID = user.UserID
	input.Role = user.Role
	return &input, true
}

func (h *ChallanHandler) CreateChallan(c *gin.Context) {
	input, ok := h.bindCreate(c)
	if !ok {
		return
	}
	created, err := h.uc.CreateChallan(c.Request.Context(), input)
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ChallanHandler) PreviewTotals(c *gin.Context) {
	input, ok := h.bindCreate(c)
	if !ok {
		return
	}
	t, err := h.uc.PreviewTotals(c.Request.Context(), input)
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *ChallanHandler) GetChallan(c *gin.Context) {
	ch, err := h.uc.GetChallan(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *ChallanHandler) GetChallanByNumber(c *gin.Context) {
	ch, err := h.uc.GetChallanByNumber(c.Request.Context(), c.Query("number"))
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *ChallanHandler) ListChallans(c *gin.Context) {
	page, size := httpapi.Page(c)
	items, total, err := h.uc.ListChallans(c.Request.Context(), &dto.ChallanFilters{
		FinancialYear: c.Query("financial_year"),
		TaxType:       model.TaxType(c.Query("tax_type")),
		InventoryMode: model.InventoryMode(c.Query("inventory_mode")),
		CreatedBy:     c.Query("created_by"),
		Cancelled:     httpapi.BoolQuery(c, "cancelled"),
		StartDate:     httpapi.TimeQuery(c, "start_date"),
		EndDate:       httpapi.TimeQuery(c, "end_date"),
		Page:          page,
		PageSize:      size,
	})
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, httpapi.ListResponse{Items: items, Total: total, Page: page, PageSize: size})
}

func (h *ChallanHandler) SearchChallans(c *gin.Context) {
	page, size := httpapi.Page(c)
	items, total, err := h.uc.SearchChallans(c.Request.Context(), &dto.SearchInput{
		Query:    c.Query("q"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, httpapi.ListResponse{Items: items, Total: total, Page: page, PageSize: size})
}

func (h *ChallanHandler) CancelChallan(c *gin.Context) {
	var input dto.CancelChallanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpapi.BadRequest(c, err)
		return
	}
	user := httpapi.User(c)
	input.ChallanID = c.Param("id")
	input.UserID = user.UserID
	input.Role = user.Role

	ch, err := h.uc.CancelChallan(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}
