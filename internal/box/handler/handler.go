package handler

import (
	"context"
	"net/http"

	"github.com/fekuna/omnipos-challan-service/internal/box"
	"github.com/fekuna/omnipos-challan-service/internal/box/dto"
	"github.com/fekuna/omnipos-challan-service/internal/httpapi"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/gin-gonic/gin"
)

type BoxHandler struct {
	uc     box.UseCase
	logger logger.ZapLogger
}

func NewBoxHandler(uc box.UseCase, log logger.ZapLogger) *BoxHandler {
	return &BoxHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *BoxHandler) Register(rg *gin.RouterGroup) {
	boxes := rg.Group("/boxes")
	boxes.POST("", h.CreateBox)
	boxes.GET("", h.ListBoxes)
	boxes.GET("/:id", h.GetBox)
	boxes.POST("/:id/colours", h.AddColour)
	boxes.DELETE("/:id/colours/:color", h.RemoveColour)
	boxes.GET("/:id/stock", h.GetStock)
	boxes.GET("/:id/stock/:color", h.GetColorStock)
	boxes.POST("/:id/stock/validate", h.Validate)
	boxes.POST("/:id/stock/add", h.Add)
	boxes.POST("/:id/stock/subtract", h.Subtract)
}

func (h *BoxHandler) CreateBox(c *gin.Context) {
	var input dto.CreateBoxInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpapi.BadRequest(c, err)
		return
	}
	b, err := h.uc.CreateBox(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BoxHandler) ListBoxes(c *gin.Context) {
	page, size := httpapi.Page(c)
	boxes, total, err := h.uc.ListBoxes(c.Request.Context(), &dto.BoxFilters{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, httpapi.ListResponse{Items: boxes, Total: total, Page: page, PageSize: size})
}

func (h *BoxHandler) GetBox(c *gin.Context) {
	b, err := h.uc.GetBox(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BoxHandler) AddColour(c *gin.Context) {
	var input dto.ColourInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpapi.BadRequest(c, err)
		return
	}
	input.BoxID = c.Param("id")
	b, err := h.uc.AddColour(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BoxHandler) RemoveColour(c *gin.Context) {
	b, err := h.uc.RemoveColour(c.Request.Context(), &dto.ColourInput{
		BoxID: c.Param("id"),
		Color: c.Param("color"),
	})
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BoxHandler) GetStock(c *gin.Context) {
	boxID := c.Param("id")
	stock, err := h.uc.GetStock(c.Request.Context(), boxID)
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	total := 0
	for _, q := range stock {
		total += q
	}
	c.JSON(http.StatusOK, dto.StockResponse{BoxID: boxID, QuantityByColor: stock, Total: total})
}

func (h *BoxHandler) GetColorStock(c *gin.Context) {
	boxID := c.Param("id")
	qty, err := h.uc.GetColorStock(c.Request.Context(), boxID, c.Param("color"))
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ColorStockResponse{BoxID: boxID, Color: c.Param("color"), Quantity: qty})
}

func (h *BoxHandler) Validate(c *gin.Context) {
	var requests []dto.StockRequest
	if err := c.ShouldBindJSON(&requests); err != nil {
		httpapi.BadRequest(c, err)
		return
	}
	if err := h.uc.Validate(c.Request.Context(), c.Param("id"), requests); err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *BoxHandler) Add(c *gin.Context) {
	h.mutate(c, h.uc.Add)
}

func (h *BoxHandler) Subtract(c *gin.Context) {
	h.mutate(c, h.uc.Subtract)
}

func (h *BoxHandler) mutate(c *gin.Context, op func(ctx context.Context, input *dto.MutateStockInput) (*model.BoxAudit, error)) {
	var input dto.MutateStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpapi.BadRequest(c, err)
		return
	}
	input.BoxID = c.Param("id")
	input.UserID = httpapi.User(c).UserID

	rec, err := op(c.Request.Context(), &input)
	if err != nil {
		httpapi.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
