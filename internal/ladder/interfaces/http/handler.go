package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/dexladder/internal/ladder/application"
	"github.com/wyfcoding/dexladder/pkg/logger"
)

// LadderHandler 梯级状态 HTTP 处理器
// 只读读模型、挂单流水与账户概览
type LadderHandler struct {
	query *application.LadderQueryService
}

// NewLadderHandler 创建 HTTP 处理器实例
func NewLadderHandler(query *application.LadderQueryService) *LadderHandler {
	return &LadderHandler{query: query}
}

// RegisterRoutes 注册路由
func (h *LadderHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/ladders", h.ListLadders)
		api.GET("/ladders/:symbol", h.GetLadder)
		api.GET("/placements", h.ListPlacements)
		api.GET("/account", h.GetAccount)
	}
}

// Health 存活检查
func (h *LadderHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListLadders 全部交易对的梯级状态
func (h *LadderHandler) ListLadders(c *gin.Context) {
	ladders, err := h.query.ListLadders(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list ladders", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ladders})
}

// GetLadder 单个交易对的梯级状态
func (h *LadderHandler) GetLadder(c *gin.Context) {
	symbol := c.Param("symbol")
	ladder, err := h.query.GetLadder(c.Request.Context(), symbol)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get ladder", "symbol", symbol, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ladder == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ladder not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ladder})
}

// ListPlacements 最近的挂单流水
func (h *LadderHandler) ListPlacements(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	placements, err := h.query.ListPlacements(c.Request.Context(), symbol, limit)
	if errors.Is(err, application.ErrPlacementsUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list placements", "symbol", symbol, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": placements})
}

// GetAccount 最近一次账户余额与委托概览
func (h *LadderHandler) GetAccount(c *gin.Context) {
	account, err := h.query.GetAccount()
	if errors.Is(err, application.ErrAccountStatusUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get account status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": account})
}
