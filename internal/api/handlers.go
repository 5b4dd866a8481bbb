package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abdulachik/postcraft/internal/health"
	"github.com/abdulachik/postcraft/internal/pipeline"
)

const (
	serviceName    = "long-text-to-images"
	serviceMessage = "创意加速器 API 服务正在运行"

	defaultBatchLimit = 20
	maxBatchLimit     = 100
	maxSearchK        = 50
)

// Handler serves the HTTP API.
type Handler struct {
	pipeline     *pipeline.Pipeline
	hub          *Hub
	health       *health.Tracker
	defaultStyle string
	version      string
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Detail string `json:"detail"`
}

func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, errorResponse{Detail: detail})
}

// Root reports that the service is up.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": serviceMessage, "version": h.version})
}

// Health reports component health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        h.health.Overall(),
		"service":       serviceName,
		"image_backend": h.pipeline.Backend(),
		"components":    h.health.All(),
	})
}

// AnalyzeText handles POST /api/analyze-text.
func (h *Handler) AnalyzeText(c *gin.Context) {
	var req pipeline.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetail(c, http.StatusBadRequest, fmt.Sprintf("请求格式错误: %v", err))
		return
	}
	if strings.TrimSpace(req.StylePrompt) == "" {
		req.StylePrompt = h.defaultStyle
	}

	res, err := h.pipeline.Analyze(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) {
			abortWithDetail(c, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("analyze text failed", "error", err)
		abortWithDetail(c, http.StatusInternalServerError, fmt.Sprintf("文本分析失败: %v", err))
		return
	}

	c.JSON(http.StatusOK, res)
}

// GenerateImages handles POST /api/generate-images.
func (h *Handler) GenerateImages(c *gin.Context) {
	var req pipeline.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetail(c, http.StatusBadRequest, fmt.Sprintf("请求格式错误: %v", err))
		return
	}

	res, err := h.pipeline.Generate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) {
			abortWithDetail(c, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("generate images failed", "error", err)
		abortWithDetail(c, http.StatusInternalServerError, fmt.Sprintf("图片生成失败: %v", err))
		return
	}

	c.JSON(http.StatusOK, res)
}

// BatchStatus handles GET /api/batch-status/:batch_id.
func (h *Handler) BatchStatus(c *gin.Context) {
	status, err := h.pipeline.BatchStatus(c.Request.Context(), c.Param("batch_id"))
	switch {
	case errors.Is(err, pipeline.ErrBatchNotFound):
		abortWithDetail(c, http.StatusNotFound, "批次不存在")
		return
	case errors.Is(err, pipeline.ErrNoStore):
		abortWithDetail(c, http.StatusServiceUnavailable, "批次存储未启用")
		return
	case err != nil:
		slog.Error("batch status failed", "error", err)
		abortWithDetail(c, http.StatusInternalServerError, fmt.Sprintf("查询批次失败: %v", err))
		return
	}

	c.JSON(http.StatusOK, status)
}

// ListBatches handles GET /api/batches?limit=.
func (h *Handler) ListBatches(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultBatchLimit)))
	if err != nil || limit <= 0 {
		abortWithDetail(c, http.StatusBadRequest, "limit 必须是正整数")
		return
	}
	limit = min(limit, maxBatchLimit)

	batches, err := h.pipeline.RecentBatches(c.Request.Context(), limit)
	switch {
	case errors.Is(err, pipeline.ErrNoStore):
		abortWithDetail(c, http.StatusServiceUnavailable, "批次存储未启用")
		return
	case err != nil:
		slog.Error("list batches failed", "error", err)
		abortWithDetail(c, http.StatusInternalServerError, fmt.Sprintf("查询批次失败: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"batches": batches, "count": len(batches)})
}

// SearchPrompts handles GET /api/prompts/search?q=&k=&mode=text.
func (h *Handler) SearchPrompts(c *gin.Context) {
	k, err := strconv.Atoi(c.DefaultQuery("k", "5"))
	if err != nil || k <= 0 {
		abortWithDetail(c, http.StatusBadRequest, "k 必须是正整数")
		return
	}
	k = min(k, maxSearchK)
	keyword := c.Query("mode") == "text"

	results, err := h.pipeline.SearchPrompts(c.Request.Context(), c.Query("q"), k, keyword)
	switch {
	case errors.Is(err, pipeline.ErrArchiveDisabled):
		abortWithDetail(c, http.StatusServiceUnavailable, "提示词归档未启用")
		return
	case errors.Is(err, pipeline.ErrValidation):
		abortWithDetail(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("prompt search failed", "error", err)
		abortWithDetail(c, http.StatusInternalServerError, fmt.Sprintf("搜索失败: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
