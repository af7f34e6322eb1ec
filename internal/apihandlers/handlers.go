package apihandlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"clipseek/internal/app"
	"clipseek/internal/models"
	"clipseek/internal/services"
	"clipseek/internal/store"
)

type APIHandler struct {
	App *app.App
}

func NewAPIHandler(app *app.App) *APIHandler {
	return &APIHandler{App: app}
}

// SearchRequest represents the JSON body for a text search.
type SearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	Threshold  string `json:"threshold"`
}

// SearchResponse is the envelope returned by both search endpoints.
type SearchResponse struct {
	Query        string               `json:"query"`
	Results      []models.SearchMatch `json:"results"`
	TotalResults int                  `json:"total_results"`
}

func (h *APIHandler) HealthHandler(c *gin.Context) {
	indexID, err := h.App.Registry.IndexID(c.Request.Context())
	if err != nil {
		Internal(c, fmt.Sprintf("registry unavailable: %v", err))
		return
	}
	if indexID == "" {
		c.JSON(http.StatusOK, gin.H{"status": "no_index", "message": "no videos ingested yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "index_id": indexID})
}

func (h *APIHandler) SearchHandler(c *gin.Context) {
	if h.App.SearchService == nil {
		Unavailable(c, "search is disabled: provider API key not configured")
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		BadRequest(c, "Missing required 'query' field")
		return
	}

	results, err := h.App.SearchService.SearchText(c.Request.Context(), services.TextSearchParams{
		Query:     req.Query,
		Limit:     req.MaxResults,
		Threshold: models.NormalizeConfidence(req.Threshold),
	})
	if err != nil {
		h.respondSearchError(c, err)
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Query:        req.Query,
		Results:      results,
		TotalResults: len(results),
	})
}

// ImageSearchHandler accepts a multipart form with an "image" file part.
func (h *APIHandler) ImageSearchHandler(c *gin.Context) {
	if h.App.SearchService == nil {
		Unavailable(c, "search is disabled: provider API key not configured")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		BadRequest(c, "Missing required 'image' file part")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		Internal(c, "Failed to read uploaded image: "+err.Error())
		return
	}
	defer file.Close()

	results, err := h.App.SearchService.SearchImage(c.Request.Context(), services.ImageSearchParams{
		Image:     file,
		ImageName: fileHeader.Filename,
		Threshold: models.NormalizeConfidence(c.PostForm("threshold")),
	})
	if err != nil {
		h.respondSearchError(c, err)
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Query:        "image:" + fileHeader.Filename,
		Results:      results,
		TotalResults: len(results),
	})
}

func (h *APIHandler) respondSearchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNoIndex):
		BadRequest(c, "No index found. Ingest videos first.")
	case errors.Is(err, models.ErrInvalidInput):
		BadRequest(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		GatewayTimeout(c, "Provider did not answer before the request deadline")
	case models.IsTransient(err):
		Unavailable(c, "Provider temporarily unavailable, try again: "+err.Error())
	default:
		Internal(c, "Search failed: "+err.Error())
	}
}

func (h *APIHandler) ListVideosHandler(c *gin.Context) {
	videos, err := h.App.Registry.List(c.Request.Context())
	if err != nil {
		Internal(c, "Failed to list videos: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos, "total": len(videos)})
}

// IngestRequest represents the JSON body to enqueue background ingestion.
type IngestRequest struct {
	Filepath string `json:"filepath"`
}

func (h *APIHandler) EnqueueIngestHandler(c *gin.Context) {
	if h.App.IngestService == nil {
		Unavailable(c, "ingestion is disabled: provider API key not configured")
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.Filepath == "" {
		BadRequest(c, "Missing required 'filepath' field")
		return
	}

	jobID, err := h.App.IngestService.EnqueueIngest(c.Request.Context(), req.Filepath)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			BadRequest(c, err.Error())
			return
		}
		Internal(c, "Failed to enqueue ingestion: "+err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "filepath": req.Filepath})
}

// TaskStatusHandler reports the normalized status of one indexing task.
// This is the follow-up surface for callers whose await timed out.
func (h *APIHandler) TaskStatusHandler(c *gin.Context) {
	if h.App.IngestService == nil {
		Unavailable(c, "provider API key not configured")
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		BadRequest(c, "Missing task id")
		return
	}

	info, err := h.App.IngestService.CheckTask(c.Request.Context(), taskID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			NotFound(c, fmt.Sprintf("Task not found: %s", taskID))
		case errors.Is(err, context.DeadlineExceeded):
			GatewayTimeout(c, "Provider did not answer before the request deadline")
		case models.IsTransient(err):
			Unavailable(c, "Provider temporarily unavailable, try again: "+err.Error())
		default:
			Internal(c, "Status check failed: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id":  info.TaskID,
		"video_id": info.VideoID,
		"status":   info.Status,
		"detail":   info.Detail,
	})
}
