package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sfp-api/internal/models"
	"github.com/noah-isme/sfp-api/internal/service"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
	"github.com/noah-isme/sfp-api/pkg/export"
	"github.com/noah-isme/sfp-api/pkg/response"
)

// FeedbackHandler wires the feedback endpoints to the record store.
type FeedbackHandler struct {
	service *service.FeedbackService
}

// NewFeedbackHandler creates a new handler.
func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Create accepts a new feedback submission.
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req service.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	record, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List returns one page of feedback records with pagination metadata.
func (h *FeedbackHandler) List(c *gin.Context) {
	req := service.ListFeedbackRequest{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     intQuery(c, "page"),
		Limit:    intQuery(c, "limit"),
	}

	items, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, pagination)
}

// Get returns a single feedback record.
func (h *FeedbackHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// UpdateStatus transitions a record's workflow status.
func (h *FeedbackHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status       string  `json:"status"`
		AdminComment *string `json:"adminComment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	record, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.AdminComment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Resolve is the legacy endpoint forcing status=resolved.
func (h *FeedbackHandler) Resolve(c *gin.Context) {
	record, err := h.service.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Delete removes a record permanently.
func (h *FeedbackHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export streams the complete filtered record set as CSV (default) or
// PDF, paging through the store until every matching record is collected.
func (h *FeedbackHandler) Export(c *gin.Context) {
	req := service.ListFeedbackRequest{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     1,
		Limit:    200,
	}

	var items []models.FeedbackRecord
	for {
		page, pagination, err := h.service.List(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		items = append(items, page...)
		if len(page) == 0 || len(items) >= pagination.Total {
			break
		}
		req.Page++
	}

	dataset := feedbackDataset(items)
	filename := fmt.Sprintf("feedbacks-%s", time.Now().UTC().Format("20060102-150405"))

	switch c.DefaultQuery("format", "csv") {
	case "pdf":
		payload, err := export.PDF(dataset, "Student Feedback")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	case "csv":
		payload, err := export.CSV(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func feedbackDataset(items []models.FeedbackRecord) export.Dataset {
	headers := []string{"ID", "Category", "Subcategory", "Urgency", "Status", "Text", "Created"}
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"ID":          item.ID,
			"Category":    item.Category,
			"Subcategory": item.Subcategory,
			"Urgency":     item.Urgency,
			"Status":      string(item.Status),
			"Text":        item.Text,
			"Created":     item.CreatedAt.Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func intQuery(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
