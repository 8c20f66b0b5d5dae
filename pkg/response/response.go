package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

// ListEnvelope is the wire contract for paginated collections.
type ListEnvelope struct {
	Data       []models.FeedbackRecord `json:"data"`
	Pagination models.Pagination       `json:"pagination"`
}

// errorEnvelope wraps error payloads.
type errorEnvelope struct {
	Error *appErrors.Error `json:"error"`
}

// JSON sends a success response. Record bodies are emitted directly, not
// wrapped, matching the portal's public contract.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// List sends a paginated collection response.
func List(c *gin.Context, items []models.FeedbackRecord, pagination models.Pagination) {
	if items == nil {
		items = []models.FeedbackRecord{}
	}
	JSON(c, http.StatusOK, ListEnvelope{Data: items, Pagination: pagination})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, errorEnvelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
