package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respond writes {success: true, message?, ...payload}.
func respond(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondError maps err onto its status and writes {success: false, message}.
// Internal errors are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err)
	}

	status := appErr.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		util.GetLogger().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	body := gin.H{"success": false, "message": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the request body or answers 400.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondInvalidBody(c, err)
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON that accepts an empty body, whether or not
// the client declared its length.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		respondInvalidBody(c, err)
		return false
	}
	return true
}

func respondInvalidBody(c *gin.Context, err error) {
	respondError(c, apperr.Validation("Invalid request body",
		apperr.FieldError{Field: "body", Message: err.Error()}))
}

func pageRequest(c *gin.Context, defaultLimit int) models.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return models.NewPageRequest(page, limit, defaultLimit)
}

// floatQuery parses an optional numeric query parameter.
func floatQuery(c *gin.Context, name string) (*float64, *apperr.FieldError) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &apperr.FieldError{Field: name, Message: name + " must be a number"}
	}
	return &v, nil
}

// boolQuery parses an optional true/false query parameter.
func boolQuery(c *gin.Context, name string) (*bool, *apperr.FieldError) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &apperr.FieldError{Field: name, Message: name + " must be true or false"}
	}
	return &v, nil
}
