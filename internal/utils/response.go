package utils

import (
	"errors"
	"net/http"

	"patient-intake-server/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// genericFailure is what users see for store and upstream failures. The cause
// is logged, never returned.
const genericFailure = "Something went wrong. Please try again."

// ResponseData represents the structure of a standard API response.
type ResponseData struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Fields  []string    `json:"fields,omitempty"`
}

// Success sends a standard success response.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, ResponseData{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Created sends a standard resource created response.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, ResponseData{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error sends a standard error response.
func Error(c *gin.Context, statusCode int, errorMessage string) {
	c.JSON(statusCode, ResponseData{
		Status:  statusCode,
		Message: "An error occurred",
		Error:   errorMessage,
	})
}

// ErrorWithData is Error with a payload, used when a failed workflow step
// still reports where the session is.
func ErrorWithData(c *gin.Context, statusCode int, errorMessage string, fields []string, data interface{}) {
	c.JSON(statusCode, ResponseData{
		Status:  statusCode,
		Message: "An error occurred",
		Error:   errorMessage,
		Fields:  fields,
		Data:    data,
	})
}

// BadRequest sends a 400 Bad Request error response.
func BadRequest(c *gin.Context, errorMessage string) {
	Error(c, http.StatusBadRequest, errorMessage)
}

// Unauthorized sends a 401 Unauthorized error response.
func Unauthorized(c *gin.Context, errorMessage string) {
	Error(c, http.StatusUnauthorized, errorMessage)
}

// Forbidden sends a 403 Forbidden error response.
func Forbidden(c *gin.Context, errorMessage string) {
	Error(c, http.StatusForbidden, errorMessage)
}

// NotFound sends a 404 Not Found error response.
func NotFound(c *gin.Context, errorMessage string) {
	Error(c, http.StatusNotFound, errorMessage)
}

// Conflict sends a 409 Conflict error response.
func Conflict(c *gin.Context, errorMessage string) {
	Error(c, http.StatusConflict, errorMessage)
}

// InternalServerError sends a 500 Internal Server Error response.
func InternalServerError(c *gin.Context, errorMessage string) {
	Error(c, http.StatusInternalServerError, errorMessage)
}

// ServiceUnavailable sends a 503 Service Unavailable error response.
func ServiceUnavailable(c *gin.Context, errorMessage string) {
	Error(c, http.StatusServiceUnavailable, errorMessage)
}

// Classify maps an error to its HTTP status, the message safe to show and the
// offending fields, if any.
func Classify(err error) (status int, message string, fields []string) {
	var ve *apperrors.ValidationError
	var te *apperrors.InvalidTransitionError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message, ve.Fields
	case errors.As(err, &te):
		return http.StatusConflict, te.Error(), nil
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, err.Error(), nil
	case errors.Is(err, apperrors.ErrSpeechUnavailable):
		return http.StatusServiceUnavailable, err.Error(), nil
	case errors.Is(err, apperrors.ErrCapacity):
		return http.StatusServiceUnavailable, apperrors.ErrCapacity.Error(), nil
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, err.Error(), nil
	case apperrors.IsStore(err):
		return http.StatusBadGateway, genericFailure, nil
	default:
		return http.StatusInternalServerError, genericFailure, nil
	}
}

// FromError sends the response Classify picks for err.
func FromError(c *gin.Context, err error) {
	FromErrorWithData(c, err, nil)
}

// FromErrorWithData is FromError with a payload.
func FromErrorWithData(c *gin.Context, err error, data interface{}) {
	status, message, fields := Classify(err)
	_ = c.Error(err)
	ErrorWithData(c, status, message, fields, data)
}
