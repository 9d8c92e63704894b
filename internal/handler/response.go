package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docfill/internal/domain"
	"docfill/internal/logger"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

// RespondError sends an error response with the given status code. The
// message is repeated at the top level for clients that only read "message".
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Message: msg,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "MISSING_INPUT", "File or document type missing."
	case errors.Is(err, domain.ErrInvalidDocumentType):
		return http.StatusBadRequest, "INVALID_DOCUMENT_TYPE", "Document type must be a lowercase tag of letters, digits, '-' or '_'."
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "Unsupported file type; allowed: jpg, png, webp, heic, heif, pdf."
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds maximum allowed size."
	case errors.Is(err, domain.ErrAnalysisFailed):
		return http.StatusInternalServerError, "ANALYSIS_FAILED", "Failed to analyze the document."
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "NO_SESSION_DATA", "No document data found in session."
	case errors.Is(err, domain.ErrSessionOperation):
		return http.StatusInternalServerError, "SESSION_ERROR", "Session storage is unavailable, please try again."
	case errors.Is(err, domain.ErrUnsupportedExportFmt):
		return http.StatusBadRequest, "UNSUPPORTED_EXPORT_FORMAT", "Unsupported export format; allowed: xlsx, csv."
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, log logger.Logger, err error) {
	status, code, msg := MapDomainError(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), log).Error("request failed",
			logger.String("code", code),
			logger.Error(err),
		)
	}
	RespondError(c, status, code, msg)
}
