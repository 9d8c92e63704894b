package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docfill/internal/domain"
	"docfill/internal/export"
	"docfill/internal/logger"
	"docfill/internal/parser"
	"docfill/internal/service"
	"docfill/internal/session"
)

// multipartOverhead is the allowance on top of the upload limit for multipart
// boundaries and the other form fields.
const multipartOverhead = 1 << 20

// FormHandler handles the document upload, session data and form submission endpoints.
type FormHandler struct {
	forms     service.FormService
	cookies   *session.Cookies
	maxUpload int64
	log       logger.Logger
	now       func() time.Time
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(forms service.FormService, cookies *session.Cookies, maxUpload int64, log logger.Logger) *FormHandler {
	return &FormHandler{
		forms:     forms,
		cookies:   cookies,
		maxUpload: maxUpload,
		log:       log.Named("handler"),
		now:       time.Now,
	}
}

// AnalyzeResponse is the data returned for one analyzed document.
type AnalyzeResponse struct {
	DocumentType  domain.DocumentType `json:"document_type"`
	ExtractedData domain.FieldMap     `json:"extracted_data"`
	Issues        []domain.FieldIssue `json:"issues,omitempty"`
}

// DocumentTypeResponse describes one known document type.
type DocumentTypeResponse struct {
	Tag    domain.DocumentType `json:"tag"`
	Label  string              `json:"label"`
	Fields []string            `json:"fields"`
}

// AnalyzeDocument handles POST /analyze-document
func (h *FormHandler) AnalyzeDocument(c *gin.Context) {
	limit := h.maxUpload + multipartOverhead
	if h.maxUpload > 0 && c.Request.ContentLength > limit {
		HandleError(c, h.log, domain.ErrFileTooLarge)
		return
	}
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	input := service.AnalyzeInput{SessionID: session.ID(c)}

	file, header, err := formFile(c, "document", "file")
	switch {
	case isTooLarge(err):
		HandleError(c, h.log, domain.ErrFileTooLarge)
		return
	case err == nil:
		defer func() { _ = file.Close() }()
		data, readErr := io.ReadAll(io.LimitReader(file, h.readLimit()))
		if readErr != nil {
			if isTooLarge(readErr) {
				HandleError(c, h.log, domain.ErrFileTooLarge)
				return
			}
			HandleError(c, h.log, fmt.Errorf("%w: reading upload: %v", domain.ErrInvalidInput, readErr))
			return
		}
		input.FileBytes = data
		input.FileName = header.Filename
		input.ContentType = header.Header.Get("Content-Type")
	}
	input.DocumentType = firstNonEmpty(c.PostForm("docType"), c.PostForm("documentType"))

	result, err := h.forms.AnalyzeAndStore(c.Request.Context(), input)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	RespondOK(c, fmt.Sprintf("%s uploaded successfully.", result.Label), AnalyzeResponse{
		DocumentType:  result.DocumentType,
		ExtractedData: result.Fields,
		Issues:        result.Issues,
	})
}

// GetSessionData handles GET /get-session-data
func (h *FormHandler) GetSessionData(c *gin.Context) {
	record, ok, err := h.forms.Fetch(c.Request.Context(), session.ID(c))
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, APIResponse{Success: false, Message: "No document data found in session."})
		return
	}
	RespondOK(c, "", record)
}

// ExportSessionData handles GET /get-session-data/export
func (h *FormHandler) ExportSessionData(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	record, ok, err := h.forms.Fetch(c.Request.Context(), session.ID(c))
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	if !ok {
		HandleError(c, h.log, domain.ErrSessionNotFound)
		return
	}

	var buf bytes.Buffer
	if format == export.FormatCSV {
		err = export.WriteCSV(&buf, record)
	} else {
		err = export.WriteXLSX(&buf, record)
	}
	if err != nil {
		HandleError(c, h.log, fmt.Errorf("exporting session data: %w", err))
		return
	}

	filename := export.BuildFilename("session-data", format, h.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// SubmitForm handles POST /submit-form
func (h *FormHandler) SubmitForm(c *gin.Context) {
	if err := h.forms.Finalize(c.Request.Context(), session.ID(c)); err != nil {
		RespondError(c, http.StatusInternalServerError, "SESSION_DESTROY_FAILED", "Could not log out, please try again.")
		return
	}
	h.cookies.Clear(c)
	RespondOK(c, "Form submitted and session destroyed.", nil)
}

// ListDocumentTypes handles GET /document-types
func (h *FormHandler) ListDocumentTypes(c *gin.Context) {
	docs := parser.DocumentTypes()
	out := make([]DocumentTypeResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentTypeResponse{Tag: d.Tag, Label: d.Label, Fields: d.FieldKeys()})
	}
	RespondOK(c, "", out)
}

func (h *FormHandler) readLimit() int64 {
	if h.maxUpload <= 0 {
		return 1<<63 - 1
	}
	// One byte past the limit lets the service report the file as too large.
	return h.maxUpload + 1
}

// formFile returns the first multipart file found under any of names.
func formFile(c *gin.Context, names ...string) (multipart.File, *multipart.FileHeader, error) {
	var lastErr error
	for _, name := range names {
		file, header, err := c.Request.FormFile(name)
		if err == nil {
			return file, header, nil
		}
		lastErr = err
		if !errors.Is(err, http.ErrMissingFile) {
			break
		}
	}
	return nil, nil, lastErr
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return err != nil && errors.As(err, &maxErr)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
