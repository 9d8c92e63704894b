package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"docfill/internal/domain"
	"docfill/internal/logger"
	"docfill/internal/metrics"
	"docfill/internal/parser"
	"docfill/internal/port"
)

var docTypePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// AnalyzeInput is the DTO for one document analysis.
type AnalyzeInput struct {
	SessionID    string
	FileName     string
	ContentType  string
	FileBytes    []byte
	DocumentType string
}

// AnalyzeResult is the outcome of a successful analysis.
type AnalyzeResult struct {
	DocumentType domain.DocumentType
	Label        string
	Fields       domain.FieldMap
	Issues       []domain.FieldIssue
	Model        string
}

// AnalysisService turns an uploaded document image into a FieldMap.
type AnalysisService interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeResult, error)
}

// ArchiveTarget is where raw uploads are copied. A nil target disables archiving.
type ArchiveTarget struct {
	Storage port.ObjectStorage
	Bucket  string
}

func (a *ArchiveTarget) enabled() bool {
	return a != nil && a.Storage != nil
}

// archivePrefix is the key prefix holding every upload archived for a session.
func archivePrefix(sessionID string) string {
	return "sessions/" + sessionID + "/"
}

type analysisService struct {
	model    port.VisionModel
	archive  *ArchiveTarget
	maxBytes int64
	metrics  *metrics.Metrics
	log      logger.Logger
}

// NewAnalysisService creates a new AnalysisService implementation.
func NewAnalysisService(
	model port.VisionModel,
	archive *ArchiveTarget,
	maxBytes int64,
	m *metrics.Metrics,
	log logger.Logger,
) AnalysisService {
	return &analysisService{
		model:    model,
		archive:  archive,
		maxBytes: maxBytes,
		metrics:  m,
		log:      log.Named("analysis"),
	}
}

func (s *analysisService) Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeResult, error) {
	docType, fileType, err := s.validate(input)
	if err != nil {
		s.metrics.ObserveAnalysis(metricsLabel(docType), metrics.OutcomeInvalidInput)
		return nil, err
	}
	mimeType := domain.AllowedFileTypes[fileType]

	log := s.log.With(
		logger.String("session_id", input.SessionID),
		logger.String("document_type", docType.String()),
	)

	s.archiveUpload(ctx, log, input, docType, fileType)

	start := time.Now()
	out, err := s.model.Generate(ctx, port.ModelInput{
		Prompt:   parser.BuildPrompt(docType),
		Image:    input.FileBytes,
		MIMEType: mimeType,
	})
	s.metrics.ObserveModelLatency(metricsLabel(docType), time.Since(start))
	if err != nil {
		return nil, s.fail(log, domain.NewAnalysisError(domain.FailureTransport, docType, err))
	}

	fields, err := parser.DecodeFields(out.Text)
	if err != nil {
		return nil, s.fail(log, domain.NewAnalysisError(domain.FailureResponse, docType, err))
	}

	fields, issues, err := parser.CheckFields(docType, fields)
	if err != nil {
		log.Error("field check failed", logger.Error(err))
		issues = nil
	}
	if len(issues) > 0 {
		log.Warn("extracted fields differ from declared set", logger.Any("issues", issues))
	}

	s.metrics.ObserveAnalysis(metricsLabel(docType), metrics.OutcomeSuccess)
	log.Info("document analyzed",
		logger.String("model", out.Model),
		logger.Int("field_count", len(fields)),
	)

	return &AnalyzeResult{
		DocumentType: docType,
		Label:        parser.Label(docType),
		Fields:       fields,
		Issues:       issues,
		Model:        out.Model,
	}, nil
}

// validate rejects bad input before any model call.
func (s *analysisService) validate(input AnalyzeInput) (domain.DocumentType, domain.FileType, error) {
	tag := strings.TrimSpace(input.DocumentType)
	if len(input.FileBytes) == 0 || tag == "" {
		return domain.DocumentType(tag), "", fmt.Errorf("%w: file or document type missing", domain.ErrInvalidInput)
	}
	docType := domain.DocumentType(tag)
	if !docTypePattern.MatchString(tag) {
		return docType, "", fmt.Errorf("%w: %q", domain.ErrInvalidDocumentType, tag)
	}
	if s.maxBytes > 0 && int64(len(input.FileBytes)) > s.maxBytes {
		return docType, "", domain.ErrFileTooLarge
	}

	fileType, ok := detectFileType(input.ContentType, input.FileName, input.FileBytes)
	if !ok {
		return docType, "", domain.ErrUnsupportedFileType
	}
	return docType, fileType, nil
}

// detectFileType trusts a supported declared content type, then falls back to
// sniffing the bytes and finally to the file extension.
func detectFileType(declared, fileName string, data []byte) (domain.FileType, bool) {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		if ft, ok := domain.AllowedContentTypes[strings.ToLower(mediaType)]; ok {
			return ft, true
		}
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if ft, ok := domain.AllowedContentTypes[sniffed]; ok {
		return ft, true
	}
	if isHEIF(data) {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
		if ext == string(domain.FileTypeHEIF) {
			return domain.FileTypeHEIF, true
		}
		return domain.FileTypeHEIC, true
	}

	if declared == "" || strings.HasPrefix(declared, "application/octet-stream") {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
		if ft, ok := domain.AllowedExtensions[ext]; ok {
			return ft, true
		}
	}
	return "", false
}

// isHEIF checks for an ISO-BMFF ftyp box with a HEIF brand.
func isHEIF(data []byte) bool {
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "heim", "heis", "mif1", "msf1":
		return true
	}
	return false
}

func (s *analysisService) fail(log logger.Logger, aerr *domain.AnalysisError) error {
	outcome := metrics.OutcomeTransportError
	if aerr.Kind == domain.FailureResponse {
		outcome = metrics.OutcomeResponseError
	}
	s.metrics.ObserveAnalysis(metricsLabel(aerr.DocumentType), outcome)

	fields := []logger.Field{
		logger.String("failure_kind", string(aerr.Kind)),
		logger.Error(aerr.Err),
	}
	var statusErr *parser.StatusError
	if errors.As(aerr.Err, &statusErr) {
		fields = append(fields,
			logger.Int("status_code", statusErr.StatusCode),
			logger.Bool("rate_limited", statusErr.RateLimited()),
			logger.Bool("unauthorized", statusErr.Unauthorized()),
		)
		if statusErr.RetryAfter > 0 {
			fields = append(fields, logger.Duration("retry_after", statusErr.RetryAfter))
		}
	}
	log.Error("document analysis failed", fields...)
	return aerr
}

func (s *analysisService) archiveUpload(ctx context.Context, log logger.Logger, input AnalyzeInput, docType domain.DocumentType, fileType domain.FileType) {
	if !s.archive.enabled() {
		return
	}
	key := fmt.Sprintf("%s%s/%s.%s", archivePrefix(input.SessionID), docType, uuid.New().String(), fileType)
	_, err := s.archive.Storage.Upload(ctx, port.UploadInput{
		Bucket:      s.archive.Bucket,
		Key:         key,
		Body:        bytes.NewReader(input.FileBytes),
		ContentType: domain.AllowedFileTypes[fileType],
		Size:        int64(len(input.FileBytes)),
	})
	if err != nil {
		log.Warn("archiving upload failed", logger.String("key", key), logger.Error(err))
		return
	}
	log.Debug("upload archived", logger.String("key", key))
}

// metricsLabel keeps label cardinality bounded to catalog types.
func metricsLabel(docType domain.DocumentType) string {
	if _, ok := parser.LookupDocumentType(docType); ok {
		return docType.String()
	}
	return "other"
}
