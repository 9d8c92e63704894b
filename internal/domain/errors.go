package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidDocumentType  = errors.New("invalid document type")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrAnalysisFailed       = errors.New("document analysis failed")
	ErrSessionOperation     = errors.New("session operation failed")
	ErrSessionNotFound      = errors.New("session not found")
	ErrUnsupportedExportFmt = errors.New("unsupported export format")
)

// AnalysisError is returned when the external model could not produce a usable
// field map. Kind is kept for logs and metrics only; clients see one message.
type AnalysisError struct {
	Kind         AnalysisFailureKind
	DocumentType DocumentType
	Err          error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyzing %s (%s failure): %v", e.DocumentType, e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAnalysisFailed) hold for every AnalysisError.
func (e *AnalysisError) Is(target error) bool {
	return target == ErrAnalysisFailed
}

// NewAnalysisError wraps err as an analysis failure of the given kind.
func NewAnalysisError(kind AnalysisFailureKind, docType DocumentType, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, DocumentType: docType, Err: err}
}

// WrapError preserves a sentinel kind while adding operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}
