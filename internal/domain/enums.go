package domain

// FileType represents the upload formats the vision model accepts.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeJPG  FileType = "jpg"
	FileTypePNG  FileType = "png"
	FileTypeWEBP FileType = "webp"
	FileTypeHEIC FileType = "heic"
	FileTypeHEIF FileType = "heif"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypeJPG:  "image/jpeg",
	FileTypePNG:  "image/png",
	FileTypeWEBP: "image/webp",
	FileTypeHEIC: "image/heic",
	FileTypeHEIF: "image/heif",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/jpg":       FileTypeJPG,
	"image/png":       FileTypePNG,
	"image/webp":      FileTypeWEBP,
	"image/heic":      FileTypeHEIC,
	"image/heif":      FileTypeHEIF,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"webp": FileTypeWEBP,
	"heic": FileTypeHEIC,
	"heif": FileTypeHEIF,
}

// AnalysisFailureKind tells apart the two ways a model round-trip can fail.
// Both surface to the client as the same generic failure.
type AnalysisFailureKind string

const (
	// FailureTransport covers network errors, non-success statuses and quota or auth rejections.
	FailureTransport AnalysisFailureKind = "transport"
	// FailureResponse covers model output that is not a JSON object after fence stripping.
	FailureResponse AnalysisFailureKind = "response"
)

// FieldIssueKind classifies a mismatch between extracted keys and the declared field set.
type FieldIssueKind string

const (
	FieldIssueMissing    FieldIssueKind = "missing"
	FieldIssueUnexpected FieldIssueKind = "unexpected"
)
