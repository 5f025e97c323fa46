package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Export Format
// =============================================================================

// ExportFormat is the document format of a settlement statement.
type ExportFormat string

const (
	// ExportFormatPDF generates a PDF document.
	ExportFormatPDF ExportFormat = "pdf"
)

// String returns the string representation of the format.
func (f ExportFormat) String() string {
	return string(f)
}

// IsValid returns true if the format is a recognized value.
func (f ExportFormat) IsValid() bool {
	return f == ExportFormatPDF
}

// ContentType returns the MIME content type for the format.
func (f ExportFormat) ContentType() string {
	if f == ExportFormatPDF {
		return "application/pdf"
	}
	return "application/octet-stream"
}

// FileExtension returns the file extension for the format.
func (f ExportFormat) FileExtension() string {
	return string(f)
}

// =============================================================================
// Statement Export
// =============================================================================

// StatementExport is a generated settlement statement stored for a report.
type StatementExport struct {
	ID          uuid.UUID
	ReportID    uuid.UUID
	UserID      uuid.UUID
	Format      ExportFormat
	StorageKey  string
	SizeBytes   int64
	TotalAmount int64 // Settlement total printed on the document
	GeneratedAt time.Time
	URL         string // Download URL, resolved by the service
}
