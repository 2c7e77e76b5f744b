package domain

import (
	"path/filepath"
	"strings"
)

// FileType represents the document formats accepted for upload.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypePNG  FileType = "png"
	FileTypeJPG  FileType = "jpg"
	FileTypeJPEG FileType = "jpeg"
	FileTypeTIFF FileType = "tiff"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"png":  FileTypePNG,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPEG,
	"tiff": FileTypeTIFF,
}

// AllowedFileTypes maps FileType to the content type recorded on storage.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypePNG:  "image/png",
	FileTypeJPG:  "image/jpeg",
	FileTypeJPEG: "image/jpeg",
	FileTypeTIFF: "image/tiff",
}

// FileTypeOf returns the FileType for a filename by case-insensitive
// extension match. The boolean is false for any other extension.
func FileTypeOf(filename string) (FileType, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	ft, ok := AllowedExtensions[ext]
	return ft, ok
}

// IsImage reports whether the file type is sent to the provider as an image.
func (f FileType) IsImage() bool {
	return f != FileTypePDF
}

// InvoiceStatus represents the extraction lifecycle of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending    InvoiceStatus = "pending"
	InvoiceStatusProcessing InvoiceStatus = "processing"
	InvoiceStatusCompleted  InvoiceStatus = "completed"
	InvoiceStatusFailed     InvoiceStatus = "failed"
)

// invoiceTransitions lists the statuses reachable from each status.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending:    {InvoiceStatusProcessing},
	InvoiceStatusProcessing: {InvoiceStatusProcessing, InvoiceStatusCompleted, InvoiceStatusFailed},
	InvoiceStatusCompleted:  {InvoiceStatusProcessing},
	InvoiceStatusFailed:     {InvoiceStatusProcessing},
}

// CanTransition reports whether an invoice may move from one status to another.
func CanTransition(from, to InvoiceStatus) bool {
	for _, s := range invoiceTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
