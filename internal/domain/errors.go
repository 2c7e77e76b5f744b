package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDuplicateUser       = errors.New("username or email already registered")
	ErrUnsupportedFileType = errors.New("Invalid file type")
	ErrFileTooLarge        = errors.New("File too large")
	ErrUploadFailed        = errors.New("Upload failed")
	ErrUnsupportedDocument = errors.New("unsupported document")
	ErrDocumentUnreadable  = errors.New("document could not be read")
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrInvalidTransition   = errors.New("invalid invoice status transition")
)
