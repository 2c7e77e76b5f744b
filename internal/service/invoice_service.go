package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"invoicex/internal/domain"
	"invoicex/internal/port"
)

// Per-file upload outcomes.
const (
	UploadStatusUploaded = "uploaded"
	UploadStatusFailed   = "failed"
)

const defaultMaxFileSizeMB = 50

// UploadInput is the DTO for batch uploads.
type UploadInput struct {
	OwnerID int64
	Files   []*multipart.FileHeader
}

// UploadResult reports what happened to one file of a batch.
type UploadResult struct {
	ID       *int64 `json:"id,omitempty"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// ProcessResult is the outcome of one extraction attempt.
type ProcessResult struct {
	Status     domain.InvoiceStatus  `json:"status"`
	Data       *domain.ExtractedData `json:"data,omitempty"`
	Confidence *float64              `json:"confidence,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// InvoiceServiceConfig holds the limits applied by the invoice service.
type InvoiceServiceConfig struct {
	MaxFileSizeMB  int64
	ProcessTimeout time.Duration
}

// InvoiceService defines the invoice management contract.
type InvoiceService interface {
	Upload(ctx context.Context, input UploadInput) ([]UploadResult, error)
	List(ctx context.Context, ownerID int64, offset, limit int) ([]domain.InvoiceSummary, int, error)
	Get(ctx context.Context, ownerID, invoiceID int64) (*domain.Invoice, error)
	Delete(ctx context.Context, ownerID, invoiceID int64) error
	Process(ctx context.Context, ownerID, invoiceID int64) (*ProcessResult, error)
}

type invoiceService struct {
	invoiceRepo    port.InvoiceRepository
	store          port.DocumentStore
	extractor      port.InvoiceExtractor
	maxFileBytes   int64
	processTimeout time.Duration
	log            *zap.Logger
	now            func() time.Time
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	store port.DocumentStore,
	extractor port.InvoiceExtractor,
	cfg InvoiceServiceConfig,
	log *zap.Logger,
) InvoiceService {
	if log == nil {
		log = zap.NewNop()
	}
	maxMB := cfg.MaxFileSizeMB
	if maxMB <= 0 {
		maxMB = defaultMaxFileSizeMB
	}
	timeout := cfg.ProcessTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &invoiceService{
		invoiceRepo:    invoiceRepo,
		store:          store,
		extractor:      extractor,
		maxFileBytes:   maxMB * 1024 * 1024,
		processTimeout: timeout,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *invoiceService) Upload(ctx context.Context, input UploadInput) ([]UploadResult, error) {
	results := make([]UploadResult, 0, len(input.Files))
	for _, fh := range input.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, s.uploadOne(ctx, input.OwnerID, fh))
	}
	return results, nil
}

func (s *invoiceService) uploadOne(ctx context.Context, ownerID int64, fh *multipart.FileHeader) UploadResult {
	result := UploadResult{Filename: fh.Filename, Status: UploadStatusFailed}

	ft, ok := domain.FileTypeOf(fh.Filename)
	if !ok {
		result.Error = domain.ErrUnsupportedFileType.Error()
		return result
	}
	if fh.Size > s.maxFileBytes {
		result.Error = domain.ErrFileTooLarge.Error()
		return result
	}

	f, err := fh.Open()
	if err != nil {
		s.log.Error("invoice.Upload: opening multipart file", zap.String("filename", fh.Filename), zap.Error(err))
		result.Error = domain.ErrUploadFailed.Error()
		return result
	}
	defer f.Close()

	now := s.now()
	key := fmt.Sprintf("%d_%d_%s", ownerID, now.UnixNano(), sanitizeBasename(fh.Filename))
	location, err := s.store.Save(ctx, port.SaveInput{
		Key:         key,
		Body:        f,
		ContentType: domain.AllowedFileTypes[ft],
		Size:        fh.Size,
	})
	if err != nil {
		s.log.Error("invoice.Upload: storing file", zap.String("key", key), zap.Error(err))
		result.Error = domain.ErrUploadFailed.Error()
		return result
	}

	inv := domain.NewInvoice(ownerID, fh.Filename, location, now)
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		s.log.Error("invoice.Upload: creating record", zap.String("key", key), zap.Error(err))
		if delErr := s.store.Delete(context.WithoutCancel(ctx), location); delErr != nil {
			s.log.Warn("invoice.Upload: removing orphaned file", zap.String("location", location), zap.Error(delErr))
		}
		result.Error = domain.ErrUploadFailed.Error()
		return result
	}

	s.log.Info("invoice uploaded",
		zap.Int64("invoice_id", inv.ID),
		zap.Int64("owner_id", ownerID),
		zap.String("location", location))

	id := inv.ID
	result.ID = &id
	result.Status = UploadStatusUploaded
	return result
}

func (s *invoiceService) List(ctx context.Context, ownerID int64, offset, limit int) ([]domain.InvoiceSummary, int, error) {
	invoices, total, err := s.invoiceRepo.ListByOwner(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("invoice.List: %w", err)
	}
	summaries := make([]domain.InvoiceSummary, 0, len(invoices))
	for i := range invoices {
		summaries = append(summaries, invoices[i].Summary())
	}
	return summaries, total, nil
}

func (s *invoiceService) Get(ctx context.Context, ownerID, invoiceID int64) (*domain.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, ownerID, invoiceID)
}

// Delete removes the record and then its stored file. A file that cannot be
// removed is logged and left behind.
func (s *invoiceService) Delete(ctx context.Context, ownerID, invoiceID int64) error {
	inv, err := s.invoiceRepo.GetByID(ctx, ownerID, invoiceID)
	if err != nil {
		return err
	}
	if err := s.invoiceRepo.Delete(ctx, ownerID, invoiceID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, inv.Filepath); err != nil {
		s.log.Warn("invoice.Delete: removing stored file",
			zap.Int64("invoice_id", invoiceID),
			zap.String("location", inv.Filepath),
			zap.Error(err))
	}
	return nil
}

// Process runs one extraction attempt. An extraction failure is recorded on
// the invoice and reported in the result, not returned as an error.
func (s *invoiceService) Process(ctx context.Context, ownerID, invoiceID int64) (*ProcessResult, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := inv.BeginProcessing(s.now()); err != nil {
		return nil, fmt.Errorf("invoice.Process: %w", err)
	}
	if err := s.invoiceRepo.UpdateState(ctx, inv); err != nil {
		return nil, fmt.Errorf("invoice.Process begin: %w", err)
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.processTimeout)
	data, confidence, extractErr := s.extractor.Extract(extractCtx, inv.Filepath)
	cancel()

	// The outcome is persisted even when the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)

	if extractErr != nil {
		msg := extractErr.Error()
		if err := inv.Fail(msg, s.now()); err != nil {
			return nil, fmt.Errorf("invoice.Process: %w", err)
		}
		if err := s.invoiceRepo.UpdateState(persistCtx, inv); err != nil {
			return nil, fmt.Errorf("invoice.Process fail: %w", err)
		}
		s.log.Warn("invoice extraction failed",
			zap.Int64("invoice_id", inv.ID),
			zap.Bool("provider_error", errors.Is(extractErr, domain.ErrExtractionFailed)),
			zap.Error(extractErr))
		return &ProcessResult{Status: domain.InvoiceStatusFailed, Error: msg}, nil
	}

	if err := inv.Complete(data, confidence, s.now()); err != nil {
		return nil, fmt.Errorf("invoice.Process: %w", err)
	}
	if err := s.invoiceRepo.UpdateState(persistCtx, inv); err != nil {
		return nil, fmt.Errorf("invoice.Process complete: %w", err)
	}
	s.log.Info("invoice extraction completed",
		zap.Int64("invoice_id", inv.ID),
		zap.Float64("confidence", inv.Confidence))

	conf := inv.Confidence
	return &ProcessResult{
		Status:     domain.InvoiceStatusCompleted,
		Data:       inv.ExtractedData,
		Confidence: &conf,
	}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeBasename strips any directory part and replaces characters that are
// unsafe in storage keys.
func sanitizeBasename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == ".." {
		return "file"
	}
	return base
}
