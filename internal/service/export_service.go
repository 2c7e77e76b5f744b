package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"invoicex/internal/export"
	"invoicex/internal/port"
)

// ExportService writes a user's completed invoices as downloadable files.
type ExportService interface {
	ExportCSV(ctx context.Context, ownerID int64, w io.Writer) error
	ExportXLSX(ctx context.Context, ownerID int64, w io.Writer) error
}

type exportService struct {
	invoiceRepo port.InvoiceRepository
	log         *zap.Logger
}

// NewExportService creates a new ExportService implementation.
func NewExportService(invoiceRepo port.InvoiceRepository, log *zap.Logger) ExportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &exportService{invoiceRepo: invoiceRepo, log: log}
}

func (s *exportService) ExportCSV(ctx context.Context, ownerID int64, w io.Writer) error {
	invoices, err := s.invoiceRepo.ListCompleted(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("export.CSV: %w", err)
	}

	if _, err := w.Write(export.BOM); err != nil {
		return fmt.Errorf("export.CSV bom: %w", err)
	}
	cw := export.NewCSVWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return fmt.Errorf("export.CSV header: %w", err)
	}
	if err := cw.WriteInvoices(invoices); err != nil {
		return fmt.Errorf("export.CSV rows: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export.CSV flush: %w", err)
	}

	s.log.Info("invoices exported", zap.String("format", "csv"),
		zap.Int64("owner_id", ownerID), zap.Int("rows", len(invoices)))
	return nil
}

func (s *exportService) ExportXLSX(ctx context.Context, ownerID int64, w io.Writer) error {
	invoices, err := s.invoiceRepo.ListCompleted(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("export.XLSX: %w", err)
	}
	if err := export.WriteXLSX(w, invoices); err != nil {
		return fmt.Errorf("export.XLSX: %w", err)
	}

	s.log.Info("invoices exported", zap.String("format", "xlsx"),
		zap.Int64("owner_id", ownerID), zap.Int("rows", len(invoices)))
	return nil
}
