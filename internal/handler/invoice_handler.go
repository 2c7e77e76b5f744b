package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invoicex/internal/export"
	"invoicex/internal/service"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	exportBaseName = "invoices"
)

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	exportService  service.ExportService
	now            func() time.Time
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService, exportService service.ExportService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		exportService:  exportService,
		now:            time.Now,
	}
}

// Upload handles POST /api/v1/invoices/upload
// @Summary Upload invoices
// @Description Upload one or more invoice files (pdf, jpg, jpeg, png, tiff). Each file is validated and stored independently; the response reports the outcome per file.
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Invoice files (repeatable)"
// @Success 200 {object} Response{data=UploadResponse} "Per-file upload results"
// @Failure 400 {object} ErrorResponseBody "No files provided"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /invoices/upload [post]
func (h *InvoiceHandler) Upload(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "multipart form with files is required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "at least one file is required")
		return
	}

	results, err := h.invoiceService.Upload(c.Request.Context(), service.UploadInput{
		OwnerID: userID,
		Files:   files,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, UploadResponse{Results: results})
}

// List handles GET /api/v1/invoices
// @Summary List invoices
// @Description List the caller's invoices, newest first.
// @Tags invoices
// @Produce json
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Pagination limit" default(20)
// @Success 200 {object} PagedResponse{data=[]domain.InvoiceSummary} "Invoice summaries"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	offset, limit := parsePagination(c)
	invoices, total, err := h.invoiceService.List(c.Request.Context(), userID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/invoices/:id
// @Summary Get invoice
// @Tags invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} Response{data=domain.Invoice} "Invoice with extracted data"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Invoice not found"
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseInvoiceID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.Get(c.Request.Context(), userID, invoiceID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// Delete handles DELETE /api/v1/invoices/:id
// @Summary Delete invoice
// @Description Delete the invoice record and its stored file.
// @Tags invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} Response{data=MessageResponse} "Invoice deleted"
// @Failure 404 {object} ErrorResponseBody "Invoice not found"
// @Security BearerAuth
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseInvoiceID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), userID, invoiceID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, MessageResponse{Message: "Invoice deleted"})
}

// Process handles POST /api/v1/invoices/:id/process
// @Summary Extract invoice data
// @Description Run extraction for the invoice. Extraction failures are recorded on the invoice and reported in the body with status "failed"; the HTTP status stays 200.
// @Tags invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} Response{data=service.ProcessResult} "Extraction outcome"
// @Failure 404 {object} ErrorResponseBody "Invoice not found"
// @Security BearerAuth
// @Router /invoices/{id}/process [post]
func (h *InvoiceHandler) Process(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseInvoiceID(c)
	if !ok {
		return
	}

	result, err := h.invoiceService.Process(c.Request.Context(), userID, invoiceID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// ExportCSV handles GET /api/v1/invoices/export/csv
// @Summary Export completed invoices as CSV
// @Tags invoices
// @Produce text/csv
// @Success 200 {file} file "UTF-8 CSV with BOM"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /invoices/export/csv [get]
func (h *InvoiceHandler) ExportCSV(c *gin.Context) {
	h.export(c, "csv", contentTypeCSV, h.exportService.ExportCSV)
}

// ExportXLSX handles GET /api/v1/invoices/export/xlsx
// @Summary Export completed invoices as an Excel workbook
// @Tags invoices
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "Workbook with one Invoices sheet"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /invoices/export/xlsx [get]
func (h *InvoiceHandler) ExportXLSX(c *gin.Context) {
	h.export(c, "xlsx", contentTypeXLSX, h.exportService.ExportXLSX)
}

// export buffers the document so a failed export still gets a JSON error.
func (h *InvoiceHandler) export(c *gin.Context, ext, contentType string,
	write func(ctx context.Context, ownerID int64, w io.Writer) error) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := write(c.Request.Context(), userID, &buf); err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(exportBaseName, ext, h.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
