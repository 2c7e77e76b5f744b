package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"invoicex/internal/domain"
	"invoicex/internal/port"
)

// invoiceRow is the table shape of an invoice; extracted_data is stored as JSONB.
type invoiceRow struct {
	ID            int64          `db:"id"`
	OwnerID       int64          `db:"owner_id"`
	Filename      string         `db:"filename"`
	Filepath      string         `db:"filepath"`
	Status        string         `db:"status"`
	ExtractedData sql.NullString `db:"extracted_data"`
	Confidence    float64        `db:"confidence"`
	ErrorMessage  sql.NullString `db:"error_message"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

const invoiceColumns = `id, owner_id, filename, filepath, status, extracted_data::text AS extracted_data,
	confidence, error_message, created_at, updated_at`

func (row *invoiceRow) toDomain() (*domain.Invoice, error) {
	inv := &domain.Invoice{
		ID:         row.ID,
		OwnerID:    row.OwnerID,
		Filename:   row.Filename,
		Filepath:   row.Filepath,
		Status:     domain.InvoiceStatus(row.Status),
		Confidence: row.Confidence,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.ErrorMessage.Valid {
		msg := row.ErrorMessage.String
		inv.ErrorMessage = &msg
	}
	if row.ExtractedData.Valid && row.ExtractedData.String != "" && row.ExtractedData.String != "null" {
		var data domain.ExtractedData
		if err := json.Unmarshal([]byte(row.ExtractedData.String), &data); err != nil {
			return nil, fmt.Errorf("decoding extracted_data of invoice %d: %w", row.ID, err)
		}
		inv.ExtractedData = &data
	}
	return inv, nil
}

func encodeExtractedData(data *domain.ExtractedData) (sql.NullString, error) {
	if data == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	data, err := encodeExtractedData(inv.ExtractedData)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create encode: %w", err)
	}

	query := `INSERT INTO invoices (owner_id, filename, filepath, status, extracted_data,
		confidence, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9) RETURNING id`

	err = r.db.QueryRowxContext(ctx, query,
		inv.OwnerID, inv.Filename, inv.Filepath, string(inv.Status), data,
		inv.Confidence, nullString(inv.ErrorMessage), inv.CreatedAt, inv.UpdatedAt).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, ownerID, invoiceID int64) (*domain.Invoice, error) {
	var row invoiceRow
	err := r.db.GetContext(ctx, &row,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1 AND owner_id = $2", invoiceID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return row.toDomain()
}

func (r *invoiceRepo) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Invoice, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM invoices WHERE owner_id = $1", ownerID); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListByOwner count: %w", err)
	}

	var rows []invoiceRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+invoiceColumns+` FROM invoices WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListByOwner: %w", err)
	}

	invoices, err := rowsToDomain(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListByOwner: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) ListCompleted(ctx context.Context, ownerID int64) ([]domain.Invoice, error) {
	var rows []invoiceRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+invoiceColumns+` FROM invoices WHERE owner_id = $1 AND status = $2
		 ORDER BY created_at DESC, id DESC`,
		ownerID, string(domain.InvoiceStatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListCompleted: %w", err)
	}

	invoices, err := rowsToDomain(rows)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListCompleted: %w", err)
	}
	return invoices, nil
}

// UpdateState persists status, extracted data, confidence and error message.
func (r *invoiceRepo) UpdateState(ctx context.Context, inv *domain.Invoice) error {
	data, err := encodeExtractedData(inv.ExtractedData)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateState encode: %w", err)
	}

	query := `UPDATE invoices SET status = $1, extracted_data = $2::jsonb, confidence = $3,
		error_message = $4, updated_at = $5
		WHERE id = $6 AND owner_id = $7`

	result, err := r.db.ExecContext(ctx, query,
		string(inv.Status), data, inv.Confidence, nullString(inv.ErrorMessage), inv.UpdatedAt,
		inv.ID, inv.OwnerID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateState: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepo) Delete(ctx context.Context, ownerID, invoiceID int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM invoices WHERE id = $1 AND owner_id = $2", invoiceID, ownerID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func rowsToDomain(rows []invoiceRow) ([]domain.Invoice, error) {
	invoices := make([]domain.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, nil
}
