package port

import (
	"context"

	"invoicex/internal/domain"
)

// UserRepository defines the contract for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// InvoiceRepository defines the contract for invoice persistence.
// Every method is scoped by ownerID; a record owned by someone else is reported as not found.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, ownerID, invoiceID int64) (*domain.Invoice, error)
	ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Invoice, int, error)
	ListCompleted(ctx context.Context, ownerID int64) ([]domain.Invoice, error)
	UpdateState(ctx context.Context, inv *domain.Invoice) error
	Delete(ctx context.Context, ownerID, invoiceID int64) error
}
