package domain

import (
	"fmt"
	"time"
)

// NewInvoice returns an invoice awaiting extraction. Uploads skip pending:
// processing means the current attempt is either queued behind an explicit
// process call or in flight.
func NewInvoice(ownerID int64, filename, location string, now time.Time) *Invoice {
	return &Invoice{
		OwnerID:   ownerID,
		Filename:  filename,
		Filepath:  location,
		Status:    InvoiceStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (inv *Invoice) transition(to InvoiceStatus, now time.Time) error {
	if !CanTransition(inv.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, to)
	}
	inv.Status = to
	inv.UpdatedAt = now
	return nil
}

// BeginProcessing starts a new extraction attempt.
func (inv *Invoice) BeginProcessing(now time.Time) error {
	return inv.transition(InvoiceStatusProcessing, now)
}

// Complete records a successful attempt. Any error left by an earlier attempt is cleared.
func (inv *Invoice) Complete(data *ExtractedData, confidence float64, now time.Time) error {
	if err := inv.transition(InvoiceStatusCompleted, now); err != nil {
		return err
	}
	if data == nil {
		data = &ExtractedData{}
	}
	inv.ExtractedData = data
	inv.Confidence = clampConfidence(confidence)
	inv.ErrorMessage = nil
	return nil
}

// Fail records a failed attempt. Data and confidence from a prior
// successful attempt are kept.
func (inv *Invoice) Fail(message string, now time.Time) error {
	if err := inv.transition(InvoiceStatusFailed, now); err != nil {
		return err
	}
	inv.ErrorMessage = &message
	return nil
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
