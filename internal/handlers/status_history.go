package handlers

import (
	"database/sql"
	"time"
)

// recordStatusChange appends one row to the order status history ledger,
// inside the caller's transaction so the status write and its history entry
// commit or roll back together.
//
// oldStatus nil means order creation; changedBy nil means system-generated.
// The caller passes the status it read immediately before the write: when
// that equals newStatus the write was a no-op and nothing is appended.
func (h *Handlers) recordStatusChange(tx *sql.Tx, orderID int64, oldStatus *string, newStatus string, changedBy *int64, notes string, at time.Time) error {
	if oldStatus != nil && *oldStatus == newStatus {
		return nil
	}

	_, err := tx.Exec(`
		INSERT INTO order_status_history (order_id, old_status, new_status, changed_by, changed_at, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		orderID, oldStatus, newStatus, changedBy, at, notes)
	return err
}
