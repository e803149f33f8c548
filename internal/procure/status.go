package procure

import (
	"fmt"
	"strings"

	"fitout/internal"
	"fitout/internal/storage"
)

var statusOrder = []string{internal.ProcPlanned, internal.ProcOrdered, internal.ProcReceived, internal.ProcInstalled}

func ValidStatuses() []string {
	return append([]string(nil), statusOrder...)
}

func IsValidStatus(status string) bool {
	for _, s := range statusOrder {
		if s == status {
			return true
		}
	}
	return false
}

// UpdateStatus validates the target status before touching the row.
// Supplier, PO number and notes ride along when provided.
func UpdateStatus(db *storage.DB, id, status string, supplier, poNumber, notes *string) error {
	if !IsValidStatus(status) {
		return fmt.Errorf("invalid status %q (want one of %s)", status, strings.Join(statusOrder, "|"))
	}
	return db.UpdateProcurementStatus(id, status, supplier, poNumber, notes)
}
