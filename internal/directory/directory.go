// Package directory resolves user ids to display information. The activity
// feed only ever sees this interface, so the diff logic stays independent
// of the user store's shape.
package directory

import "context"

// UserRecord is the resolved form of one back-office user.
type UserRecord struct {
	ID          string
	DisplayName string
	Email       string
}

// Lookup batch-resolves user ids. Implementations must answer one call per
// page, never one call per item. Ids that resolve to nothing are simply
// absent from the result map; deleted users are the caller's fallback
// concern.
type Lookup interface {
	BatchGet(ctx context.Context, ids []string) (map[string]UserRecord, error)
}
