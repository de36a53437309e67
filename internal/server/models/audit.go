package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded by the core. One entry is written for every
// state-changing operation on a certificate; AUTO_EXPIRY is a single summary
// entry per sweep.
const (
	ActionIssueCommit   = "ISSUE_COMMIT"
	ActionBulkIssueItem = "BULK_ISSUE_ITEM"
	ActionRevoke        = "REVOKE"
	ActionAutoExpiry    = "AUTO_EXPIRY"
)

// AuditEntry is an append-only record of a state-changing operation.
// TargetID is the certificate's public identifier, or nil for system-wide
// actions such as the expiry sweep summary.
type AuditEntry struct {
	ID        string
	Action    string
	TargetID  *string
	Details   json.RawMessage
	CreatedAt time.Time
}
