package models

import "time"

// Template is the named credential a certificate represents. Title is the
// natural key; rows auto-created by the resolver keep the supplied attributes
// and are never overwritten by the core.
type Template struct {
	ID            string
	Title         string
	Description   string
	InstitutionID *string
	CreatedAt     time.Time
}
