// Package models defines the typed records persisted by the certificate
// service. Every store row has an explicit struct here; no dynamic rows.
package models

import "time"

// Profile is the person a certificate is issued to. Rows are created on first
// reference by the identity resolver and never deleted; email is the natural
// key and is unique at the storage layer.
type Profile struct {
	ID        string
	FullName  string
	Email     string
	IsBlocked bool
	CreatedAt time.Time
}
