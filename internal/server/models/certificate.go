package models

import "time"

// Certificate status values. Transitions go valid→revoked or valid→expired;
// both are terminal.
const (
	StatusValid   = "valid"
	StatusRevoked = "revoked"
	StatusExpired = "expired"
)

// Certificate is the ledger row for one issued certificate.
//
// CertificateID is the public, globally unique identifier; DataHash binds
// {certificate_id, recipient_email, course_title, issue_date} at mint time and
// is never recomputed. QRCode holds the encoded verification token (a PNG
// data URL wrapping the verification link).
type Certificate struct {
	ID               string
	CertificateID    string
	ProfileID        string
	TemplateID       string
	InstitutionID    *string
	IssueDate        time.Time
	ExpiryDate       *time.Time
	Status           string
	RevocationReason *string
	DataHash         string
	QRCode           string
	CreatedAt        time.Time
}

// CertificateSnapshot is the denormalized read model returned by verification:
// the certificate row joined with its profile and template.
type CertificateSnapshot struct {
	CertificateID    string
	IssueDate        time.Time
	ExpiryDate       *time.Time
	Status           string
	RevocationReason *string
	DataHash         string
	QRCode           string
	FullName         string
	Email            string
	TemplateTitle    string
}
