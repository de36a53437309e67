// Package mint contains the pure functions behind certificate issuance: the
// public identifier format, the tamper-evidence hash, the ledger commit
// signature, and the scannable verification token.
//
// Everything here is deterministic given its inputs (the sequence token aside);
// uniqueness of identifiers is the issuer's job, enforced against the store.
package mint

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/certisafe/certisafe/internal/common"
)

// SequenceLength is the number of base36 characters in the random tail of a
// certificate id.
const SequenceLength = 6

var whitespace = regexp.MustCompile(`\s+`)

// Slug reduces a template title to the 4-character uppercase tag embedded in
// certificate ids: uppercased, whitespace stripped, truncated.
func Slug(title string) string {
	s := []rune(whitespace.ReplaceAllString(strings.ToUpper(title), ""))
	if len(s) > 4 {
		s = s[:4]
	}
	return string(s)
}

// NewCertificateID assembles a public identifier of the form
// CS-<year>-<SLUG>-<sequence>.
func NewCertificateID(title string, issued time.Time, sequence string) string {
	return fmt.Sprintf("CS-%d-%s-%s", issued.Year(), Slug(title), sequence)
}

// RandomSequence generates a fresh sequence token for a certificate id.
func RandomSequence() (string, error) {
	return common.MakeRandBase36String(SequenceLength)
}

// hashPayload fixes the field set and order the data hash binds. Field order
// matters: the digest is computed over the serialized form, and external
// consumers re-derive it from claimed values.
type hashPayload struct {
	CertificateID  string `json:"certificate_id"`
	RecipientEmail string `json:"recipient_email"`
	CourseTitle    string `json:"course_title"`
	IssueDate      string `json:"issue_date"`
}

// IssueDateFormat renders an issue timestamp the way the hash payload expects
// it: millisecond-precision UTC with a literal Z suffix.
func IssueDateFormat(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// DataHash computes the hex-encoded SHA-256 digest binding
// {certificate_id, recipient_email, course_title, issue_date}.
//
// The hash deliberately covers only these four fields; expiry and status live
// outside it, so a revoked certificate still hashes the same. Status is the
// server's word, the hash is the mint-time record.
func DataHash(certificateID, recipientEmail, courseTitle string, issueDate time.Time) (string, error) {
	payload := hashPayload{
		CertificateID:  certificateID,
		RecipientEmail: recipientEmail,
		CourseTitle:    courseTitle,
		IssueDate:      IssueDateFormat(issueDate),
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hashing error: %w", err)
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Signature computes the hex-encoded HMAC-SHA256 ledger commit signature over
// a data hash.
func Signature(signingKey []byte, dataHash string) string {
	mac := hmac.New(sha256.New, signingKey)
	mac.Write([]byte(dataHash))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerificationURL builds the link a scanned QR code resolves to. The link
// carries the public identifier only; the server remains the source of truth
// for hash comparison.
func VerificationURL(baseURL, certificateID string) string {
	return fmt.Sprintf("%s/verify?id=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(certificateID))
}
