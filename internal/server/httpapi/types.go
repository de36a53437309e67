package httpapi

// issueRequest is the JSON body of POST /api/issue and of each bulk row.
type issueRequest struct {
	RecipientName  string  `json:"recipient_name"`
	RecipientEmail string  `json:"recipient_email"`
	CourseTitle    string  `json:"course_title"`
	ExpiryDate     *string `json:"expiry_date,omitempty"`
	InstitutionID  *string `json:"institution_id,omitempty"`
}

type issueResponse struct {
	CertificateID string `json:"certificate_id"`
	DataHash      string `json:"data_hash"`
}

type bulkIssueRequest struct {
	Certificates []issueRequest `json:"certificates"`
}

type bulkRowResponse struct {
	Email         string `json:"email"`
	CertificateID string `json:"certificate_id,omitempty"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

type bulkIssueResponse struct {
	Success bool              `json:"success"`
	Results []bulkRowResponse `json:"results"`
}

// verifyRequest and revokeRequest keep the certificateId casing of the
// public clients already in the field.
type verifyRequest struct {
	CertificateID string `json:"certificateId"`
}

type revokeRequest struct {
	CertificateID string `json:"certificateId"`
	Reason        string `json:"reason,omitempty"`
}

type verifyProfile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type verifyData struct {
	CertificateID string        `json:"certificate_id"`
	IssueDate     string        `json:"issue_date"`
	ExpiryDate    *string       `json:"expiry_date,omitempty"`
	Status        string        `json:"status"`
	DataHash      string        `json:"data_hash"`
	QRCode        string        `json:"qr_code"`
	TemplateName  string        `json:"template_name,omitempty"`
	Profiles      verifyProfile `json:"profiles"`
}

// verifyResponse carries the revocation reason at the top level, next to the
// verdict, rather than buried in the snapshot.
type verifyResponse struct {
	Valid            bool        `json:"valid"`
	Status           string      `json:"status,omitempty"`
	RevocationReason *string     `json:"revocation_reason,omitempty"`
	Message          string      `json:"message,omitempty"`
	Data             *verifyData `json:"data,omitempty"`
}

type revokeResponse struct {
	CertificateID string `json:"certificate_id"`
	Status        string `json:"status"`
}

type expiryCheckResponse struct {
	ExpiredCount int64 `json:"expired_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}
