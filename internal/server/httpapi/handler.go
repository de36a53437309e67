// Package httpapi exposes the certificate service over JSON HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/logging"
	"github.com/certisafe/certisafe/internal/server/mint"
	"github.com/certisafe/certisafe/internal/server/models"
	"github.com/certisafe/certisafe/internal/server/services"
)

// Service interfaces consumed by the handler. The concrete implementations
// live in the services package; the handler only needs these surfaces.
type (
	IssueService interface {
		Issue(ctx context.Context, req services.IssueRequest) (*services.IssueResult, error)
	}
	BulkIssueService interface {
		BulkIssue(ctx context.Context, rows []services.IssueRequest) []services.RowResult
	}
	VerifyService interface {
		Verify(ctx context.Context, certificateID string) (*services.VerificationResult, error)
	}
	RevokeService interface {
		Revoke(ctx context.Context, certificateID, reason string) error
	}
	SweepService interface {
		Sweep(ctx context.Context, now time.Time) (int64, error)
	}
)

// Handler translates HTTP requests into service calls.
type Handler struct {
	issuer   IssueService
	bulk     BulkIssueService
	verifier VerifyService
	revoker  RevokeService
	sweeper  SweepService
	logger   logging.Logger
}

// NewHandler constructs a Handler.
func NewHandler(issuer IssueService, bulk BulkIssueService, verifier VerifyService,
	revoker RevokeService, sweeper SweepService, l logging.Logger) *Handler {
	return &Handler{
		issuer:   issuer,
		bulk:     bulk,
		verifier: verifier,
		revoker:  revoker,
		sweeper:  sweeper,
		logger:   l.With("module", "httpapi"),
	}
}

// HandleIssue serves POST /api/issue.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	var body issueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req, err := toServiceRequest(body)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.issuer.Issue(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, issueResponse{
		CertificateID: res.CertificateID,
		DataHash:      res.DataHash,
	})
}

// HandleBulkIssue serves POST /api/issue/bulk. The batch always answers 200;
// per-row outcomes are carried in the results array.
func (h *Handler) HandleBulkIssue(w http.ResponseWriter, r *http.Request) {
	var body bulkIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body.Certificates) == 0 {
		h.writeError(w, r, http.StatusBadRequest, "empty batch")
		return
	}

	// malformed expiry dates are a row problem, not a batch problem: the row
	// is still submitted (and fails), but keeps its own error message
	rows := make([]services.IssueRequest, 0, len(body.Certificates))
	rowErrors := make(map[int]string)
	for i, row := range body.Certificates {
		req, err := toServiceRequest(row)
		if err != nil {
			rowErrors[i] = err.Error()
			req = services.IssueRequest{RecipientEmail: row.RecipientEmail}
		}
		rows = append(rows, req)
	}

	results := h.bulk.BulkIssue(r.Context(), rows)

	out := bulkIssueResponse{Success: true, Results: make([]bulkRowResponse, 0, len(results))}
	for i, res := range results {
		message := res.Message
		if msg, ok := rowErrors[i]; ok && res.Status == services.RowStatusError {
			message = msg
		}
		out.Results = append(out.Results, bulkRowResponse{
			Email:         res.Email,
			CertificateID: res.CertificateID,
			Status:        res.Status,
			Message:       message,
		})
	}
	h.writeJSON(w, r, http.StatusOK, out)
}

// HandleVerify serves POST /api/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var body verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.verifier.Verify(r.Context(), body.CertificateID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if !res.Found {
		h.writeJSON(w, r, http.StatusNotFound, verifyResponse{
			Valid:   false,
			Message: "Certificate not found",
		})
		return
	}

	h.writeJSON(w, r, http.StatusOK, verifyResponse{
		Valid:            res.Status == models.StatusValid,
		Status:           res.Status,
		RevocationReason: res.Snapshot.RevocationReason,
		Data:             toVerifyData(res.Snapshot),
	})
}

// HandleRevoke serves POST /api/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	var body revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.revoker.Revoke(r.Context(), body.CertificateID, body.Reason); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, revokeResponse{
		CertificateID: body.CertificateID,
		Status:        models.StatusRevoked,
	})
}

// HandleExpiryCheck serves GET /api/system/expiry-check: an on-demand sweep.
func (h *Handler) HandleExpiryCheck(w http.ResponseWriter, r *http.Request) {
	n, err := h.sweeper.Sweep(r.Context(), time.Now())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, expiryCheckResponse{ExpiredCount: n})
}

func toServiceRequest(body issueRequest) (services.IssueRequest, error) {
	req := services.IssueRequest{
		RecipientName:  body.RecipientName,
		RecipientEmail: body.RecipientEmail,
		CourseTitle:    body.CourseTitle,
		InstitutionID:  body.InstitutionID,
	}
	if body.ExpiryDate != nil && *body.ExpiryDate != "" {
		t, err := time.Parse(time.RFC3339, *body.ExpiryDate)
		if err != nil {
			return services.IssueRequest{}, errors.New("invalid expiry_date, want RFC 3339")
		}
		req.ExpiryDate = &t
	}
	return req, nil
}

func toVerifyData(s *models.CertificateSnapshot) *verifyData {
	data := &verifyData{
		CertificateID: s.CertificateID,
		IssueDate:     mint.IssueDateFormat(s.IssueDate),
		Status:        s.Status,
		DataHash:      s.DataHash,
		QRCode:        s.QRCode,
		TemplateName:  s.TemplateTitle,
		Profiles: verifyProfile{
			FullName: s.FullName,
			Email:    s.Email,
		},
	}
	if s.ExpiryDate != nil {
		d := mint.IssueDateFormat(*s.ExpiryDate)
		data.ExpiryDate = &d
	}
	return data
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		h.writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorProfileBlocked):
		h.writeError(w, r, http.StatusBadRequest, "recipient profile is blocked")
	case errors.Is(err, common.ErrorNotFound):
		h.writeError(w, r, http.StatusNotFound, "certificate not found")
	case errors.Is(err, common.ErrorInvalidStateTransition):
		h.writeError(w, r, http.StatusConflict, "certificate is not in a revocable state")
	default:
		h.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err.Error())
		h.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, errorResponse{Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error(r.Context(), "error writing response", "error", err.Error())
	}
}
