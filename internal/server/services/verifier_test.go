package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/server/models"
)

func TestVerify_Valid(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.c.snapshot = &models.CertificateSnapshot{
		CertificateID: "CS-2026-WEBD-A1B2C3",
		Status:        models.StatusValid,
		FullName:      "Jane Doe",
		Email:         "jane@x.com",
		TemplateTitle: "Web Dev",
	}
	v := NewVerifier(db, rm, time.Second, discardLogger())

	res, err := v.Verify(context.Background(), "CS-2026-WEBD-A1B2C3")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !res.Found || res.Status != models.StatusValid {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Snapshot.FullName != "Jane Doe" {
		t.Fatalf("snapshot missing display fields: %+v", res.Snapshot)
	}
}

func TestVerify_RevokedReportedVerbatim(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	reason := "fraud"
	rm := newFakeRepoManager()
	rm.c.snapshot = &models.CertificateSnapshot{
		CertificateID:    "CS-1",
		Status:           models.StatusRevoked,
		RevocationReason: &reason,
	}
	v := NewVerifier(db, rm, time.Second, discardLogger())

	res, err := v.Verify(context.Background(), "CS-1")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !res.Found || res.Status != models.StatusRevoked {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Snapshot.RevocationReason == nil || *res.Snapshot.RevocationReason != "fraud" {
		t.Fatalf("revocation reason not surfaced: %+v", res.Snapshot)
	}
}

func TestVerify_NotFound(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.c.snapshotErr = common.ErrorNotFound
	v := NewVerifier(db, rm, time.Second, discardLogger())

	res, err := v.Verify(context.Background(), "CS-NOPE")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if res.Found {
		t.Fatalf("expected found=false")
	}
}

func TestVerify_EmptyID(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	v := NewVerifier(db, newFakeRepoManager(), time.Second, discardLogger())

	_, err := v.Verify(context.Background(), "")
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want ErrorValidation, got %v", err)
	}
}

func TestVerify_StoreError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.c.snapshotErr = errors.New("db down")
	v := NewVerifier(db, rm, time.Second, discardLogger())

	_, err := v.Verify(context.Background(), "CS-1")
	if err == nil {
		t.Fatalf("expected error")
	}
}
