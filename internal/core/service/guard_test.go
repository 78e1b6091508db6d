package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarfund/internal/adapters/memory"
	"scholarfund/internal/core/domain"
)

func newGuardFixture(t *testing.T) (*Guard, *memory.VerificationStore) {
	t.Helper()
	nopLogger := zerolog.Nop()
	store := memory.NewVerificationStore(func() string { return "ev" })
	return NewGuard(store, &nopLogger), store
}

func TestGuard_RequireRole(t *testing.T) {
	guard, _ := newGuardFixture(t)

	testCases := []struct {
		name    string
		role    domain.Role
		allowed []domain.Role
		wantErr error
	}{
		{"admin on admin gate", domain.RoleAdmin, []domain.Role{domain.RoleAdmin}, nil},
		{"student on admin gate", domain.RoleStudent, []domain.Role{domain.RoleAdmin}, domain.ErrForbidden},
		{"donor on student gate", domain.RoleDonor, []domain.Role{domain.RoleStudent}, domain.ErrForbidden},
		{"institution on student gate", domain.RoleInstitution, []domain.Role{domain.RoleStudent}, domain.ErrForbidden},
		{"role outside the closed set", domain.Role("superuser"), []domain.Role{domain.RoleAdmin}, domain.ErrForbidden},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u := domain.AuthUser{ID: uuid.New(), Role: tc.role}
			err := guard.RequireRole(u, tc.allowed...)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("RequireRole = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// The masking rule: a record owned by someone else and a record that was
// never created must be indistinguishable to the caller.
func TestGuard_OwnedVerificationMasksOwnership(t *testing.T) {
	guard, store := newGuardFixture(t)
	owner := uuid.New()
	stranger := uuid.New()

	v, err := store.CreateDraft(context.Background(), owner, domain.StudentProfile{FullName: "Ada"})
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	if got, err := guard.OwnedVerification(context.Background(), v.ID, owner); err != nil || got.ID != v.ID {
		t.Fatalf("owner fetch = (%v, %v), want the record", got, err)
	}

	foreignErr := func() error {
		_, err := guard.OwnedVerification(context.Background(), v.ID, stranger)
		return err
	}()
	missingErr := func() error {
		_, err := guard.OwnedVerification(context.Background(), uuid.New(), stranger)
		return err
	}()

	if !errors.Is(foreignErr, domain.ErrNotFound) {
		t.Errorf("foreign fetch = %v, want ErrNotFound", foreignErr)
	}
	if !errors.Is(missingErr, domain.ErrNotFound) {
		t.Errorf("missing fetch = %v, want ErrNotFound", missingErr)
	}
	if foreignErr.Error() != missingErr.Error() {
		t.Errorf("masking leak: foreign %q vs missing %q", foreignErr, missingErr)
	}
}

func TestGuard_OwnedDocument(t *testing.T) {
	guard, store := newGuardFixture(t)
	owner := uuid.New()
	stranger := uuid.New()

	v, err := store.CreateDraft(context.Background(), owner, domain.StudentProfile{FullName: "Ada"})
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	doc := domain.VerificationDoc{ID: uuid.New(), DocumentType: domain.DocStudentID, FileRef: "uploads/abc", UploadedAt: time.Now().UTC()}
	if err := store.AppendDocument(context.Background(), v.ID, doc); err != nil {
		t.Fatalf("AppendDocument failed: %v", err)
	}

	if _, got, err := guard.OwnedDocument(context.Background(), v.ID, doc.ID, owner); err != nil || got.ID != doc.ID {
		t.Fatalf("owner doc fetch = (%v, %v), want the doc", got, err)
	}

	// Stranger probing a real doc id, owner probing a bogus doc id:
	// both not-found.
	if _, _, err := guard.OwnedDocument(context.Background(), v.ID, doc.ID, stranger); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("stranger doc fetch = %v, want ErrNotFound", err)
	}
	if _, _, err := guard.OwnedDocument(context.Background(), v.ID, uuid.New(), owner); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("bogus doc fetch = %v, want ErrNotFound", err)
	}
}
