package customs_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"customsflow/internal/customs"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := customs.Wrap(customs.ErrConflict, "auditqueue", "start audit", "already auditing", cause)
	if !errors.Is(err, customs.ErrConflict) || !errors.Is(err, cause) {
		t.Fatalf("expected marker and cause in chain: %v", err)
	}
	if want := "conflict: auditqueue: start audit: already auditing: disk full"; err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapWithoutMarker(t *testing.T) {
	err := customs.Wrap(nil, "lifecycle", "", "", nil)
	if err == nil || err.Error() != "lifecycle" {
		t.Fatalf("unexpected error %v", err)
	}
	if got := customs.Wrap(nil, "", "", "", nil).Error(); got != "customs failure" {
		t.Fatalf("empty detail = %q", got)
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{customs.Wrap(customs.ErrDuplicate, "q", "enqueue", "", nil), "duplicate"},
		{customs.Wrap(customs.ErrConflict, "q", "start", "", nil), "conflict"},
		{customs.Wrap(customs.ErrNotFound, "q", "select", "", nil), "not_found"},
		{customs.Wrap(customs.ErrInvalidInput, "e", "create", "", nil), "invalid_input"},
		{customs.Wrap(customs.ErrStaleCompletion, "e", "complete", "", nil), "stale_completion"},
		{customs.ErrClosed, "closed"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		if got := customs.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestInputValidate(t *testing.T) {
	in := customs.Input{CompanyName: "Acme", GoodsType: "Toys", HSCode: "9503.00", Amount: 10, Currency: "usd"}
	if err := in.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	in.CompanyName = " "
	in.Currency = ""
	err := in.Validate()
	if !errors.Is(err, customs.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if !strings.Contains(err.Error(), "company_name") || !strings.Contains(err.Error(), "currency") {
		t.Fatalf("error should name missing fields: %v", err)
	}

	in = customs.Input{CompanyName: "Acme", GoodsType: "Toys", HSCode: "9503.00", Amount: 0, Currency: "USD"}
	if !errors.Is(in.Validate(), customs.ErrInvalidInput) {
		t.Fatal("zero amount should be rejected")
	}
	in.Amount = 5
	in.Documents = []string{""}
	if !errors.Is(in.Validate(), customs.ErrInvalidInput) {
		t.Fatal("blank document reference should be rejected")
	}
}

func TestNewAuditTaskUrgency(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	decl := customs.Declaration{ID: "D1", CompanyName: "Acme", RiskScore: 81}
	task := customs.NewAuditTask("T1", decl, 80, now)
	if task.Urgency != customs.UrgencyUrgent || task.DeclarationID != "D1" || !task.CreatedAt.Equal(now) {
		t.Fatalf("unexpected task %+v", task)
	}
	if !strings.Contains(task.Description, "Potential Pattern Match") {
		t.Fatalf("description should fall back to generic anomaly: %q", task.Description)
	}

	decl.RiskScore = 80
	if customs.NewAuditTask("T2", decl, 80, now).Urgency != customs.UrgencyNormal {
		t.Fatal("score equal to cutoff is not high risk")
	}
}
