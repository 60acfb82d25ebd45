package seen

import (
	"testing"

	"github.com/jimezsa/nursejobs/internal/models"
)

func TestKey(t *testing.T) {
	withLink := models.Job{JobTitle: "RN", Company: "Acme", ApplyLink: "https://x/1"}
	if got := Key(withLink); got != "https://x/1" {
		t.Fatalf("Key() = %q, want %q", got, "https://x/1")
	}
	noLink := models.Job{JobTitle: "RN", Company: "Acme"}
	if got := Key(noLink); got != "RN-Acme" {
		t.Fatalf("Key() = %q, want %q", got, "RN-Acme")
	}
}

func TestIdentityStable(t *testing.T) {
	job := models.Job{JobTitle: "RN", Company: "Acme", ApplyLink: "https://x/1"}
	first := Identity(job)
	if len(first) != 64 {
		t.Fatalf("Identity() length = %d, want 64", len(first))
	}
	if second := Identity(job); second != first {
		t.Fatalf("Identity() not stable: %q vs %q", first, second)
	}

	other := job
	other.JobTitle = "LPN"
	other.Company = "Other"
	if Identity(other) != first {
		t.Fatalf("expected identity to depend only on apply link")
	}
}

func TestIdentityTitleCompanyFallback(t *testing.T) {
	a := models.Job{JobTitle: "RN", Company: "Acme"}
	b := models.Job{JobTitle: "RN", Company: "Beta"}
	if Identity(a) == Identity(b) {
		t.Fatalf("expected different identities for different companies")
	}
}
