package ingest

import (
	"testing"
	"time"

	"github.com/deckvault/deckvault/catalog/database/models"
)

var storedBolt = models.PrintingIdentity{
	ID:              42,
	ScryfallID:      "scry-old",
	SetCode:         "lea",
	CollectorNumber: "161",
	CreatedAt:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

func TestResolveNew(t *testing.T) {
	r := NewReconciler([]models.PrintingIdentity{storedBolt})

	p := &models.CardPrinting{ScryfallID: "scry-fresh", SetCode: "m21", CollectorNumber: "139"}
	match := r.Resolve(p)

	if match.Kind != MatchNew {
		t.Fatalf("kind = %v, want MatchNew", match.Kind)
	}
	if p.ID != 0 {
		t.Errorf("new printing must not get a stored id, got %d", p.ID)
	}
}

func TestResolveByScryfallID(t *testing.T) {
	r := NewReconciler([]models.PrintingIdentity{storedBolt})

	// Same upstream id, even under a different set/number, is a primary hit.
	p := &models.CardPrinting{ScryfallID: "scry-old", SetCode: "lea", CollectorNumber: "161"}
	match := r.Resolve(p)

	if match.Kind != MatchByScryfallID {
		t.Fatalf("kind = %v, want MatchByScryfallID", match.Kind)
	}
	if p.ID != 42 {
		t.Errorf("stored id not carried over: %d", p.ID)
	}
	if !p.CreatedAt.Equal(storedBolt.CreatedAt) {
		t.Errorf("created_at not preserved: %v", p.CreatedAt)
	}
}

func TestResolveBySetNumberRotation(t *testing.T) {
	r := NewReconciler([]models.PrintingIdentity{storedBolt})

	// Upstream rotated the id from scry-old to scry-new; the set and
	// collector number still identify the stored printing.
	p := &models.CardPrinting{ScryfallID: "scry-new", SetCode: "lea", CollectorNumber: "161"}
	match := r.Resolve(p)

	if match.Kind != MatchBySetNumber {
		t.Fatalf("kind = %v, want MatchBySetNumber", match.Kind)
	}
	if match.Existing.ScryfallID != "scry-old" {
		t.Errorf("existing identity = %+v", match.Existing)
	}
	if p.ID != 42 {
		t.Errorf("stored id not carried over: %d", p.ID)
	}
	if !p.CreatedAt.Equal(storedBolt.CreatedAt) {
		t.Errorf("created_at not preserved: %v", p.CreatedAt)
	}
	// The new upstream id stays on the printing so the update rewrites it.
	if p.ScryfallID != "scry-new" {
		t.Errorf("rotated scryfall id lost: %q", p.ScryfallID)
	}
}

func TestResolvePrimaryKeyWins(t *testing.T) {
	other := models.PrintingIdentity{
		ID:              7,
		ScryfallID:      "scry-other",
		SetCode:         "m21",
		CollectorNumber: "139",
	}
	r := NewReconciler([]models.PrintingIdentity{storedBolt, other})

	// Both keys hit different rows; the upstream id must decide.
	p := &models.CardPrinting{ScryfallID: "scry-old", SetCode: "m21", CollectorNumber: "139"}
	match := r.Resolve(p)

	if match.Kind != MatchByScryfallID {
		t.Fatalf("kind = %v, want MatchByScryfallID", match.Kind)
	}
	if p.ID != 42 {
		t.Errorf("resolved against wrong row: id = %d", p.ID)
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := NewReconciler([]models.PrintingIdentity{storedBolt})

	for i := 0; i < 3; i++ {
		p := &models.CardPrinting{ScryfallID: "scry-old", SetCode: "lea", CollectorNumber: "161"}
		if match := r.Resolve(p); match.Kind != MatchByScryfallID || p.ID != 42 {
			t.Fatalf("iteration %d: kind=%v id=%d", i, match.Kind, p.ID)
		}
	}
}
