package ingest

import (
	"github.com/deckvault/deckvault/catalog/database/models"
)

// MatchKind tags the outcome of reconciling one incoming printing against
// the stored catalog.
type MatchKind int

const (
	// MatchNew means neither key is present; the printing gets a fresh row.
	MatchNew MatchKind = iota
	// MatchByScryfallID is the primary-key hit: the upstream id is already
	// stored.
	MatchByScryfallID
	// MatchBySetNumber is the fallback hit: the upstream id is unknown but
	// the (set code, collector number) pair identifies a stored printing
	// whose upstream id has rotated.
	MatchBySetNumber
)

func (k MatchKind) String() string {
	switch k {
	case MatchByScryfallID:
		return "by_scryfall_id"
	case MatchBySetNumber:
		return "by_set_number"
	default:
		return "new"
	}
}

// Match is the result of resolving one printing.
type Match struct {
	Kind     MatchKind
	Existing models.PrintingIdentity // zero value for MatchNew
}

type setNumberKey struct {
	set    string
	number string
}

// Reconciler resolves incoming printings against the identity projection of
// the stored catalog. It is pure in-memory logic; loading the projection and
// applying the resulting writes both happen elsewhere.
type Reconciler struct {
	byScryfallID map[string]models.PrintingIdentity
	bySetNumber  map[setNumberKey]models.PrintingIdentity
}

func NewReconciler(identities []models.PrintingIdentity) *Reconciler {
	r := &Reconciler{
		byScryfallID: make(map[string]models.PrintingIdentity, len(identities)),
		bySetNumber:  make(map[setNumberKey]models.PrintingIdentity, len(identities)),
	}
	for _, id := range identities {
		r.byScryfallID[id.ScryfallID] = id
		r.bySetNumber[setNumberKey{id.SetCode, id.CollectorNumber}] = id
	}
	return r
}

// Resolve classifies the printing. The upstream id is consulted first; only
// when it is absent does the (set, collector number) pair decide, covering
// upstream id rotation for a physical printing that is otherwise unchanged.
// On a match the stored row id and creation time are stamped onto the
// printing so the update path reuses them.
func (r *Reconciler) Resolve(printing *models.CardPrinting) Match {
	if existing, ok := r.byScryfallID[printing.ScryfallID]; ok {
		printing.ID = existing.ID
		printing.CreatedAt = existing.CreatedAt
		return Match{Kind: MatchByScryfallID, Existing: existing}
	}

	key := setNumberKey{printing.SetCode, printing.CollectorNumber}
	if existing, ok := r.bySetNumber[key]; ok {
		printing.ID = existing.ID
		printing.CreatedAt = existing.CreatedAt
		return Match{Kind: MatchBySetNumber, Existing: existing}
	}

	return Match{Kind: MatchNew}
}
