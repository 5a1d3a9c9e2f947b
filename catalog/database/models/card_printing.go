package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Face holds the display fields of one face of a multi-faced printing.
// Faces are stored denormalized as a JSONB column on the printing row.
type Face struct {
	Name       string   `json:"name"`
	ManaCost   string   `json:"mana_cost,omitempty"`
	TypeLine   string   `json:"type_line"`
	OracleText string   `json:"oracle_text,omitempty"`
	Power      string   `json:"power,omitempty"`
	Toughness  string   `json:"toughness,omitempty"`
	Colors     []string `json:"colors,omitempty"`
	ImageURI   string   `json:"image_uri"`
}

// CardPrinting is one physical printing of a card. Printings of the same
// logical card share an OracleID. The row id is assigned by the store and
// never reused; ScryfallID is the upstream identifier and may change for a
// given physical printing between upstream exports.
type CardPrinting struct {
	bun.BaseModel `bun:"table:card_printings,alias:cp"`

	ID              int64             `bun:"id,pk,autoincrement" json:"id"`
	ScryfallID      string            `bun:"scryfall_id,notnull,unique" json:"scryfall_id"`
	OracleID        string            `bun:"oracle_id,notnull" json:"oracle_id"`
	Name            string            `bun:"name,notnull" json:"name"`
	FlavorName      string            `bun:"flavor_name,nullzero" json:"flavor_name,omitempty"`
	SetCode         string            `bun:"set_code,notnull" json:"set_code"`
	CollectorNumber string            `bun:"collector_number,notnull" json:"collector_number"`
	Rarity          string            `bun:"rarity,notnull" json:"rarity"`
	ManaCost        string            `bun:"mana_cost,nullzero" json:"mana_cost,omitempty"`
	ManaValue       float64           `bun:"mana_value" json:"mana_value"`
	TypeLine        string            `bun:"type_line,notnull" json:"type_line"`
	OracleText      string            `bun:"oracle_text,nullzero" json:"oracle_text,omitempty"`
	Power           string            `bun:"power,nullzero" json:"power,omitempty"`
	Toughness       string            `bun:"toughness,nullzero" json:"toughness,omitempty"`
	Colors          []string          `bun:"colors,type:jsonb" json:"colors,omitempty"`
	Finishes        []string          `bun:"finishes,type:jsonb" json:"finishes,omitempty"`
	Legalities      map[string]string `bun:"legalities,type:jsonb" json:"legalities,omitempty"`
	ImageURIs       map[string]string `bun:"image_uris,type:jsonb,nullzero" json:"image_uris,omitempty"`
	Faces           []Face            `bun:"faces,type:jsonb,nullzero" json:"faces,omitempty"`
	ArenaID         *int64            `bun:"arena_id" json:"arena_id,omitempty"`
	MTGOID          *int64            `bun:"mtgo_id" json:"mtgo_id,omitempty"`
	CreatedAt       time.Time         `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time         `bun:"updated_at,notnull" json:"updated_at"`
}

// MultiFaced reports whether the printing carries a face list instead of
// top-level image references.
func (p *CardPrinting) MultiFaced() bool {
	return len(p.Faces) > 0
}

// PrimaryImage returns the best display image: the top-level "normal"
// rendition when present, any other top-level rendition otherwise, and the
// front face image for multi-faced printings.
func (p *CardPrinting) PrimaryImage() string {
	if uri, ok := p.ImageURIs["normal"]; ok {
		return uri
	}
	for _, key := range []string{"large", "small", "png", "border_crop"} {
		if uri, ok := p.ImageURIs[key]; ok {
			return uri
		}
	}
	if len(p.Faces) > 0 {
		return p.Faces[0].ImageURI
	}
	return ""
}

// Validate enforces the store-boundary invariants: identity fields present
// and exactly one of the top-level image map or the face list populated.
func (p *CardPrinting) Validate() error {
	switch {
	case p.ScryfallID == "":
		return fmt.Errorf("printing %q: missing scryfall id", p.Name)
	case p.OracleID == "":
		return fmt.Errorf("printing %q (%s): missing oracle id", p.Name, p.ScryfallID)
	case p.Name == "":
		return fmt.Errorf("printing %s: missing name", p.ScryfallID)
	case p.SetCode == "" || p.CollectorNumber == "":
		return fmt.Errorf("printing %q (%s): missing set code or collector number", p.Name, p.ScryfallID)
	}
	hasImages := len(p.ImageURIs) > 0
	hasFaces := len(p.Faces) > 0
	if hasImages == hasFaces {
		return fmt.Errorf("printing %q (%s): need exactly one of image_uris or faces", p.Name, p.ScryfallID)
	}
	for i, f := range p.Faces {
		if f.Name == "" || f.TypeLine == "" || f.ImageURI == "" {
			return fmt.Errorf("printing %q (%s): face %d incomplete", p.Name, p.ScryfallID, i)
		}
	}
	return nil
}

// PrintingIdentity is the slim projection of a stored printing used by
// reconciliation: just the two natural keys plus the values an update must
// carry over.
type PrintingIdentity struct {
	ID              int64     `bun:"id"`
	ScryfallID      string    `bun:"scryfall_id"`
	SetCode         string    `bun:"set_code"`
	CollectorNumber string    `bun:"collector_number"`
	CreatedAt       time.Time `bun:"created_at"`
}

// CatalogStats summarizes the stored catalog after a sync run.
type CatalogStats struct {
	TotalStored    int `json:"total_stored"`
	DistinctGroups int `json:"distinct_groups"`
	MultiFaced     int `json:"multi_faced"`
	WithFinishes   int `json:"with_finishes"`
	ArenaLinked    int `json:"arena_linked"`
	MTGOLinked     int `json:"mtgo_linked"`
}
