package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/deckvault/deckvault/catalog/database/models"
)

// faceImagePreference is the rendition order used when picking one image
// per face.
var faceImagePreference = []string{"normal", "large", "small", "png", "border_crop"}

// gameplay holds the fields that upstream records place either at the top
// level or on the first face depending on layout. It is embedded in both the
// record and the face shape so the fallback rule below applies to every
// field the same way.
type gameplay struct {
	OracleID   string            `json:"oracle_id,omitempty"`
	ManaCost   *string           `json:"mana_cost,omitempty"`
	TypeLine   *string           `json:"type_line,omitempty"`
	OracleText *string           `json:"oracle_text,omitempty"`
	Power      *string           `json:"power,omitempty"`
	Toughness  *string           `json:"toughness,omitempty"`
	Colors     []string          `json:"colors,omitempty"`
	ImageURIs  map[string]string `json:"image_uris,omitempty"`
}

type rawFace struct {
	Name string `json:"name"`
	gameplay
}

type rawCard struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	FlavorName      string            `json:"flavor_name,omitempty"`
	Layout          string            `json:"layout"`
	Set             string            `json:"set"`
	CollectorNumber string            `json:"collector_number"`
	Rarity          string            `json:"rarity"`
	CMC             float64           `json:"cmc"`
	Finishes        []string          `json:"finishes,omitempty"`
	Legalities      map[string]string `json:"legalities,omitempty"`
	ArenaID         *int64            `json:"arena_id,omitempty"`
	MTGOID          *int64            `json:"mtgo_id,omitempty"`
	CardFaces       []rawFace         `json:"card_faces,omitempty"`
	gameplay
}

func orStr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func orPtr(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}

func orSlice(a, b []string) []string {
	if a != nil {
		return a
	}
	return b
}

// resolved applies the layout fallback rule once for the whole gameplay
// bundle: every field reads from the top level when present and from the
// first face otherwise. No field gets its own fallback branch.
func (r *rawCard) resolved() gameplay {
	g := r.gameplay
	if len(r.CardFaces) == 0 {
		return g
	}
	f := r.CardFaces[0].gameplay
	g.OracleID = orStr(g.OracleID, f.OracleID)
	g.ManaCost = orPtr(g.ManaCost, f.ManaCost)
	g.TypeLine = orPtr(g.TypeLine, f.TypeLine)
	g.OracleText = orPtr(g.OracleText, f.OracleText)
	g.Power = orPtr(g.Power, f.Power)
	g.Toughness = orPtr(g.Toughness, f.Toughness)
	g.Colors = orSlice(g.Colors, f.Colors)
	return g
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SkippedRecord describes one upstream record the parser could not turn
// into a valid printing.
type SkippedRecord struct {
	Name       string `json:"name"`
	ScryfallID string `json:"scryfall_id"`
	Reason     string `json:"reason"`
}

// ParseResult carries the converted printings plus every per-record skip.
type ParseResult struct {
	Parsed    int
	Printings []*models.CardPrinting
	Skipped   []SkippedRecord
}

// ParseRecords decodes a bulk dataset, a top-level JSON array, one record at
// a time so the full file never has to sit in memory. Malformed JSON aborts
// the parse; an invalid individual record only produces a skip entry.
func ParseRecords(r io.Reader) (*ParseResult, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("dataset is not a JSON array (got %v)", tok)
	}

	result := &ParseResult{}
	for dec.More() {
		var raw rawCard
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("malformed record at position %d: %w", result.Parsed, err)
		}
		result.Parsed++

		printing, err := convert(&raw)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRecord{
				Name:       raw.Name,
				ScryfallID: raw.ID,
				Reason:     err.Error(),
			})
			slog.Warn("Skipping record",
				slog.String("type", "sync"),
				slog.String("name", raw.Name),
				slog.String("scryfall_id", raw.ID),
				slog.String("reason", err.Error()),
			)
			continue
		}

		result.Printings = append(result.Printings, printing)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read dataset close: %w", err)
	}

	return result, nil
}

// convert maps one upstream record to the store shape, enforcing the parse
// invariants (resolvable oracle id, image presence, usable faces).
func convert(raw *rawCard) (*models.CardPrinting, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("missing scryfall id")
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	if raw.Set == "" || raw.CollectorNumber == "" {
		return nil, fmt.Errorf("missing set code or collector number")
	}

	g := raw.resolved()
	if g.OracleID == "" {
		return nil, fmt.Errorf("no resolvable oracle id")
	}

	printing := &models.CardPrinting{
		ScryfallID:      raw.ID,
		OracleID:        g.OracleID,
		Name:            raw.Name,
		FlavorName:      raw.FlavorName,
		SetCode:         raw.Set,
		CollectorNumber: raw.CollectorNumber,
		Rarity:          raw.Rarity,
		ManaCost:        deref(g.ManaCost),
		ManaValue:       raw.CMC,
		TypeLine:        deref(g.TypeLine),
		OracleText:      deref(g.OracleText),
		Power:           deref(g.Power),
		Toughness:       deref(g.Toughness),
		Colors:          g.Colors,
		Finishes:        raw.Finishes,
		Legalities:      raw.Legalities,
		ArenaID:         raw.ArenaID,
		MTGOID:          raw.MTGOID,
	}

	faces := extractFaces(raw.CardFaces)
	switch {
	case len(faces) > 0:
		// Face images win over any top-level rendition map; a printing
		// carries exactly one of the two.
		printing.Faces = faces
	case len(raw.gameplay.ImageURIs) > 0:
		// Some multi-face layouts (split, adventure) image the whole card
		// at the top level; they are stored like single-faced printings.
		printing.ImageURIs = raw.gameplay.ImageURIs
	default:
		return nil, fmt.Errorf("no usable image: top-level renditions absent and all faces dropped")
	}

	if err := printing.Validate(); err != nil {
		return nil, err
	}

	return printing, nil
}

// extractFaces converts the face list, dropping any face that lacks a name,
// a type line or an image in one of the preferred renditions.
func extractFaces(rawFaces []rawFace) []models.Face {
	var faces []models.Face
	for _, rf := range rawFaces {
		image := pickFaceImage(rf.ImageURIs)
		if rf.Name == "" || deref(rf.TypeLine) == "" || image == "" {
			continue
		}
		faces = append(faces, models.Face{
			Name:       rf.Name,
			ManaCost:   deref(rf.ManaCost),
			TypeLine:   deref(rf.TypeLine),
			OracleText: deref(rf.OracleText),
			Power:      deref(rf.Power),
			Toughness:  deref(rf.Toughness),
			Colors:     rf.Colors,
			ImageURI:   image,
		})
	}
	return faces
}

func pickFaceImage(uris map[string]string) string {
	for _, key := range faceImagePreference {
		if uri, ok := uris[key]; ok && uri != "" {
			return uri
		}
	}
	return ""
}
