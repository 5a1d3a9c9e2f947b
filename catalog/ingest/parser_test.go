package ingest

import (
	"strings"
	"testing"
)

const singleFacedRecord = `{
	"id": "aaaa-1111",
	"oracle_id": "oooo-1111",
	"name": "Lightning Bolt",
	"layout": "normal",
	"set": "lea",
	"collector_number": "161",
	"rarity": "common",
	"cmc": 1,
	"mana_cost": "{R}",
	"type_line": "Instant",
	"oracle_text": "Lightning Bolt deals 3 damage to any target.",
	"colors": ["R"],
	"finishes": ["nonfoil"],
	"legalities": {"vintage": "legal"},
	"image_uris": {"normal": "https://img.example/bolt-normal.jpg", "small": "https://img.example/bolt-small.jpg"}
}`

const twoFacedRecord = `{
	"id": "bbbb-2222",
	"name": "Delver of Secrets // Insectile Aberration",
	"layout": "transform",
	"set": "isd",
	"collector_number": "51",
	"rarity": "common",
	"cmc": 1,
	"finishes": ["nonfoil", "foil"],
	"card_faces": [
		{
			"name": "Delver of Secrets",
			"oracle_id": "oooo-2222",
			"mana_cost": "{U}",
			"type_line": "Creature - Human Wizard",
			"power": "1",
			"toughness": "1",
			"colors": ["U"],
			"image_uris": {"large": "https://img.example/delver-large.jpg", "png": "https://img.example/delver.png"}
		},
		{
			"name": "Insectile Aberration",
			"type_line": "Creature - Human Insect",
			"power": "3",
			"toughness": "2",
			"image_uris": {"normal": "https://img.example/aberration.jpg"}
		}
	]
}`

func parseOne(t *testing.T, record string) *ParseResult {
	t.Helper()
	result, err := ParseRecords(strings.NewReader("[" + record + "]"))
	if err != nil {
		t.Fatalf("ParseRecords: %v", err)
	}
	return result
}

func TestParseSingleFaced(t *testing.T) {
	result := parseOne(t, singleFacedRecord)

	if len(result.Printings) != 1 || len(result.Skipped) != 0 {
		t.Fatalf("got %d printings, %d skipped", len(result.Printings), len(result.Skipped))
	}

	p := result.Printings[0]
	if p.OracleID != "oooo-1111" {
		t.Errorf("oracle id = %q", p.OracleID)
	}
	if p.TypeLine != "Instant" || p.ManaCost != "{R}" {
		t.Errorf("gameplay fields not taken from top level: %q %q", p.TypeLine, p.ManaCost)
	}
	if p.MultiFaced() {
		t.Error("single-faced printing reported as multi-faced")
	}
	if got := p.PrimaryImage(); got != "https://img.example/bolt-normal.jpg" {
		t.Errorf("primary image = %q", got)
	}
}

func TestParseFaceFallback(t *testing.T) {
	result := parseOne(t, twoFacedRecord)

	if len(result.Printings) != 1 {
		t.Fatalf("got %d printings, skipped %v", len(result.Printings), result.Skipped)
	}

	p := result.Printings[0]
	// Everything absent at the top level must come from the front face.
	if p.OracleID != "oooo-2222" {
		t.Errorf("oracle id not resolved from front face: %q", p.OracleID)
	}
	if p.TypeLine != "Creature - Human Wizard" {
		t.Errorf("type line not resolved from front face: %q", p.TypeLine)
	}
	if p.ManaCost != "{U}" || p.Power != "1" || p.Toughness != "1" {
		t.Errorf("gameplay fields not resolved from front face: %q %q/%q", p.ManaCost, p.Power, p.Toughness)
	}

	if len(p.Faces) != 2 {
		t.Fatalf("got %d faces, want 2", len(p.Faces))
	}
	if len(p.ImageURIs) != 0 {
		t.Error("multi-faced printing must not carry top-level image uris")
	}
	// "normal" is absent on the front face, so "large" wins over "png".
	if got := p.Faces[0].ImageURI; got != "https://img.example/delver-large.jpg" {
		t.Errorf("front face image = %q", got)
	}
	if got := p.PrimaryImage(); got != "https://img.example/delver-large.jpg" {
		t.Errorf("primary image = %q", got)
	}
}

func TestParseSkipsMissingOracleID(t *testing.T) {
	record := `{
		"id": "cccc-3333",
		"name": "Art Series Card",
		"set": "amh1",
		"collector_number": "1",
		"rarity": "common",
		"type_line": "Card",
		"image_uris": {"normal": "https://img.example/art.jpg"}
	}`
	result := parseOne(t, record)

	if len(result.Printings) != 0 {
		t.Fatalf("record without oracle id must be skipped")
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("got %d skips, want 1", len(result.Skipped))
	}
	skip := result.Skipped[0]
	if skip.ScryfallID != "cccc-3333" || skip.Name != "Art Series Card" {
		t.Errorf("skip identity = %+v", skip)
	}
	if !strings.Contains(skip.Reason, "oracle id") {
		t.Errorf("skip reason = %q", skip.Reason)
	}
}

func TestParseDropsIncompleteFaces(t *testing.T) {
	record := `{
		"id": "dddd-4444",
		"oracle_id": "oooo-4444",
		"name": "Broken // Fine",
		"set": "tst",
		"collector_number": "7",
		"rarity": "rare",
		"card_faces": [
			{"name": "Broken", "type_line": "Instant"},
			{"name": "Fine", "type_line": "Sorcery", "image_uris": {"normal": "https://img.example/fine.jpg"}}
		]
	}`
	result := parseOne(t, record)

	if len(result.Printings) != 1 {
		t.Fatalf("got %d printings, skipped %v", len(result.Printings), result.Skipped)
	}
	p := result.Printings[0]
	if len(p.Faces) != 1 || p.Faces[0].Name != "Fine" {
		t.Errorf("faces = %+v, want just Fine", p.Faces)
	}
}

func TestParseSkipsWhenAllFacesDrop(t *testing.T) {
	record := `{
		"id": "eeee-5555",
		"oracle_id": "oooo-5555",
		"name": "No Images",
		"set": "tst",
		"collector_number": "8",
		"rarity": "rare",
		"card_faces": [
			{"name": "A", "type_line": "Instant"},
			{"name": "B", "type_line": "Sorcery"}
		]
	}`
	result := parseOne(t, record)

	if len(result.Printings) != 0 || len(result.Skipped) != 1 {
		t.Fatalf("got %d printings, %d skipped", len(result.Printings), len(result.Skipped))
	}
}

func TestParseSplitLayoutKeepsTopLevelImages(t *testing.T) {
	// Split cards image the whole card at the top level while the faces
	// carry no renditions of their own.
	record := `{
		"id": "ffff-6666",
		"oracle_id": "oooo-6666",
		"name": "Fire // Ice",
		"layout": "split",
		"set": "apc",
		"collector_number": "128",
		"rarity": "uncommon",
		"type_line": "Instant // Instant",
		"image_uris": {"normal": "https://img.example/fire-ice.jpg"},
		"card_faces": [
			{"name": "Fire", "type_line": "Instant"},
			{"name": "Ice", "type_line": "Instant"}
		]
	}`
	result := parseOne(t, record)

	if len(result.Printings) != 1 {
		t.Fatalf("got %d printings, skipped %v", len(result.Printings), result.Skipped)
	}
	p := result.Printings[0]
	if p.MultiFaced() {
		t.Error("split card without face images must store top-level renditions")
	}
	if got := p.PrimaryImage(); got != "https://img.example/fire-ice.jpg" {
		t.Errorf("primary image = %q", got)
	}
}

func TestParseMalformedDatasetFails(t *testing.T) {
	if _, err := ParseRecords(strings.NewReader(`{"data": []}`)); err == nil {
		t.Fatal("object payload must fail")
	}
	if _, err := ParseRecords(strings.NewReader(`[` + singleFacedRecord + `,`)); err == nil {
		t.Fatal("truncated array must fail")
	}
}

func TestParseCountsAllRecords(t *testing.T) {
	payload := "[" + singleFacedRecord + "," + twoFacedRecord + `,{"id":"x","name":"No Oracle","set":"t","collector_number":"1","rarity":"c","image_uris":{"normal":"u"}}]`
	result, err := ParseRecords(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("ParseRecords: %v", err)
	}
	if result.Parsed != 3 {
		t.Errorf("parsed = %d, want 3", result.Parsed)
	}
	if len(result.Printings) != 2 || len(result.Skipped) != 1 {
		t.Errorf("got %d printings, %d skipped", len(result.Printings), len(result.Skipped))
	}
}
