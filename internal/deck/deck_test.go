package deck

import (
	"testing"
)

func TestCreateAssignsSequentialIDs(t *testing.T) {
	d := New()
	first := d.Create()
	second := d.Create()
	third := d.Create()

	if first.ID != 1 || second.ID != 2 || third.ID != 3 {
		t.Fatalf("expected ids 1,2,3, got %d,%d,%d", first.ID, second.ID, third.ID)
	}
	if first.Title != DefaultTitle || first.Rows != DefaultRows {
		t.Errorf("expected default content, got %q/%q", first.Title, first.Rows)
	}
}

func TestIDsNeverReusedAfterDelete(t *testing.T) {
	d := New()
	d.Create() // id 1
	second := d.Create()
	d.Create() // id 3

	d.Remove(second.ID)
	fourth := d.Create()

	if fourth.ID != 4 {
		t.Fatalf("expected id 4 after deleting id 2, got %d", fourth.ID)
	}
	got := map[int]bool{}
	for _, c := range d.Cards {
		got[c.ID] = true
	}
	for _, want := range []int{1, 3, 4} {
		if !got[want] {
			t.Errorf("expected id %d in deck, have %v", want, got)
		}
	}
	if got[2] {
		t.Error("deleted id 2 still present")
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	d := New()
	d.Create()
	before := len(d.Cards)
	d.Remove(99)
	if len(d.Cards) != before {
		t.Fatalf("expected %d cards, got %d", before, len(d.Cards))
	}
}

func TestSetTitlePreservesRawText(t *testing.T) {
	d := New()
	card := d.Create()

	// Trailing whitespace a user is still typing must survive the edit.
	raw := "First line  \n\nSecond line "
	if !d.SetTitle(card.ID, raw) {
		t.Fatal("SetTitle reported card missing")
	}
	if got := d.Find(card.ID).Title; got != raw {
		t.Errorf("raw title mutated on store: %q", got)
	}

	if d.SetTitle(999, "x") {
		t.Error("SetTitle on absent id should return false")
	}
}

func TestReplaceAllResetsCounter(t *testing.T) {
	d := New()
	d.Create()
	d.Create()

	d.ReplaceAll([]Card{{ID: 1, Title: "A", Rows: "r"}}, 1)
	if d.NextID != 1 {
		t.Errorf("expected counter 1, got %d", d.NextID)
	}
	next := d.Create()
	if next.ID != 2 {
		t.Errorf("expected next id 2 after replace, got %d", next.ID)
	}

	d.ReplaceAll(nil, -5)
	if d.NextID != 0 || len(d.Cards) != 0 {
		t.Errorf("expected empty deck with counter 0, got %d cards counter %d", len(d.Cards), d.NextID)
	}
}

func TestClear(t *testing.T) {
	d := New()
	d.Create()
	d.Create()
	d.Clear()
	if len(d.Cards) != 0 || d.NextID != 0 {
		t.Fatalf("expected empty deck and zero counter, got %d cards counter %d", len(d.Cards), d.NextID)
	}
	if c := d.Create(); c.ID != 1 {
		t.Errorf("expected id 1 after clear, got %d", c.ID)
	}
}

func TestLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "a\nb", []string{"a", "b"}},
		{"trims and drops empties", "  a  \n\n   \nb\n", []string{"a", "b"}},
		{"empty text", "", nil},
		{"whitespace only", "   \n  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lines(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Lines(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Lines(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodeStoredLegacyArrays(t *testing.T) {
	raw := []byte(`[
		{"id": 3, "title": ["Line one", "Line two"], "rows": ["r1"]},
		{"id": 1, "title": "Plain", "rows": "a\nb"}
	]`)

	cards, maxID, err := DecodeStored(raw)
	if err != nil {
		t.Fatalf("DecodeStored() error = %v", err)
	}
	if maxID != 3 {
		t.Errorf("expected maxID 3, got %d", maxID)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].Title != "Line one\nLine two" {
		t.Errorf("legacy array title not joined: %q", cards[0].Title)
	}
	if cards[0].Rows != "r1" {
		t.Errorf("legacy array rows not joined: %q", cards[0].Rows)
	}
	if cards[1].Title != "Plain" || cards[1].Rows != "a\nb" {
		t.Errorf("string fields mangled: %q / %q", cards[1].Title, cards[1].Rows)
	}
}

func TestDecodeStoredRoundTrip(t *testing.T) {
	orig := []Card{{ID: 1, Title: "T", Rows: "a\nb"}, {ID: 2, Title: "U", Rows: ""}}
	data, err := EncodeCards(orig)
	if err != nil {
		t.Fatalf("EncodeCards() error = %v", err)
	}
	cards, maxID, err := DecodeStored(data)
	if err != nil {
		t.Fatalf("DecodeStored() error = %v", err)
	}
	if maxID != 2 || len(cards) != 2 {
		t.Fatalf("round trip lost cards: %d cards maxID %d", len(cards), maxID)
	}
	for i := range orig {
		if cards[i] != orig[i] {
			t.Errorf("card %d = %+v, want %+v", i, cards[i], orig[i])
		}
	}
}

func TestDecodeStoredRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeStored([]byte(`[{"id":1,"title":42}]`)); err == nil {
		t.Error("expected error for numeric title")
	}
	if _, _, err := DecodeStored([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestDecodeStoredEmpty(t *testing.T) {
	cards, maxID, err := DecodeStored(nil)
	if err != nil {
		t.Fatalf("DecodeStored(nil) error = %v", err)
	}
	if len(cards) != 0 || maxID != 0 {
		t.Errorf("expected empty result, got %d cards maxID %d", len(cards), maxID)
	}
}
