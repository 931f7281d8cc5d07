package deck

import "testing"

func testCards() []Card {
	return []Card{
		{ID: 1, Title: "A"},
		{ID: 2, Title: "B"},
		{ID: 3, Title: "C"},
		{ID: 4, Title: "D"},
	}
}

func assertOrder(t *testing.T, cards []Card, want ...int) {
	t.Helper()
	if len(cards) != len(want) {
		t.Fatalf("expected %d cards, got %d", len(want), len(cards))
	}
	for i, id := range want {
		if cards[i].ID != id {
			got := make([]int, len(cards))
			for j, c := range cards {
				got[j] = c.ID
			}
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestReorderDragForwardAfterTarget(t *testing.T) {
	// [A,B,C,D], drag A after C -> [B,C,A,D]
	got := Reorder(testCards(), 1, 3, false)
	assertOrder(t, got, 2, 3, 1, 4)
}

func TestReorderDragBackwardBeforeTarget(t *testing.T) {
	// [A,B,C,D], drag D before A -> [D,A,B,C]
	got := Reorder(testCards(), 4, 1, true)
	assertOrder(t, got, 4, 1, 2, 3)
}

func TestReorderForwardBeforeTarget(t *testing.T) {
	// [A,B,C,D], drag A before C -> [B,A,C,D]
	got := Reorder(testCards(), 1, 3, true)
	assertOrder(t, got, 2, 1, 3, 4)
}

func TestReorderBackwardAfterTarget(t *testing.T) {
	// [A,B,C,D], drag D after A -> [A,D,B,C]
	got := Reorder(testCards(), 4, 1, false)
	assertOrder(t, got, 1, 4, 2, 3)
}

func TestReorderAdjacentSwap(t *testing.T) {
	got := Reorder(testCards(), 2, 1, true)
	assertOrder(t, got, 2, 1, 3, 4)

	got = Reorder(testCards(), 1, 2, false)
	assertOrder(t, got, 2, 1, 3, 4)
}

func TestReorderMissingIDsAreNoOps(t *testing.T) {
	got := Reorder(testCards(), 99, 1, true)
	assertOrder(t, got, 1, 2, 3, 4)

	got = Reorder(testCards(), 1, 99, false)
	assertOrder(t, got, 1, 2, 3, 4)
}

func TestReorderSameIDIsNoOp(t *testing.T) {
	got := Reorder(testCards(), 2, 2, true)
	assertOrder(t, got, 1, 2, 3, 4)
}

func TestReorderIdempotentOnResolvedOrder(t *testing.T) {
	once := Reorder(testCards(), 1, 3, false)
	twice := Reorder(once, 1, 3, false)
	assertOrder(t, twice, 2, 3, 1, 4)
	// A third application still settles on the same order.
	assertOrder(t, Reorder(twice, 1, 3, false), 2, 3, 1, 4)
}

func TestReorderDoesNotMutateInput(t *testing.T) {
	cards := testCards()
	_ = Reorder(cards, 1, 3, false)
	assertOrder(t, cards, 1, 2, 3, 4)
}

func TestReorderPreservesCardCount(t *testing.T) {
	for _, before := range []bool{true, false} {
		for dragged := 1; dragged <= 4; dragged++ {
			for target := 1; target <= 4; target++ {
				got := Reorder(testCards(), dragged, target, before)
				if len(got) != 4 {
					t.Fatalf("drag %d->%d before=%v: lost or duplicated cards: %d", dragged, target, before, len(got))
				}
				seen := map[int]bool{}
				for _, c := range got {
					if seen[c.ID] {
						t.Fatalf("drag %d->%d before=%v: duplicate id %d", dragged, target, before, c.ID)
					}
					seen[c.ID] = true
				}
			}
		}
	}
}
