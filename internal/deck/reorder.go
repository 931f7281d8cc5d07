package deck

// Reorder computes the card order after dragging draggedID onto targetID.
// insertBefore says whether the dragged card lands before or after the
// target; the caller derives it from drop-point geometry.
//
// Missing ids and draggedID == targetID leave the order unchanged — the drag
// target may have been removed by another editor action mid-gesture, so this
// is a silent no-op rather than an error. Re-applying a move that already
// resolved leaves the list as-is by the same arithmetic.
func Reorder(cards []Card, draggedID, targetID int, insertBefore bool) []Card {
	if draggedID == targetID {
		return cards
	}

	draggedIndex := -1
	targetIndex := -1
	for i, c := range cards {
		switch c.ID {
		case draggedID:
			draggedIndex = i
		case targetID:
			targetIndex = i
		}
	}
	if draggedIndex == -1 || targetIndex == -1 {
		return cards
	}

	dragged := cards[draggedIndex]
	rest := make([]Card, 0, len(cards)-1)
	rest = append(rest, cards[:draggedIndex]...)
	rest = append(rest, cards[draggedIndex+1:]...)

	// Removal shifted everything after draggedIndex left by one, so the
	// insertion point needs compensating when the target sat past the
	// dragged card.
	insertAt := targetIndex
	if insertBefore {
		if targetIndex > draggedIndex {
			insertAt = targetIndex - 1
		}
	} else {
		if targetIndex < draggedIndex {
			insertAt = targetIndex + 1
		}
	}

	result := make([]Card, 0, len(cards))
	result = append(result, rest[:insertAt]...)
	result = append(result, dragged)
	result = append(result, rest[insertAt:]...)
	return result
}
