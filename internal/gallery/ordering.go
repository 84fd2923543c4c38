package gallery

import "dealerpix/api/internal/models"

// Reapply converts a move gesture into the full new id order: movedID is
// removed from its current position and reinserted at targetIndex, which is
// clamped into range. Unknown movedID returns the order unchanged.
func Reapply(order []string, movedID string, targetIndex int) []string {
	out := make([]string, 0, len(order))
	found := false
	for _, id := range order {
		if id == movedID {
			found = true
			continue
		}
		out = append(out, id)
	}
	if !found {
		return out
	}

	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex > len(out) {
		targetIndex = len(out)
	}

	out = append(out, "")
	copy(out[targetIndex+1:], out[targetIndex:])
	out[targetIndex] = movedID
	return out
}

// Assignments maps an id order to the dense ordinal range 1..N. The whole
// set is always submitted so the backend can apply it atomically.
func Assignments(order []string) []models.OrdinalAssignment {
	assignments := make([]models.OrdinalAssignment, len(order))
	for i, id := range order {
		assignments[i] = models.OrdinalAssignment{ID: id, Ordinal: i + 1}
	}
	return assignments
}
