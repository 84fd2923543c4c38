package gallery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dealerpix/api/internal/models"
)

func TestReapply(t *testing.T) {
	tests := []struct {
		name        string
		order       []string
		movedID     string
		targetIndex int
		want        []string
	}{
		{"drag last to front", []string{"id1", "id2", "id3"}, "id3", 0, []string{"id3", "id1", "id2"}},
		{"drag first to back", []string{"id1", "id2", "id3"}, "id1", 2, []string{"id2", "id3", "id1"}},
		{"drag to middle", []string{"id1", "id2", "id3", "id4"}, "id4", 1, []string{"id1", "id4", "id2", "id3"}},
		{"same position", []string{"id1", "id2"}, "id2", 1, []string{"id1", "id2"}},
		{"negative index clamps", []string{"id1", "id2"}, "id2", -3, []string{"id2", "id1"}},
		{"overflow index clamps", []string{"id1", "id2", "id3"}, "id1", 99, []string{"id2", "id3", "id1"}},
		{"unknown id keeps order", []string{"id1", "id2"}, "nope", 0, []string{"id1", "id2"}},
		{"single element", []string{"id1"}, "id1", 0, []string{"id1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reapply(tt.order, tt.movedID, tt.targetIndex)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReapplyDoesNotMutateInput(t *testing.T) {
	order := []string{"id1", "id2", "id3"}
	Reapply(order, "id3", 0)
	require.Equal(t, []string{"id1", "id2", "id3"}, order)
}

func TestAssignmentsAreDense(t *testing.T) {
	got := Assignments([]string{"id3", "id1", "id2"})
	require.Equal(t, []models.OrdinalAssignment{
		{ID: "id3", Ordinal: 1},
		{ID: "id1", Ordinal: 2},
		{ID: "id2", Ordinal: 3},
	}, got)
}
