package portgrid_test

import (
	"testing"

	"github.com/localnerve/bigstone-community/internal/portgrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineFirstColorWins(t *testing.T) {
	layouts := []portgrid.Layout{
		{Name: "IBIN", Direction: portgrid.DirectionInput, Cells: []portgrid.Cell{{X: 3, Y: 3, Kind: portgrid.KindInput, Color: "red"}}},
		{Name: "OHEX", Direction: portgrid.DirectionOutput, Cells: []portgrid.Cell{{X: 3, Y: 3, Kind: portgrid.KindOutput, Color: "blue"}}},
	}

	got := portgrid.Combine(layouts)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"IBIN", "OHEX"}, got[0].Ports)
	assert.Equal(t, "red", got[0].Color)
	assert.Equal(t, portgrid.KindInput, got[0].Kind)
}

func TestCombineFillsMissingColor(t *testing.T) {
	layouts := []portgrid.Layout{
		{Name: "A", Cells: []portgrid.Cell{{X: 1, Y: 2, Kind: portgrid.KindInput}}},
		{Name: "B", Cells: []portgrid.Cell{{X: 1, Y: 2, Kind: portgrid.KindInput, Color: "green"}, {X: 9, Y: 9, Kind: portgrid.KindOutput}}},
		{Name: "C", Cells: []portgrid.Cell{{X: 0, Y: 0, Kind: portgrid.KindOutput}}},
	}

	got := portgrid.Combine(layouts)
	require.Len(t, got, 2)
	assert.Equal(t, "green", got[0].Color)
	assert.Equal(t, []string{"A", "B"}, got[0].Ports)
	assert.Equal(t, []string{"B"}, got[1].Ports)
}

func TestSummarize(t *testing.T) {
	layouts := []portgrid.Layout{
		{Name: "A", Direction: portgrid.DirectionInput, Cells: []portgrid.Cell{{X: 1, Y: 2, Kind: portgrid.KindInput}, {X: 1, Y: 1, Color: "red"}}},
		{Name: "B", Direction: portgrid.DirectionBidirectional, Cells: []portgrid.Cell{{X: 1, Y: 2, Kind: portgrid.KindOutput}}},
		{Name: "C", Direction: portgrid.DirectionOutput},
	}

	assert.Equal(t, portgrid.Stats{
		TotalPorts:         3,
		InputPorts:         1,
		OutputPorts:        1,
		BidirectionalPorts: 1,
		OccupiedCells:      2,
	}, portgrid.Summarize(layouts))
}
