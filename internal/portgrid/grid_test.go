package portgrid_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/localnerve/bigstone-community/internal/portgrid"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const red, blue = "#ef4444", "#3b82f6"

func TestPlacePinAddsColorMarkerBelow(t *testing.T) {
	for y := 2; y <= portgrid.Size; y++ {
		var g portgrid.Grid
		require.NoError(t, g.Place(5, y, portgrid.KindInput, red))

		marker, ok := g.At(5, y-1)
		require.True(t, ok, "marker missing below y=%d", y)
		assert.Equal(t, portgrid.KindColor, marker.Kind)
		assert.Equal(t, red, marker.Color)
		assert.Equal(t, 2, g.Len())
	}
}

func TestPlaceOnBottomRowHasNoMarker(t *testing.T) {
	var g portgrid.Grid
	require.NoError(t, g.Place(1, 1, portgrid.KindOutput, red))
	assert.Equal(t, 1, g.Len())
}

func TestPlaceOverwritesExistingMarker(t *testing.T) {
	var g portgrid.Grid
	require.NoError(t, g.Place(3, 4, portgrid.KindInput, red))
	require.NoError(t, g.Place(3, 4, portgrid.KindOutput, blue))

	pin, _ := g.At(3, 4)
	marker, _ := g.At(3, 3)
	assert.Equal(t, portgrid.KindOutput, pin.Kind)
	assert.Equal(t, blue, marker.Color)
	assert.Equal(t, 2, g.Len())
}

func TestPlaceRejectsOutOfRange(t *testing.T) {
	var g portgrid.Grid
	for _, xy := range [][2]int{{0, 1}, {1, 0}, {17, 1}, {1, 17}, {-3, 4}} {
		err := g.Place(xy[0], xy[1], portgrid.KindInput, red)
		assert.True(t, errors.Is(err, types.ErrValidation), "(%d,%d)", xy[0], xy[1])
	}
	assert.Equal(t, 0, g.Len())
}

func TestPlaceColorMarkerRequiresColor(t *testing.T) {
	var g portgrid.Grid
	assert.ErrorIs(t, g.Place(2, 2, portgrid.KindColor, ""), types.ErrValidation)
	require.NoError(t, g.Place(2, 2, portgrid.KindColor, red))
	assert.Equal(t, 1, g.Len())
}

func TestEraseRemovesMarkerButNotPinBelow(t *testing.T) {
	var g portgrid.Grid
	require.NoError(t, g.Place(7, 7, portgrid.KindInput, red))
	require.NoError(t, g.Erase(7, 7))
	assert.Equal(t, 0, g.Len())

	// pin stacked directly below another pin survives the erase
	require.NoError(t, g.Place(7, 6, portgrid.KindOutput, ""))
	require.NoError(t, g.Place(7, 7, portgrid.KindInput, ""))
	require.NoError(t, g.Erase(7, 7))
	below, ok := g.At(7, 6)
	require.True(t, ok)
	assert.Equal(t, portgrid.KindOutput, below.Kind)
}

func TestEraseThenPlaceMatchesPlace(t *testing.T) {
	seed := func() *portgrid.Grid {
		g, err := portgrid.New([]portgrid.Cell{
			{X: 4, Y: 9, Kind: portgrid.KindOutput, Color: blue},
			{X: 4, Y: 8, Kind: portgrid.KindColor, Color: blue},
			{X: 10, Y: 2, Kind: portgrid.KindInput},
		})
		require.NoError(t, err)
		return g
	}

	a := seed()
	require.NoError(t, a.Erase(4, 9))
	require.NoError(t, a.Place(4, 9, portgrid.KindInput, red))

	b := seed()
	require.NoError(t, b.Place(4, 9, portgrid.KindInput, red))

	if diff := cmp.Diff(b.Cells(), a.Cells()); diff != "" {
		t.Errorf("grid mismatch (-place +erase,place):\n%s", diff)
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		name  string
		cells []portgrid.Cell
		want  portgrid.Direction
	}{
		{"empty", nil, portgrid.DirectionNone},
		{"markers only", []portgrid.Cell{{X: 1, Y: 1, Color: red}}, portgrid.DirectionNone},
		{"input", []portgrid.Cell{{X: 1, Y: 2, Kind: portgrid.KindInput}, {X: 1, Y: 1, Color: red}}, portgrid.DirectionInput},
		{"output", []portgrid.Cell{{X: 1, Y: 2, Kind: portgrid.KindOutput}}, portgrid.DirectionOutput},
		{"both", []portgrid.Cell{{X: 1, Y: 2, Kind: portgrid.KindOutput}, {X: 2, Y: 2, Kind: portgrid.KindInput}}, portgrid.DirectionBidirectional},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := portgrid.New(tt.cells)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Direction())
		})
	}
}

func TestNewRejectsBadCells(t *testing.T) {
	_, err := portgrid.New([]portgrid.Cell{{X: 0, Y: 3, Kind: portgrid.KindInput}})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = portgrid.New([]portgrid.Cell{{X: 2, Y: 3}})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCellJSONMatchesStoredFormat(t *testing.T) {
	raw := `[{"x":3,"y":4,"type":"input","color":"#ef4444"},{"x":3,"y":3,"type":null,"color":"#ef4444"}]`

	var cells []portgrid.Cell
	require.NoError(t, json.Unmarshal([]byte(raw), &cells))
	require.Len(t, cells, 2)
	assert.Equal(t, portgrid.KindInput, cells[0].Kind)
	assert.Equal(t, portgrid.KindColor, cells[1].Kind)

	out, err := json.Marshal(cells)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))

	var bad portgrid.Cell
	assert.Error(t, json.Unmarshal([]byte(`{"x":1,"y":1,"type":"sideways"}`), &bad))
}

func TestColors(t *testing.T) {
	var g portgrid.Grid
	require.NoError(t, g.Place(1, 5, portgrid.KindInput, red))
	require.NoError(t, g.Place(2, 5, portgrid.KindInput, red))
	require.NoError(t, g.Place(3, 5, portgrid.KindOutput, blue))
	assert.ElementsMatch(t, []string{red, blue}, g.Colors())
}

func TestApplyEdits(t *testing.T) {
	var edits []portgrid.Edit
	require.NoError(t, json.Unmarshal([]byte(`[
		{"op":"place","x":3,"y":4,"type":"input","color":"#ef4444"},
		{"op":"place","x":5,"y":2,"type":"output","color":"#3b82f6"},
		{"op":"erase","x":3,"y":4}
	]`), &edits))

	var g portgrid.Grid
	require.NoError(t, g.Apply(edits))

	want := []portgrid.Cell{
		{X: 5, Y: 1, Kind: portgrid.KindColor, Color: blue},
		{X: 5, Y: 2, Kind: portgrid.KindOutput, Color: blue},
	}
	if diff := cmp.Diff(want, g.Cells()); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, portgrid.DirectionOutput, g.Direction())
}

func TestApplyStopsAtFirstBadEdit(t *testing.T) {
	var g portgrid.Grid
	err := g.Apply([]portgrid.Edit{
		{Op: portgrid.OpPlace, X: 1, Y: 1, Kind: portgrid.KindInput},
		{Op: "fill", X: 2, Y: 2},
		{Op: portgrid.OpPlace, X: 3, Y: 3, Kind: portgrid.KindInput},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
	assert.Contains(t, err.Error(), "edit 2")
	assert.Equal(t, 1, g.Len())

	err = g.Apply([]portgrid.Edit{{Op: portgrid.OpErase, X: 0, Y: 1}})
	assert.True(t, errors.Is(err, types.ErrValidation))
}
