package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/localnerve/bigstone-community/internal/models"
	"github.com/localnerve/bigstone-community/internal/portgrid"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/testutil"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func inputPin(x, y int, color string) []portgrid.Cell {
	cells := []portgrid.Cell{{X: x, Y: y, Kind: portgrid.KindInput, Color: color}}
	if color != "" && y > 1 {
		cells = append(cells, portgrid.Cell{X: x, Y: y - 1, Kind: portgrid.KindColor, Color: color})
	}
	return cells
}

// backdate sets created_at so ordering tests do not depend on clock resolution
func backdate(t *testing.T, db *gorm.DB, model interface{}, id string, at time.Time) {
	t.Helper()
	require.NoError(t, db.Model(model).Where("id = ?", id).Update("created_at", at).Error)
}

func TestCreatePortDerivesDirectionAndName(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")

	cells := append(inputPin(3, 5, "red"), portgrid.Cell{X: 9, Y: 2, Kind: portgrid.KindOutput})
	port, err := services.CreatePort(db, alice, services.PortInput{
		Type:      "hex",
		PortCount: 4,
		Role:      "clk",
		Cells:     cells,
	})
	require.NoError(t, err)

	assert.Equal(t, "BHEX-4-CLK", port.Name)
	assert.Equal(t, "B", port.Direction)
	assert.Equal(t, "Bidirectional", port.DirectionLabel)
	assert.Equal(t, []string{"red"}, port.Colors)
	require.NotNil(t, port.CreatedBy)
	assert.Equal(t, alice.ID, *port.CreatedBy)

	stored, err := services.GetPort(db, port.ID)
	require.NoError(t, err)
	assert.Len(t, stored.GridData, 3)
}

func TestCreatePortAnonymous(t *testing.T) {
	db := testutil.NewTestDB(t)

	port, err := services.CreatePort(db, nil, services.PortInput{Type: "BIN", PortCount: 1, Cells: inputPin(1, 1, "")})
	require.NoError(t, err)
	assert.Equal(t, "IBIN", port.Name)
	assert.Nil(t, port.CreatedBy)
}

func TestCreatePortValidation(t *testing.T) {
	db := testutil.NewTestDB(t)

	tests := []struct {
		name string
		in   services.PortInput
	}{
		{"empty grid", services.PortInput{Type: "BIN", PortCount: 1}},
		{"markers only", services.PortInput{Type: "BIN", PortCount: 1, Cells: []portgrid.Cell{{X: 1, Y: 1, Color: "red"}}}},
		{"out of range", services.PortInput{Type: "BIN", PortCount: 1, Cells: []portgrid.Cell{{X: 17, Y: 1, Kind: portgrid.KindInput}}}},
		{"zero count", services.PortInput{Type: "BIN", PortCount: 0, Cells: inputPin(1, 1, "")}},
		{"count too large", services.PortInput{Type: "BIN", PortCount: portgrid.MaxPortCount + 1, Cells: inputPin(1, 1, "")}},
		{"bad role", services.PortInput{Type: "BIN", PortCount: 1, Role: "XYZ", Cells: inputPin(1, 1, "")}},
		{"no type", services.PortInput{PortCount: 1, Cells: inputPin(1, 1, "")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := services.CreatePort(db, nil, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrValidation), "got %v", err)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Port{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListPortsFiltersAndOrders(t *testing.T) {
	db := testutil.NewTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := testutil.CreateTestPort(t, db, "IBIN", nil, inputPin(1, 1, ""))
	newer := testutil.CreateTestPort(t, db, "OHEX-4", nil, []portgrid.Cell{{X: 2, Y: 2, Kind: portgrid.KindOutput}})
	require.NoError(t, db.Model(&models.Port{}).Where("id = ?", newer.ID).Update("description", "Clock Divider").Error)
	backdate(t, db, &models.Port{}, older.ID, base)
	backdate(t, db, &models.Port{}, newer.ID, base.Add(time.Hour))

	all, err := services.ListPorts(db, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	found, err := services.ListPorts(db, "  clock ")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, newer.ID, found[0].ID)

	found, err = services.ListPorts(db, "ibin")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, older.ID, found[0].ID)
}

func TestDeletePortOwnership(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")

	owned := testutil.CreateTestPort(t, db, "IBIN", alice, inputPin(1, 1, ""))
	unowned := testutil.CreateTestPort(t, db, "OBIN", nil, []portgrid.Cell{{X: 1, Y: 1, Kind: portgrid.KindOutput}})

	err := services.DeletePort(db, nil, owned.ID)
	assert.True(t, errors.Is(err, types.ErrAuthRequired))

	err = services.DeletePort(db, bob, owned.ID)
	assert.True(t, errors.Is(err, types.ErrForbidden))

	require.NoError(t, services.DeletePort(db, alice, owned.ID))
	_, err = services.GetPort(db, owned.ID)
	assert.True(t, errors.Is(err, types.ErrNotFound))

	// ports without a recorded creator can be removed by any signed in user
	require.NoError(t, services.DeletePort(db, bob, unowned.ID))

	err = services.DeletePort(db, alice, "missing")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestCombinedGrid(t *testing.T) {
	db := testutil.NewTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := testutil.CreateTestPort(t, db, "IBIN", nil, inputPin(4, 4, ""))
	second := testutil.CreateTestPort(t, db, "OHEX", nil, []portgrid.Cell{
		{X: 4, Y: 4, Kind: portgrid.KindOutput, Color: "blue"},
		{X: 5, Y: 5, Kind: portgrid.KindOutput},
	})
	backdate(t, db, &models.Port{}, first.ID, base.Add(time.Hour))
	backdate(t, db, &models.Port{}, second.ID, base)

	result, err := services.CombinedGrid(db)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.TotalPorts)
	assert.Equal(t, 1, result.Stats.InputPorts)
	assert.Equal(t, 1, result.Stats.OutputPorts)
	assert.Equal(t, 2, result.Stats.OccupiedCells)

	require.Len(t, result.Cells, 2)
	shared := result.Cells[0]
	assert.Equal(t, []string{"IBIN", "OHEX"}, shared.Ports)
	assert.Equal(t, portgrid.KindInput, shared.Kind)
	assert.Equal(t, "blue", shared.Color)
}

func TestCombinedGridEmpty(t *testing.T) {
	db := testutil.NewTestDB(t)
	result, err := services.CombinedGrid(db)
	require.NoError(t, err)
	assert.Empty(t, result.Cells)
	assert.NotNil(t, result.Cells)
}

func TestPreviewPort(t *testing.T) {
	preview, err := services.PreviewPort(services.PortInput{
		Type:      "bin",
		PortCount: 1,
		Role:      "STATE",
		Cells:     []portgrid.Cell{{X: 2, Y: 3, Kind: portgrid.KindInput}, {X: 3, Y: 3, Kind: portgrid.KindOutput}},
	})
	require.NoError(t, err)
	assert.Equal(t, portgrid.DirectionBidirectional, preview.Direction)
	assert.Equal(t, "BBIN-STATE", preview.Name)

	preview, err = services.PreviewPort(services.PortInput{Type: "BIN"})
	require.NoError(t, err)
	assert.Equal(t, "", preview.Name)
}
