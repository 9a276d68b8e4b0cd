package portgrid_test

import (
	"testing"

	"github.com/localnerve/bigstone-community/internal/portgrid"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateName(t *testing.T) {
	tests := []struct {
		dir   portgrid.Direction
		typ   string
		count int
		role  portgrid.Role
		want  string
	}{
		{portgrid.DirectionInput, "BIN", 1, portgrid.RoleStandard, "IBIN"},
		{portgrid.DirectionOutput, "HEX", 4, portgrid.RoleClock, "OHEX-4-CLK"},
		{portgrid.DirectionBidirectional, "BIN", 1, portgrid.RoleState, "BBIN-STATE"},
		{portgrid.DirectionInput, "HEX", 16, portgrid.RoleStandard, "IHEX-16"},
		{portgrid.DirectionOutput, "BIN", 0, portgrid.RoleReset, "OBIN-RST"},
		{portgrid.DirectionNone, "BIN", 1, portgrid.RoleStandard, ""},
		{portgrid.DirectionInput, "", 2, portgrid.RoleClock, ""},
	}
	for _, tt := range tests {
		got := portgrid.GenerateName(tt.dir, tt.typ, tt.count, tt.role)
		assert.Equal(t, tt.want, got, "GenerateName(%q, %q, %d, %q)", tt.dir, tt.typ, tt.count, tt.role)
	}
}

func TestParseRole(t *testing.T) {
	r, err := portgrid.ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, portgrid.RoleStandard, r)

	r, err = portgrid.ParseRole("clk")
	require.NoError(t, err)
	assert.Equal(t, portgrid.RoleClock, r)

	_, err = portgrid.ParseRole("DATA")
	assert.ErrorIs(t, err, types.ErrValidation)
}
