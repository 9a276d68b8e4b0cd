package portgrid

import (
	"strconv"
	"strings"

	"github.com/localnerve/bigstone-community/internal/types"
)

// Direction is the I/O classification of a port. The value is the code used in port names.
type Direction string

const (
	DirectionNone          Direction = ""
	DirectionInput         Direction = "I"
	DirectionOutput        Direction = "O"
	DirectionBidirectional Direction = "B"
)

// Label is the human readable direction name.
func (d Direction) Label() string {
	switch d {
	case DirectionInput:
		return "Input"
	case DirectionOutput:
		return "Output"
	case DirectionBidirectional:
		return "Bidirectional"
	}
	return "No ports placed"
}

// DirectionOf classifies a set of cells. Colour markers never count.
func DirectionOf(cells []Cell) Direction {
	var in, out bool
	for _, c := range cells {
		switch c.Kind {
		case KindInput:
			in = true
		case KindOutput:
			out = true
		}
	}
	switch {
	case in && out:
		return DirectionBidirectional
	case in:
		return DirectionInput
	case out:
		return DirectionOutput
	}
	return DirectionNone
}

// Role is the functional role of a port.
type Role string

const (
	RoleStandard Role = "SD"
	RoleState    Role = "STATE"
	RoleClock    Role = "CLK"
	RoleReset    Role = "RST"
)

// ParseRole accepts a role code. An empty code is the standard role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case "":
		return RoleStandard, nil
	case RoleStandard, RoleState, RoleClock, RoleReset:
		return r, nil
	}
	return "", types.Validation("unknown role %q", s)
}

// MaxPortCount bounds the number of physical pins one logical port may represent.
const MaxPortCount = Size

// GenerateName builds the canonical port name, for example "OHEX-4-CLK".
// It returns "" until both a direction and a type are known. Names are not unique.
func GenerateName(dir Direction, portType string, portCount int, role Role) string {
	if dir == DirectionNone || portType == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(string(dir))
	b.WriteString(portType)
	if portCount > 1 {
		b.WriteByte('-')
		b.WriteString(strconv.Itoa(portCount))
	}
	if role != "" && role != RoleStandard {
		b.WriteByte('-')
		b.WriteString(string(role))
	}
	return b.String()
}
