// Package portgrid models the 16x16 port layout grid: pin and colour marker placement,
// direction inference and canonical port naming.
package portgrid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/localnerve/bigstone-community/internal/types"
)

// Size is the width and height of the grid. Coordinates run from 1 to Size, (1,1) is bottom-left.
const Size = 16

// Kind is the annotation type of a cell.
type Kind string

const (
	KindColor  Kind = ""
	KindInput  Kind = "input"
	KindOutput Kind = "output"
)

// IsPin reports whether the kind is an input or output pin.
func (k Kind) IsPin() bool {
	return k == KindInput || k == KindOutput
}

// MarshalJSON writes colour markers as null to match the stored grid_data format.
func (k Kind) MarshalJSON() ([]byte, error) {
	if k == KindColor {
		return []byte("null"), nil
	}
	return json.Marshal(string(k))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (k *Kind) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*k = KindColor
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cell type: %w", err)
	}
	switch Kind(s) {
	case KindInput, KindOutput, KindColor:
		*k = Kind(s)
		return nil
	}
	return fmt.Errorf("cell type: unknown %q", s)
}

// Cell is one annotation on the grid.
type Cell struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Kind  Kind   `json:"type"`
	Color string `json:"color,omitempty"`
}

type coord struct{ x, y int }

// Grid is a sparse set of cells with at most one cell per coordinate.
// The zero value is an empty grid ready to use.
type Grid struct {
	cells map[coord]Cell
}

// New builds a grid from stored cells. Duplicate coordinates resolve to the last cell.
func New(cells []Cell) (*Grid, error) {
	g := &Grid{}
	for _, c := range cells {
		if err := checkCoord(c.X, c.Y); err != nil {
			return nil, err
		}
		if !c.Kind.IsPin() && c.Kind != KindColor {
			return nil, types.Validation("cell (%d,%d): unknown type %q", c.X, c.Y, c.Kind)
		}
		if c.Kind == KindColor && c.Color == "" {
			return nil, types.Validation("cell (%d,%d): colour marker without colour", c.X, c.Y)
		}
		g.set(c)
	}
	return g, nil
}

func checkCoord(x, y int) error {
	if x < 1 || x > Size || y < 1 || y > Size {
		return types.Validation("coordinates (%d,%d) outside the %dx%d grid", x, y, Size, Size)
	}
	return nil
}

func (g *Grid) set(c Cell) {
	if g.cells == nil {
		g.cells = make(map[coord]Cell)
	}
	g.cells[coord{c.X, c.Y}] = c
}

// Place puts a cell at (x,y), replacing any cell there. A pin placed above row 1 also puts a
// colour marker carrying the same colour directly below it.
func (g *Grid) Place(x, y int, kind Kind, color string) error {
	if err := checkCoord(x, y); err != nil {
		return err
	}
	switch {
	case kind.IsPin():
	case kind == KindColor:
		if color == "" {
			return types.Validation("colour marker at (%d,%d) requires a colour", x, y)
		}
	default:
		return types.Validation("unknown cell type %q", kind)
	}

	g.set(Cell{X: x, Y: y, Kind: kind, Color: color})
	if kind.IsPin() && y > 1 && color != "" {
		g.set(Cell{X: x, Y: y - 1, Kind: KindColor, Color: color})
	}
	return nil
}

// Erase removes the cell at (x,y) and the colour marker directly below it.
// A pin below (x,y) is left in place.
func (g *Grid) Erase(x, y int) error {
	if err := checkCoord(x, y); err != nil {
		return err
	}
	delete(g.cells, coord{x, y})
	below := coord{x, y - 1}
	if c, ok := g.cells[below]; ok && c.Kind == KindColor {
		delete(g.cells, below)
	}
	return nil
}

// EditOp is a drawing action on the grid.
type EditOp string

const (
	OpPlace EditOp = "place"
	OpErase EditOp = "erase"
)

// Edit is one place or erase action from the drawing tool.
type Edit struct {
	Op    EditOp `json:"op"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Kind  Kind   `json:"type"`
	Color string `json:"color,omitempty"`
}

// Apply runs edits in order. It stops at the first failing edit and reports its position;
// edits before it stay applied.
func (g *Grid) Apply(edits []Edit) error {
	for i, e := range edits {
		var err error
		switch e.Op {
		case OpPlace:
			err = g.Place(e.X, e.Y, e.Kind, e.Color)
		case OpErase:
			err = g.Erase(e.X, e.Y)
		default:
			err = types.Validation("unknown grid operation %q", e.Op)
		}
		var ce *types.CustomError
		if errors.As(err, &ce) {
			return types.Validation("edit %d: %s", i+1, ce.Message)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// At returns the cell at (x,y).
func (g *Grid) At(x, y int) (Cell, bool) {
	c, ok := g.cells[coord{x, y}]
	return c, ok
}

// Len is the number of occupied coordinates.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Cells returns the cells ordered by row then column.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.cells))
	for _, c := range g.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Direction is derived from the pins on the grid on every call.
func (g *Grid) Direction() Direction {
	return DirectionOf(g.Cells())
}

// Colors returns the distinct colours used on the grid.
func (g *Grid) Colors() []string {
	return Colors(g.Cells())
}

// Colors returns the distinct non-empty colours of the cells in first-seen order.
func Colors(cells []Cell) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range cells {
		if c.Color == "" {
			continue
		}
		if _, ok := seen[c.Color]; ok {
			continue
		}
		seen[c.Color] = struct{}{}
		out = append(out, c.Color)
	}
	return out
}
