// combined.go
//
// Port library, standards voting and project collaboration for redstone builders
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of bigstone-community.
// bigstone-community is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// bigstone-community is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with bigstone-community.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package portgrid

// Layout is a named set of cells, typically a stored port.
type Layout struct {
	Name      string
	Direction Direction
	Cells     []Cell
}

// CombinedCell aggregates every port that occupies one coordinate.
type CombinedCell struct {
	X     int      `json:"x"`
	Y     int      `json:"y"`
	Kind  Kind     `json:"type"`
	Ports []string `json:"ports"`
	Color string   `json:"color,omitempty"`
}

// Combine overlays layouts in input order. All contributing names are kept, the first
// non-empty colour wins and the kind comes from the first cell seen at a coordinate.
// Cells outside the grid are skipped.
func Combine(layouts []Layout) []CombinedCell {
	index := make(map[coord]int)
	var out []CombinedCell

	for _, l := range layouts {
		for _, c := range l.Cells {
			if checkCoord(c.X, c.Y) != nil {
				continue
			}
			key := coord{c.X, c.Y}
			if i, ok := index[key]; ok {
				out[i].Ports = append(out[i].Ports, l.Name)
				if out[i].Color == "" && c.Color != "" {
					out[i].Color = c.Color
				}
				continue
			}
			index[key] = len(out)
			out = append(out, CombinedCell{
				X:     c.X,
				Y:     c.Y,
				Kind:  c.Kind,
				Ports: []string{l.Name},
				Color: c.Color,
			})
		}
	}
	return out
}

// Stats summarises a set of layouts for the combined view.
type Stats struct {
	TotalPorts         int `json:"totalPorts"`
	InputPorts         int `json:"inputPorts"`
	OutputPorts        int `json:"outputPorts"`
	BidirectionalPorts int `json:"bidirectionalPorts"`
	OccupiedCells      int `json:"occupiedCells"`
}

// Summarize counts layouts by stored direction and distinct occupied coordinates.
func Summarize(layouts []Layout) Stats {
	s := Stats{TotalPorts: len(layouts)}
	occupied := make(map[coord]struct{})
	for _, l := range layouts {
		switch l.Direction {
		case DirectionInput:
			s.InputPorts++
		case DirectionOutput:
			s.OutputPorts++
		case DirectionBidirectional:
			s.BidirectionalPorts++
		}
		for _, c := range l.Cells {
			if checkCoord(c.X, c.Y) == nil {
				occupied[coord{c.X, c.Y}] = struct{}{}
			}
		}
	}
	s.OccupiedCells = len(occupied)
	return s
}
