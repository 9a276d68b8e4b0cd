package commands

import (
	"fmt"
	"io"

	"github.com/localnerve/bigstone-community/internal/portgrid"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Inspect the port library",
}

var portsGridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Draw the combined grid of every stored port",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		result, err := services.CombinedGrid(e.db.WithContext(cmd.Context()))
		if err != nil {
			return fail("Could not load ports", err.Error())
		}
		renderGrid(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	portsCmd.AddCommand(portsGridCmd)
}

// renderGrid draws row 16 first so (1,1) is bottom-left. Cells shared by several ports are
// marked with '*'.
func renderGrid(w io.Writer, result *services.CombinedGridResult) {
	cells := make(map[[2]int]portgrid.CombinedCell, len(result.Cells))
	for _, c := range result.Cells {
		cells[[2]int{c.X, c.Y}] = c
	}

	for y := portgrid.Size; y >= 1; y-- {
		fmt.Fprintf(w, "%2d ", y)
		for x := 1; x <= portgrid.Size; x++ {
			c, ok := cells[[2]int{x, y}]
			if !ok {
				faint.Fprint(w, " .")
				continue
			}
			fmt.Fprint(w, " ")
			fmt.Fprint(w, cellGlyph(c))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, "   ")
	for x := 1; x <= portgrid.Size; x++ {
		fmt.Fprintf(w, "%2d", x%10)
	}
	fmt.Fprintln(w)

	s := result.Stats
	fmt.Fprintf(w, "\n%d ports: %d input, %d output, %d bidirectional, %d occupied cells\n",
		s.TotalPorts, s.InputPorts, s.OutputPorts, s.BidirectionalPorts, s.OccupiedCells)
}

func cellGlyph(c portgrid.CombinedCell) string {
	if len(c.Ports) > 1 {
		return yellow.Sprint("*")
	}
	switch c.Kind {
	case portgrid.KindInput:
		return green.Sprint("I")
	case portgrid.KindOutput:
		return red.Sprint("O")
	}
	return cyan.Sprint("c")
}
