package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/localnerve/bigstone-community/internal/portgrid"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/voting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestRenderGrid(t *testing.T) {
	plain(t)

	var buf bytes.Buffer
	renderGrid(&buf, &services.CombinedGridResult{
		Cells: []portgrid.CombinedCell{
			{X: 1, Y: 1, Kind: portgrid.KindInput, Ports: []string{"IBIN"}},
			{X: 16, Y: 16, Kind: portgrid.KindOutput, Ports: []string{"OBIN"}},
			{X: 2, Y: 1, Kind: portgrid.KindInput, Ports: []string{"IBIN", "BHEX"}},
		},
		Stats: portgrid.Stats{TotalPorts: 3, InputPorts: 1, OutputPorts: 1, BidirectionalPorts: 1, OccupiedCells: 3},
	})

	lines := strings.Split(buf.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 17)
	assert.True(t, strings.HasPrefix(lines[0], "16 "))
	assert.True(t, strings.HasSuffix(lines[0], " O"))
	assert.True(t, strings.HasPrefix(lines[15], " 1  I *"))
	assert.Contains(t, buf.String(), "3 ports: 1 input, 1 output, 1 bidirectional, 3 occupied cells")
}

func TestPrintStandards(t *testing.T) {
	plain(t)

	var buf bytes.Buffer
	printStandards(&buf, nil)
	assert.Equal(t, "no standards\n", buf.String())

	buf.Reset()
	printStandards(&buf, []services.StandardView{{
		ID:              "s-1",
		Title:           "Bus width",
		Status:          voting.StatusApproved,
		CreatorUsername: "alice",
		Votes:           voting.Counts{Approve: 3, Deny: 1, Total: 4},
		TimeRemaining:   "Voting ended",
	}})
	out := buf.String()
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Bus width")
	assert.Contains(t, out, "approved")
	assert.Contains(t, out, "Voting ended")
}

func TestPrintEvent(t *testing.T) {
	plain(t)

	var buf bytes.Buffer
	printEvent(&buf, session.Event{Type: session.EventSignedOut, UserID: "u-1", Username: "alex", At: time.Now()})
	assert.Contains(t, buf.String(), "sign-out  alex (u-1)")
}

func TestRootListsCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"migrate", "resolve", "standards", "ports", "sessions"})
}
