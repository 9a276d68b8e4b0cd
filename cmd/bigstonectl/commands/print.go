package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	blue   = color.New(color.FgBlue)
	faint  = color.New(color.Faint)
)

func noColor() {
	color.NoColor = true
}

func success(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ "+format+"\n", a...)
}

// fail prints a titled error with hints to stderr and returns a short error for cobra
func fail(title, explanation string, hints ...string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	fmt.Fprintf(os.Stderr, "%s\n", explanation)
	for _, h := range hints {
		fmt.Fprintf(os.Stderr, "\n  %s\n", h)
	}
	return fmt.Errorf("%s", title)
}
