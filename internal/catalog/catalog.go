// Package catalog loads the selectable port types, roles, colour palette and voting durations.
// Handlers enforce these lists; the portgrid and voting packages accept any value.
package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/localnerve/bigstone-community/data"
	"github.com/localnerve/bigstone-community/internal/portgrid"
	"github.com/localnerve/bigstone-community/internal/types"
	"gopkg.in/yaml.v3"
)

// Option is a code with a display label.
type Option struct {
	Code  string `yaml:"code" json:"code"`
	Label string `yaml:"label" json:"label"`
}

// Color is a named palette entry.
type Color struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Duration is a selectable voting window.
type Duration struct {
	Label    string        `yaml:"label" json:"label"`
	Duration time.Duration `yaml:"duration" json:"-"`
	Millis   int64         `yaml:"-" json:"durationMs"`
	Default  bool          `yaml:"default" json:"default,omitempty"`
}

// Catalog is the full set of options.
type Catalog struct {
	PortTypes       []Option   `yaml:"portTypes" json:"portTypes"`
	Roles           []Option   `yaml:"roles" json:"roles"`
	Palette         []Color    `yaml:"palette" json:"palette"`
	VotingDurations []Duration `yaml:"votingDurations" json:"votingDurations"`
	GridSize        int        `yaml:"-" json:"gridSize"`
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(data.Catalog)
}

// Load reads a catalog file, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.GridSize = portgrid.Size
	for i := range c.VotingDurations {
		c.VotingDurations[i].Millis = c.VotingDurations[i].Duration.Milliseconds()
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.PortTypes) == 0 {
		return fmt.Errorf("catalog: at least one port type is required")
	}
	for _, r := range c.Roles {
		if _, err := portgrid.ParseRole(r.Code); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}
	if len(c.VotingDurations) == 0 {
		return fmt.Errorf("catalog: at least one voting duration is required")
	}
	defaults := 0
	for _, d := range c.VotingDurations {
		if d.Duration <= 0 {
			return fmt.Errorf("catalog: voting duration %q must be positive", d.Label)
		}
		if d.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("catalog: only one default voting duration is allowed")
	}
	return nil
}

// PortType checks that code is a catalog port type.
func (c *Catalog) PortType(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, t := range c.PortTypes {
		if t.Code == code {
			return code, nil
		}
	}
	return "", types.Validation("unknown port type %q", code)
}

// VotingDuration checks that d is one of the selectable windows.
// A zero d selects the default window.
func (c *Catalog) VotingDuration(d time.Duration) (time.Duration, error) {
	if d == 0 {
		for _, v := range c.VotingDurations {
			if v.Default {
				return v.Duration, nil
			}
		}
		return c.VotingDurations[0].Duration, nil
	}
	for _, v := range c.VotingDurations {
		if v.Duration == d {
			return d, nil
		}
	}
	return 0, types.Validation("voting duration %s is not offered", d)
}
