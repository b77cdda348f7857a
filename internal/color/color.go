package color

import (
	"fmt"
	"os"
	"strings"
)

// ANSI color codes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Bold   = "\033[1m"
)

// Color represents a colorizer that can be enabled or disabled
type Color struct {
	enabled bool
}

// New creates a new Color instance
func New(enabled bool) *Color {
	return &Color{enabled: enabled && shouldEnableColor()}
}

// shouldEnableColor determines if color should be enabled based on environment
func shouldEnableColor() bool {
	// Check NO_COLOR environment variable (https://no-color.org/)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}

	return true
}

// Add colors a string to indicate additions (green)
func (c *Color) Add(text string) string {
	if !c.enabled {
		return text
	}
	return Green + text + Reset
}

// Change colors a string to indicate modifications (yellow)
func (c *Color) Change(text string) string {
	if !c.enabled {
		return text
	}
	return Yellow + text + Reset
}

// Destroy colors a string to indicate deletions (red)
func (c *Color) Destroy(text string) string {
	if !c.enabled {
		return text
	}
	return Red + text + Reset
}

// Header colors text cyan for section headers
func (c *Color) Header(text string) string {
	if !c.enabled {
		return text
	}
	return Cyan + text + Reset
}

// Warn colors warning text yellow
func (c *Color) Warn(text string) string {
	if !c.enabled {
		return text
	}
	return Yellow + text + Reset
}

// Symbol returns the plan symbol for an action verb
func (c *Color) Symbol(action string) string {
	switch action {
	case "add", "create":
		return c.Add("+")
	case "change", "modify", "alter":
		return c.Change("~")
	case "destroy", "drop":
		return c.Destroy("-")
	default:
		return " "
	}
}

// FormatPlanHeader formats the top-level plan summary line
func (c *Color) FormatPlanHeader(added, modified, dropped int) string {
	parts := []string{
		c.Add(fmt.Sprintf("%d to add", added)),
		c.Change(fmt.Sprintf("%d to modify", modified)),
		c.Destroy(fmt.Sprintf("%d to drop", dropped)),
	}
	return fmt.Sprintf("Plan: %s.", strings.Join(parts, ", "))
}
