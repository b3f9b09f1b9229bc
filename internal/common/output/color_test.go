package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestPlanColorMatchesDecision tests that each upgrade decision label is
// rendered with its own ANSI color
func TestPlanColorMatchesDecision(t *testing.T) {
	ForceColor()
	defer NoColor()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	planColorCodes := map[string]string{
		"safe":         "\x1b[32m", // Green
		"unsafe":       "\x1b[33m", // Yellow
		"undetermined": "\x1b[31m", // Red
		"none":         "\x1b[2m",  // Faint
	}

	planGen := gen.OneConstOf("safe", "unsafe", "undetermined", "none")

	properties.Property("FormatPlan contains correct ANSI code for decision", prop.ForAll(
		func(plan string) bool {
			return strings.Contains(FormatPlan(plan), planColorCodes[plan])
		},
		planGen,
	))

	properties.Property("FormatPlan output contains the decision text", prop.ForAll(
		func(plan string) bool {
			return strings.Contains(FormatPlan(plan), plan)
		},
		planGen,
	))

	properties.TestingRun(t)
}

// TestNoColorDisablesANSICodes tests that --no-color strips escape sequences
func TestNoColorDisablesANSICodes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Sprint contains no ANSI codes when NoColor is set", prop.ForAll(
		func(text string) bool {
			NoColor()
			defer ForceColor()

			colors := []*color.Color{Success, Error, Info, Warning, Match}
			for _, c := range colors {
				if strings.Contains(Sprint(c, text), "\x1b[") {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("Highlight keeps text unchanged when NoColor is set", prop.ForAll(
		func(line, term string) bool {
			NoColor()
			defer ForceColor()
			return Highlight(line, term) == line
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
	NoColor()
}

func TestHighlight(t *testing.T) {
	ForceColor()
	defer NoColor()

	line := "vim-gtk3 - Vi IMproved - enhanced vi editor (VIM)"
	got := Highlight(line, "vim")

	if strings.Count(got, "\x1b[31;1m") != 2 && strings.Count(got, "\x1b[1;31m") != 2 {
		t.Errorf("expected two highlighted matches, got %q", got)
	}
	if Highlight(line, "") != line {
		t.Error("empty term should leave the line untouched")
	}
}

func TestBannerIncludesVersion(t *testing.T) {
	NoColor()
	buf := new(bytes.Buffer)
	old := Stdout
	Stdout = buf
	defer func() { Stdout = old }()

	Banner("2.0.0")

	out := buf.String()
	if !strings.Contains(out, "K4YT3X Package Manager") || !strings.Contains(out, "2.0.0") {
		t.Errorf("banner should include name and version, got:\n%s", out)
	}
}
