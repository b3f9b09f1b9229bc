package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
)

var (
	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header = color.New(color.FgWhite, color.Bold)
	Match  = color.New(color.FgRed, color.Bold)

	// Banner colors
	bannerK = color.New(color.FgRed, color.Bold)
	bannerP = color.New(color.FgGreen, color.Bold)
	bannerM = color.New(color.FgMagenta, color.Bold)
	bannerV = color.New(color.FgHiYellow, color.Bold)
)

// Stdout is where console helpers write. Tests replace it.
var Stdout io.Writer = os.Stdout

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// PlanColor returns the color used for an upgrade decision label
func PlanColor(plan string) *color.Color {
	switch plan {
	case "safe":
		return Success
	case "unsafe":
		return Warning
	case "undetermined":
		return Error
	case "none":
		return Dim
	default:
		return color.New(color.Reset)
	}
}

// FormatPlan formats an upgrade decision label with its color
func FormatPlan(plan string) string {
	return PlanColor(plan).Sprintf("[%s]", plan)
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Fprintf(Stdout, "✓ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Fprintf(Stdout, "→ "+format+"\n", args...)
}

// Sprint returns a colored string without printing
func Sprint(c *color.Color, a ...interface{}) string {
	return c.Sprint(a...)
}

// Highlight colors every case-insensitive occurrence of term in line
func Highlight(line, term string) string {
	if term == "" {
		return line
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(term))
	if err != nil {
		return line
	}
	return re.ReplaceAllStringFunc(line, func(m string) string {
		return Match.Sprint(m)
	})
}

// HighlightLines applies Highlight to each line of a multi-line block
func HighlightLines(text, term string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = Highlight(line, term)
	}
	return strings.Join(lines, "\n")
}

// Banner prints the kpm logo followed by the version
func Banner(version string) {
	rows := [][3]string{
		{`  _  __  `, ` ____   `, ` __  __ `},
		{` | |/ /  `, `|  _ \  `, `|  \/  |`},
		{` | ' /   `, `| |_) | `, `| |\/| |`},
		{` | . \   `, `|  __/  `, `| |  | |`},
		{` |_|\_\  `, `|_|     `, `|_|  |_|`},
	}
	for _, r := range rows {
		fmt.Fprintln(Stdout, bannerK.Sprint(r[0])+bannerP.Sprint(r[1])+bannerM.Sprint(r[2]))
	}
	fmt.Fprintf(Stdout, "\n %s %s\n\n", Header.Sprint("K4YT3X Package Manager"), bannerV.Sprint(version))
}

// Box prints a boxed message
func Box(title, content string) {
	fmt.Fprintln(Stdout)
	Header.Fprintln(Stdout, "┌─ "+title+" ─")
	fmt.Fprintln(Stdout, "│")
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintln(Stdout, "│  "+line)
	}
	fmt.Fprintln(Stdout, "│")
	Header.Fprintln(Stdout, "└────────────────")
	fmt.Fprintln(Stdout)
}
