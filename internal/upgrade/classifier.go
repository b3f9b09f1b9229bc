package upgrade

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrSummaryNotFound indicates the simulation output had no summary line,
	// so the upgrade can be judged neither safe nor unsafe
	ErrSummaryNotFound = errors.New("package manager summary line not found")
)

// Plan is the classifier's verdict on a simulated operation
type Plan int

const (
	PlanUndetermined Plan = iota
	PlanNoneAvailable
	PlanSafe
	PlanUnsafe
)

var planNames = map[Plan]string{
	PlanUndetermined:  "undetermined",
	PlanNoneAvailable: "none",
	PlanSafe:          "safe",
	PlanUnsafe:        "unsafe",
}

func (p Plan) String() string {
	return planNames[p]
}

// Summary holds the four counts apt prints after a simulation
type Summary struct {
	Upgraded       int
	NewlyInstalled int
	ToRemove       int
	NotUpgraded    int
}

// NoUpgradesAvailable reports whether nothing would be upgraded or installed.
// Held-back packages do not count.
func (s Summary) NoUpgradesAvailable() bool {
	return s.Upgraded == 0 && s.NewlyInstalled == 0
}

// Safe reports whether the operation removes no packages
func (s Summary) Safe() bool {
	return s.ToRemove == 0
}

// summaryRegex matches "N upgraded, M newly installed, K to remove and J not upgraded"
var summaryRegex = regexp.MustCompile(`(\d+)\s+upgraded,\s*(\d+)\s+newly\s+installed,\s*(\d+)\s+to\s+remove\s+and\s+(\d+)\s+not\s+upgraded`)

// ParseSummary scans simulation output for the summary line and returns its
// counts. Lines that do not match are skipped, whatever their length.
func ParseSummary(output string) (Summary, error) {
	for _, line := range strings.Split(output, "\n") {
		if s, ok := parseSummaryLine(line); ok {
			return s, nil
		}
	}
	return Summary{}, ErrSummaryNotFound
}

func parseSummaryLine(line string) (Summary, bool) {
	m := summaryRegex.FindStringSubmatch(line)
	if m == nil {
		return Summary{}, false
	}

	var counts [4]int
	for i := range counts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Summary{}, false
		}
		counts[i] = n
	}

	return Summary{
		Upgraded:       counts[0],
		NewlyInstalled: counts[1],
		ToRemove:       counts[2],
		NotUpgraded:    counts[3],
	}, true
}

// Classify turns simulation output into a Plan. Without a summary line it
// returns PlanUndetermined and ErrSummaryNotFound.
func Classify(output string) (Plan, Summary, error) {
	s, err := ParseSummary(output)
	if err != nil {
		return PlanUndetermined, Summary{}, err
	}

	switch {
	case s.NoUpgradesAvailable():
		return PlanNoneAvailable, s, nil
	case s.Safe():
		return PlanSafe, s, nil
	default:
		return PlanUnsafe, s, nil
	}
}
