package upgrade

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const simulateOutput = `NOTE: This is only a simulation!
      apt-get needs root privileges for real execution.
      Keep also in mind that locking is deactivated,
      so don't depend on the relevance to the real current situation!
Reading package lists...
Building dependency tree...
Reading state information...
Calculating upgrade...
The following packages will be upgraded:
  libssl3 openssl
%s
Inst libssl3 [3.0.11-1] (3.0.13-1 Debian:12.5/stable [amd64])
Conf libssl3 (3.0.13-1 Debian:12.5/stable [amd64])
`

func TestClassifyScenarios(t *testing.T) {
	tests := []struct {
		name     string
		summary  string
		wantPlan Plan
		wantNone bool
		wantSafe bool
	}{
		{
			name:     "nothing to upgrade",
			summary:  "0 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.",
			wantPlan: PlanNoneAvailable,
			wantNone: true,
			wantSafe: true,
		},
		{
			name:     "safe upgrade",
			summary:  "12 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.",
			wantPlan: PlanSafe,
			wantSafe: true,
		},
		{
			name:     "upgrade removes packages",
			summary:  "3 upgraded, 0 newly installed, 2 to remove and 0 not upgraded.",
			wantPlan: PlanUnsafe,
		},
		{
			name:     "held packages only",
			summary:  "0 upgraded, 0 newly installed, 0 to remove and 4 not upgraded.",
			wantPlan: PlanNoneAvailable,
			wantNone: true,
			wantSafe: true,
		},
		{
			name:     "new dependency is still an upgrade",
			summary:  "0 upgraded, 1 newly installed, 0 to remove and 0 not upgraded.",
			wantPlan: PlanSafe,
			wantSafe: true,
		},
		{
			name:     "extra spacing",
			summary:  "  5  upgraded,  2 newly installed, 0 to remove and 1 not upgraded.",
			wantPlan: PlanSafe,
			wantSafe: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, summary, err := Classify(fmt.Sprintf(simulateOutput, tt.summary))
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if plan != tt.wantPlan {
				t.Errorf("plan = %v, want %v", plan, tt.wantPlan)
			}
			if summary.NoUpgradesAvailable() != tt.wantNone {
				t.Errorf("NoUpgradesAvailable() = %v, want %v", summary.NoUpgradesAvailable(), tt.wantNone)
			}
			if summary.Safe() != tt.wantSafe {
				t.Errorf("Safe() = %v, want %v", summary.Safe(), tt.wantSafe)
			}
		})
	}
}

func TestParseSummaryCounts(t *testing.T) {
	s, err := ParseSummary("7 upgraded, 3 newly installed, 2 to remove and 9 not upgraded.")
	if err != nil {
		t.Fatalf("ParseSummary() error = %v", err)
	}
	want := Summary{Upgraded: 7, NewlyInstalled: 3, ToRemove: 2, NotUpgraded: 9}
	if s != want {
		t.Errorf("ParseSummary() = %+v, want %+v", s, want)
	}
}

func TestParseSummarySkipsMalformedLines(t *testing.T) {
	input := `3 upgraded, 2 newly installed
and
0 upgraded,, 0 to remove
1 upgraded, 0 newly installed, 1 to remove and 0 not upgraded.
`
	s, err := ParseSummary(input)
	if err != nil {
		t.Fatalf("ParseSummary() error = %v", err)
	}
	if s.Upgraded != 1 || s.ToRemove != 1 {
		t.Errorf("expected the well-formed line to win, got %+v", s)
	}
}

func TestClassifyWithoutSummaryIsUndetermined(t *testing.T) {
	inputs := []string{
		"",
		"E: Could not open lock file /var/lib/dpkg/lock-frontend - open (13: Permission denied)",
		"Reading package lists...\nBuilding dependency tree...\n",
	}

	for _, in := range inputs {
		plan, _, err := Classify(in)
		if plan != PlanUndetermined {
			t.Errorf("Classify(%q) plan = %v, want undetermined", in, plan)
		}
		if !errors.Is(err, ErrSummaryNotFound) {
			t.Errorf("Classify(%q) error = %v, want ErrSummaryNotFound", in, err)
		}
	}
}

func TestPlanString(t *testing.T) {
	tests := map[Plan]string{
		PlanUndetermined:  "undetermined",
		PlanNoneAvailable: "none",
		PlanSafe:          "safe",
		PlanUnsafe:        "unsafe",
	}
	for plan, want := range tests {
		if plan.String() != want {
			t.Errorf("Plan(%d).String() = %q, want %q", plan, plan.String(), want)
		}
	}
}

// TestClassifierProperties checks the classifier against the counts it was
// given for every well-formed summary line
func TestClassifierProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	count := gen.IntRange(0, 3000)

	properties.Property("Safe iff nothing to remove", prop.ForAll(
		func(x, y, z, w int) bool {
			line := fmt.Sprintf("%d upgraded, %d newly installed, %d to remove and %d not upgraded.", x, y, z, w)
			s, err := ParseSummary(line)
			return err == nil && s.Safe() == (z == 0)
		},
		count, count, count, count,
	))

	properties.Property("NoUpgradesAvailable iff nothing upgraded or installed", prop.ForAll(
		func(x, y, z, w int) bool {
			line := fmt.Sprintf("%d upgraded, %d newly installed, %d to remove and %d not upgraded.", x, y, z, w)
			s, err := ParseSummary(line)
			return err == nil && s.NoUpgradesAvailable() == (x == 0 && y == 0)
		},
		count, count, count, count,
	))

	properties.Property("summary is found among noise lines", prop.ForAll(
		func(noise string, x, z int) bool {
			input := noise + "\n" + fmt.Sprintf("%d upgraded, 0 newly installed, %d to remove and 0 not upgraded.", x, z) + "\n" + noise
			s, err := ParseSummary(input)
			return err == nil && s.Upgraded == x && s.ToRemove == z
		},
		gen.AlphaString(),
		count, count,
	))

	properties.Property("text without a summary never classifies", prop.ForAll(
		func(noise string) bool {
			plan, _, err := Classify(noise)
			return plan == PlanUndetermined && errors.Is(err, ErrSummaryNotFound)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestParseSummaryAfterLongLine(t *testing.T) {
	input := strings.Repeat("Inst pkg ", 10*1024) + "\n2 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.\n"
	plan, s, err := Classify(input)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if plan != PlanSafe || s.Upgraded != 2 {
		t.Errorf("Classify() = %v, %+v; want safe with 2 upgraded", plan, s)
	}
}
