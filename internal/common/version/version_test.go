package version

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		v1, v2   string
		expected int
	}{
		{"1.9", "1.10", -1},
		{"1.10", "1.9", 1},
		{"1.6.1", "1.6.1", 0},
		{"v1.6.1", "1.6.1", 0},
		{"1.2", "1.2.0", 0},
		{"2.0", "1.99.99", 1},
		{"1.0.0-rc1", "1.0.0", -1},
		{"1.0-beta", "1.0-alpha", 1},
		{"0.9", "0.10.1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.v1+"_vs_"+tt.v2, func(t *testing.T) {
			if got := Compare(tt.v1, tt.v2); got != tt.expected {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.expected)
			}
		})
	}
}

func TestIsNewer(t *testing.T) {
	if !IsNewer("1.9", "1.10") {
		t.Error("1.10 should be newer than 1.9")
	}
	if IsNewer("1.10", "1.10") {
		t.Error("equal versions are not newer")
	}
	if IsNewer("2.0.0", "v1.7.0") {
		t.Error("1.7.0 should not be newer than 2.0.0")
	}
}

// TestCompareNumericOrdering checks that component-wise comparison agrees with
// integer ordering for every generated major.minor pair
func TestCompareNumericOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genPart := gen.IntRange(0, 2000)

	properties.Property("Compare matches integer ordering of minor versions", prop.ForAll(
		func(major, a, b int) bool {
			v1 := fmt.Sprintf("%d.%d", major, a)
			v2 := fmt.Sprintf("%d.%d", major, b)
			got := Compare(v1, v2)
			switch {
			case a < b:
				return got == -1
			case a > b:
				return got == 1
			default:
				return got == 0
			}
		},
		genPart, genPart, genPart,
	))

	properties.Property("Compare is antisymmetric", prop.ForAll(
		func(a, b, c, d int) bool {
			v1 := fmt.Sprintf("%d.%d", a, b)
			v2 := fmt.Sprintf("%d.%d", c, d)
			return Compare(v1, v2) == -Compare(v2, v1)
		},
		genPart, genPart, genPart, genPart,
	))

	properties.TestingRun(t)
}

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, "kpm version "+Version) {
		t.Errorf("Info() should start with the version line, got %q", info)
	}
	if Short() != Version {
		t.Errorf("Short() = %q, want %q", Short(), Version)
	}
}
