package upgrade

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const updateWithKeyErrors = `Hit:1 http://deb.debian.org/debian bookworm InRelease
Get:2 http://ppa.launchpad.net/foo/ubuntu jammy InRelease [18.1 kB]
Err:2 http://ppa.launchpad.net/foo/ubuntu jammy InRelease
  The following signatures couldn't be verified because the public key is not available: NO_PUBKEY 8B48AD6246925553
Get:3 https://repo.example.com stable InRelease [3,012 B]
Err:3 https://repo.example.com stable InRelease
  The following signatures were invalid: EXPKEYSIG 6ED0E7B82643E131 Example Repo <repo@example.com>
W: GPG error: http://ppa.launchpad.net/foo/ubuntu jammy InRelease: The following signatures couldn't be verified because the public key is not available: NO_PUBKEY 8B48AD6246925553
Reading package lists...
`

func TestScanKeys(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"no markers", "Hit:1 http://deb.debian.org/debian bookworm InRelease\nReading package lists...\n", nil},
		{
			name:     "missing and expired keys in discovery order",
			input:    updateWithKeyErrors,
			expected: []string{"8B48AD6246925553", "6ED0E7B82643E131", "8B48AD6246925553"},
		},
		{
			name:     "marker without id",
			input:    "W: something NO_PUBKEY\nEXPKEYSIG\n",
			expected: nil,
		},
		{
			name:     "trailing whitespace",
			input:    "W: GPG error: NO_PUBKEY ABCDEF0123456789   \r\n",
			expected: []string{"ABCDEF0123456789"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanKeys(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ScanKeys() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// genKeyID generates 16 character uppercase hex key IDs
func genKeyID() gopter.Gen {
	return gen.RegexMatch(`^[0-9A-F]{16}$`)
}

func TestScanKeysProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a NO_PUBKEY token appears exactly once", prop.ForAll(
		func(id string) bool {
			line := fmt.Sprintf("W: GPG error: http://example.org stable InRelease: The following signatures couldn't be verified because the public key is not available: NO_PUBKEY %s", id)
			got := ScanKeys("Hit:1 http://example.org\n" + line + "\nReading package lists...\n")
			return len(got) == 1 && got[0] == id
		},
		genKeyID(),
	))

	properties.Property("scanning is idempotent", prop.ForAll(
		func(ids []string) bool {
			var b strings.Builder
			for i, id := range ids {
				if i%2 == 0 {
					fmt.Fprintf(&b, "  public key is not available: NO_PUBKEY %s\n", id)
				} else {
					fmt.Fprintf(&b, "  signatures were invalid: EXPKEYSIG %s Someone <a@b.c>\n", id)
				}
			}
			first := ScanKeys(b.String())
			second := ScanKeys(b.String())
			return reflect.DeepEqual(first, second) && len(first) == len(ids)
		},
		gen.SliceOf(genKeyID()),
	))

	properties.Property("discovery order is preserved", prop.ForAll(
		func(ids []string) bool {
			var b strings.Builder
			for _, id := range ids {
				fmt.Fprintf(&b, "NO_PUBKEY %s\n", id)
			}
			got := ScanKeys(b.String())
			if len(ids) == 0 {
				return len(got) == 0
			}
			return reflect.DeepEqual(got, ids)
		},
		gen.SliceOf(genKeyID()),
	))

	properties.TestingRun(t)
}

func TestScanKeysAfterLongLine(t *testing.T) {
	input := strings.Repeat("x", 70*1024) + "\nW: GPG error: NO_PUBKEY 8B48AD6246925553\n"
	got := ScanKeys(input)
	if !reflect.DeepEqual(got, []string{"8B48AD6246925553"}) {
		t.Errorf("ScanKeys() = %v, want the key after the long line", got)
	}
}
