package invite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	slug := GenerateSlug("Raphael")
	require.True(t, strings.HasPrefix(slug, "raphael-"), "slug %q", slug)
	suffix := strings.TrimPrefix(slug, "raphael-")
	assert.Regexp(t, `^\d+$`, suffix)

	slug = GenerateSlug("  Raphael   De Souza ")
	assert.True(t, strings.HasPrefix(slug, "raphael-de-souza-"), "slug %q", slug)
}

func TestRecoverDisplayName(t *testing.T) {
	cases := []struct {
		slug string
		want string
	}{
		{"raphael-1718000000000", "Raphael"},
		{"raphael-de-souza-1718000000000", "Raphael De Souza"},
		{"raphael", "Raphael"},      // no timestamp suffix: strip is a no-op
		{"RAPHAEL-123", "Raphael"},  // casing normalized
		{"raphael-", "Raphael"},     // dangling dash, nothing to strip
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RecoverDisplayName(tc.slug), "slug %q", tc.slug)
	}
}

func TestGenerateRecoverRoundTrip(t *testing.T) {
	for _, name := range []string{"raphael", "ana maria", "LÉON"} {
		recovered := RecoverDisplayName(GenerateSlug(name))
		want := ""
		for i, w := range strings.Fields(strings.ToLower(name)) {
			if i > 0 {
				want += " "
			}
			want += strings.ToUpper(w[:1]) + w[1:]
		}
		assert.Equal(t, want, recovered, "name %q", name)
	}
}

func TestSlugsDistinguishSameName(t *testing.T) {
	a := GenerateSlug("raphael")
	b := GenerateSlug("raphael")
	// millisecond timestamps make collisions unlikely but not impossible
	// within one tick; both must still recover the same display name
	assert.Equal(t, "Raphael", RecoverDisplayName(a))
	assert.Equal(t, "Raphael", RecoverDisplayName(b))
}
