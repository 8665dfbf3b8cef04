package invite

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		phone string
	}{
		{"Raphael", "501234567"},
		{"José Álvarez", "+971 50 123 4567"},
		{"山田太郎", "0311234567"},
		{"", ""},
		{"name with spaces", ""},
		{"", "971501234567"},
	}
	for _, tc := range cases {
		token := Encode(tc.name, tc.phone)
		name, phone, ok := Decode(token)
		require.True(t, ok, "token %q", token)
		assert.Equal(t, tc.name, name)
		assert.Equal(t, tc.phone, phone)
	}
}

func TestDecodeAfterPercentEncoding(t *testing.T) {
	token := Encode("José Álvarez", "+971501234567")

	name, phone, ok := Decode(url.QueryEscape(token))
	require.True(t, ok)
	assert.Equal(t, "José Álvarez", name)
	assert.Equal(t, "+971501234567", phone)
}

func TestDecodeHexEncodedHalf(t *testing.T) {
	// an intermediate layer hex-encoded every byte of the name half but
	// left the separator alone
	token := Encode("Raphael", "501234567")
	parts := strings.SplitN(token, "|", 2)
	hexed := ""
	for i := 0; i < len(parts[0]); i++ {
		hexed += fmt.Sprintf("%%%02X", parts[0][i])
	}
	name, phone, ok := Decode(hexed + "|" + parts[1])
	require.True(t, ok)
	assert.Equal(t, "Raphael", name)
	assert.Equal(t, "501234567", phone)
}

func TestDecodeLiteralEscapedPadding(t *testing.T) {
	// padding rendered as %3D by an intermediate layer
	token := Encode("Raphael", "50")
	mangled := ""
	for _, c := range token {
		if c == '=' {
			mangled += "%3D"
		} else {
			mangled += string(c)
		}
	}
	name, phone, ok := Decode(mangled)
	require.True(t, ok)
	assert.Equal(t, "Raphael", name)
	assert.Equal(t, "50", phone)
}

func TestDecodeEmptyHalvesSurviveNoise(t *testing.T) {
	// junk around the separator decodes to empty halves, which the UI
	// treats the same as no inviter
	name, phone, ok := Decode("%%%|%%%")
	require.True(t, ok)
	assert.Empty(t, name)
	assert.Empty(t, phone)
}

func TestDecodeFailure(t *testing.T) {
	for _, token := range []string{
		"",
		"no-separator-here",
		"a|b", // one leftover char cannot be valid base64
	} {
		_, _, ok := Decode(token)
		assert.False(t, ok, "token %q", token)
	}
}

func TestDecodeInvalidUTF8(t *testing.T) {
	// base64 of a lone 0xff byte is not valid UTF-8
	_, _, ok := Decode("/w==|/w==")
	assert.False(t, ok)
}
