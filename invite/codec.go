// Package invite implements the referral-chain identity codec: the
// token that carries an inviter's name and phone through a shared URL,
// and the slug that identifies one link in a chain of invites.
package invite

import (
	"encoding/base64"
	"net/url"
	"strings"
	"unicode/utf8"
)

const separator = '|'

// Encode packs a (name, phone) pair into a single URL-safe token:
// base64(name) "|" base64(phone). It is a convenience encoding, not a
// signed credential; anyone can mint one.
func Encode(name, phone string) string {
	return base64.StdEncoding.EncodeToString([]byte(name)) +
		string(separator) +
		base64.StdEncoding.EncodeToString([]byte(phone))
}

// escapes restores the percent-escapes intermediate URL layers most
// commonly leave behind in a token.
var escapes = strings.NewReplacer(
	"%3D", "=", "%3d", "=",
	"%2B", "+", "%2b", "+",
	"%2F", "/", "%2f", "/",
)

// strategies are tried in order; the first one whose output yields a
// valid UTF-8 string for both halves wins. Tokens reach us having been
// percent-decoded zero, one or two times by intermediate URL handling,
// so no single transform is correct for every link in the wild.
var strategies = []func(string) (string, bool){
	func(s string) (string, bool) {
		d, err := url.PathUnescape(s)
		return d, err == nil
	},
	func(s string) (string, bool) {
		return s, true
	},
	func(s string) (string, bool) {
		return escapes.Replace(s), true
	},
}

// Decode recovers the (name, phone) pair from a token. The third
// return value is false when no decode strategy succeeds; callers
// treat that as "no inviter known", never a hard error.
func Decode(token string) (name, phone string, ok bool) {
	if token == "" {
		return "", "", false
	}
	for _, transform := range strategies {
		t, valid := transform(token)
		if !valid {
			continue
		}
		i := strings.IndexByte(t, separator)
		if i < 0 {
			continue
		}
		n, okName := decodeHalf(t[:i])
		p, okPhone := decodeHalf(t[i+1:])
		if okName && okPhone {
			return n, p, true
		}
	}
	return "", "", false
}

// decodeHalf extracts the longest run of base64 alphabet characters,
// re-pads it to a multiple of four and attempts a standard decode.
// The run extraction is what makes the codec survive stray characters
// left by double-encoding.
func decodeHalf(s string) (string, bool) {
	run := longestBase64Run(s)
	run = strings.TrimRight(run, "=")
	switch len(run) % 4 {
	case 1:
		return "", false
	case 2:
		run += "=="
	case 3:
		run += "="
	}
	raw, err := base64.StdEncoding.DecodeString(run)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

func isBase64(c byte) bool {
	return c >= 'A' && c <= 'Z' ||
		c >= 'a' && c <= 'z' ||
		c >= '0' && c <= '9' ||
		c == '+' || c == '/' || c == '='
}

func longestBase64Run(s string) string {
	best, start := "", -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && isBase64(s[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start > len(best) {
			best = s[start:i]
		}
		start = -1
	}
	return best
}
