package sentinel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrict(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want *Token
	}{
		{"%SKIP%", &Token{Type: Skip}},
		{"%ABORT%", &Token{Type: Abort}},
		{"  %SKIP%  ", &Token{Type: Skip}},
		{"%SKIP%(no data)", &Token{Type: Skip, Reason: "no data"}},
		{"%SKIP% (no data)", &Token{Type: Skip, Reason: "no data"}},
		{"%ABORT% ( cannot verify )", &Token{Type: Abort, Reason: "cannot verify"}},
		{"%skip%", nil},
		{"%Skip%", nil},
		{"%SKIP:reason%", nil},
		{"%SKIP(reason)%", nil},
		{"%SKIP% trailing text", nil},
		{"%SKIP% (a) x", nil},
		{"SKIP", nil},
		{"", nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Parse(tc.in), "input %q", tc.in)
	}
}

func TestDetectLenient(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want *Token
	}{
		{"%SKIP%", &Token{Type: Skip}},
		{"%skip%", &Token{Type: Skip}},
		{"%Abort%", &Token{Type: Abort}},
		{"%skip% (no data)", &Token{Type: Skip, Reason: "no data"}},
		{"%skip%(no data)", &Token{Type: Skip, Reason: "no data"}},
		{"%SKIP:not applicable%", &Token{Type: Skip, Reason: "not applicable"}},
		{"%abort(gave up)%", &Token{Type: Abort, Reason: "gave up"}},
		{"%SKIP% some trailing words", &Token{Type: Skip}},
		{"plain value", nil},
		{"almost %SKIP%", nil},
		{"", nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Detect(tc.in), "input %q", tc.in)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	t.Parallel()

	tokens := []Token{
		{Type: Skip},
		{Type: Abort},
		{Type: Skip, Reason: "no data"},
		{Type: Abort, Reason: "cannot verify"},
	}
	for _, tok := range tokens {
		got := Parse(Format(tok))
		require.NotNil(t, got)
		assert.Equal(t, tok, *got)
	}
}

func TestStrictRejectsLenientOnly(t *testing.T) {
	t.Parallel()

	// Every string accepted only by Detect must be rejected by Parse.
	lenientOnly := []string{
		"%skip%",
		"%ABORT:reason%",
		"%skip(reason)%",
		"%SKIP% free trailing text",
	}
	for _, s := range lenientOnly {
		require.NotNil(t, Detect(s), "input %q", s)
		assert.Nil(t, Parse(s), "input %q", s)
	}
}
