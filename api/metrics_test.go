package api_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/metassr/bench/api"
)

func TestTrimToRectShortTextUnchanged(t *testing.T) {
	s := "Requests/sec: 1234.56\nTransfer/sec: 2.5MB"
	require.Equal(t, s, api.TrimToRect(s, 40, 80))
}

func TestTrimToRectCapsHeight(t *testing.T) {
	s := strings.Repeat("line\n", 100)
	got := api.TrimToRect(s, 5, 80)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 6)
	require.Equal(t, "[...]", lines[5])
}

func TestTrimToRectCapsWidth(t *testing.T) {
	got := api.TrimToRect(strings.Repeat("x", 300), 5, 10)
	require.Equal(t, strings.Repeat("x", 10)+"[...]", got)
}

func TestTrimToRectCountsRunesNotBytes(t *testing.T) {
	// 20 runes, 40 bytes; the cut must not land inside a UTF-8 sequence
	got := api.TrimToRect(strings.Repeat("µ", 20), 5, 10)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, strings.Repeat("µ", 10)+"[...]", got)
}

func TestTrimToRectEmpty(t *testing.T) {
	require.Equal(t, "", api.TrimToRect("", 40, 80))
}
