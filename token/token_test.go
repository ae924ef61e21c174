package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupKeywords(t *testing.T) {
	for spelling, want := range keywords {
		got, ok := Lookup(spelling)
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	_, ok := Lookup("not_a_keyword")
	require.False(t, ok)
}

func TestLookupPunctuation(t *testing.T) {
	for ch, want := range punctuation {
		got, ok := LookupPunctuation(ch)
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	_, ok := LookupPunctuation('@')
	require.False(t, ok)
}

func TestTypeStringIsHumanReadable(t *testing.T) {
	require.Equal(t, "end of file", EOF.String())
	require.Equal(t, "identifier", Identifier.String())
	require.Equal(t, "number", Number.String())
	require.Equal(t, "`if`", If.String())
	require.Equal(t, "`(`", OpenParen.String())
}
