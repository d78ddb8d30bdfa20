package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeNormalizes(t *testing.T) {
	t.Parallel()

	tok := New(WithStopwords(nil))
	require.Equal(t,
		[]string{"quick", "brown", "fox", "jumps", "42", "times"},
		tok.Tokenize("Quick, Brown FOX jumps 42 times!"))
}

func TestTokenizeRemovesStopwords(t *testing.T) {
	t.Parallel()

	tok := New()
	require.Equal(t, []string{"quick", "brown", "fox"}, tok.Tokenize("the quick brown fox"))
}

func TestTokenizeLengthFilter(t *testing.T) {
	t.Parallel()

	tok := New(WithStopwords(nil), WithLengthBounds(3, 5))
	require.Equal(t, []string{"abc", "abcde"}, tok.Tokenize("ab abc abcde abcdef"))
}

func TestTokenizeEmpty(t *testing.T) {
	t.Parallel()

	tok := New()
	require.Empty(t, tok.Tokenize(""))
	require.Empty(t, tok.Tokenize("!!! ---"))
	require.Empty(t, tok.Tokenize("the and of"))
}

func TestTokenizePreservesOrderAndDuplicates(t *testing.T) {
	t.Parallel()

	tok := New(WithStopwords(nil))
	require.Equal(t,
		[]string{"go", "go", "stop", "go"},
		tok.Tokenize("go go stop go"))
}
