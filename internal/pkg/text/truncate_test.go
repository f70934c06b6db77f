package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "abcdef", Truncate("abcdef", 0))
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "-", ShortTitle(""))
	assert.Equal(t, "Bitcoin Up or Down", ShortTitle("Bitcoin Up or Down"))

	long := strings.Repeat("x", 120)
	got := ShortTitle(long)
	assert.Len(t, got, shortTitleLen+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}
