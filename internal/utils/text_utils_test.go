package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRedactFlattensLineBreaks(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "a  b", tp.Redact("a\r\nb"))
	assert.Equal(t, "one two", tp.Redact("one\ntwo"))
	assert.Equal(t, "trimmed", tp.Redact("\n  trimmed \r\n"))
	assert.Equal(t, "", tp.Redact("\r\n\r\n"))
}

func TestTruncateByteLimit(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "abc", tp.Truncate("abcdef", 3))
	assert.Equal(t, "abc", tp.Truncate("abc", 3))
	assert.Equal(t, "abc", tp.Truncate("abc", 100))
}

func TestTruncateDisabledOnNonPositiveLimit(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	long := strings.Repeat("x", 5000)
	assert.Equal(t, long, tp.Truncate(long, 0))
	assert.Equal(t, long, tp.Truncate(long, -1))
}

func TestTruncateNeverSplitsUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// "héllo" is 6 bytes; cutting at 2 lands mid-rune.
	got := tp.Truncate("héllo", 2)
	assert.Equal(t, "h", got)
	assert.True(t, utf8.ValidString(got))
}
