package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	short := "short text"
	assert.Equal(t, short, tp.TruncateText(short, 100))
	assert.Equal(t, short, tp.TruncateText(short, 0))

	long := strings.Repeat("a", 50)
	got := tp.TruncateText(long, 10)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("a", 10)))
	assert.Contains(t, got, "Content truncated")
}

func TestTruncateTextRespectsUTF8Boundary(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// "é" is two bytes; cutting at 3 would split the second rune
	got := tp.TruncateText("ééé", 3)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasPrefix(got, "é"))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	clean := "perfectly valid"
	assert.Equal(t, clean, tp.SanitizeUTF8(clean))

	dirty := "bad\xffbyte"
	got := tp.SanitizeUTF8(dirty)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "badbyte", got)
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	got := tp.ProcessText("ok \xff "+strings.Repeat("b", 20), 50)
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "ok")
}
