package news

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFirstSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"two of three", "One. Two! Three?", 2, "One. Two!"},
		{"fewer than asked", "Only one.", 2, "Only one."},
		{"no terminal", "no punctuation here", 2, "no punctuation here"},
		{"decimal is not an end", "Price is 1.5 million. Next one. Last.", 2, "Price is 1.5 million. Next one."},
		{"cjk terminals", "新作発表。 秋冬コレクション！ 以上", 2, "新作発表。 秋冬コレクション！"},
		{"whitespace collapsed", "  A.\n\n  B.  C. ", 2, "A. B."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstSentences(tt.in, tt.n))
		})
	}
}

func TestShape(t *testing.T) {
	assert.Equal(t, "Short. Text.", Shape("Short. Text. Dropped.", 2, 260))

	long := strings.Repeat("word ", 100) + "end."
	got := Shape(long, 2, 260)
	assert.Equal(t, 260, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, Ellipsis))

	assert.Equal(t, "abc…", Shape("abcdef", 2, 4))
	assert.Equal(t, "", Shape("", 2, 260))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "안경", TruncateRunes("안경테", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 5))
	assert.Equal(t, "", TruncateRunes("abc", 0))
}
