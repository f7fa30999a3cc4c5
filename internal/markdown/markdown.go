package markdown

import (
	"strings"
	"unicode/utf8"
)

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `_*[]()~>#+-=|{}.!\` + "`"

//nolint:gochecknoglobals // Lookup table meant to be immutable.
var mdV2Lookup = func() [256]bool {
	var m [256]bool
	for i := range len(mdV2SpecialChars) {
		m[mdV2SpecialChars[i]] = true
	}
	return m
}()

func EscapeV2(input string) string {
	charsToEscape := 0

	for i := range len(input) {
		if mdV2Lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if mdV2Lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

func escapedLen(input string) int {
	n := len(input)
	for i := range len(input) {
		if mdV2Lookup[input[i]] {
			n++
		}
	}
	return n
}

// Chunks splits plain text into pieces whose escaped form is at most maxLen
// bytes. It breaks at line ends, then at spaces, and cuts a single word only
// when the word alone does not fit.
func Chunks(text string, maxLen int) []string {
	if maxLen <= 0 {
		return nil
	}

	var (
		chunks     []string
		current    strings.Builder
		currentLen int
	)

	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		currentLen = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for _, word := range strings.SplitAfter(line, " ") {
			wordLen := escapedLen(word)

			if currentLen+wordLen > maxLen {
				flush()
			}

			for wordLen > maxLen {
				head, tail := cutEscaped(word, maxLen)
				current.WriteString(head)
				flush()

				word = tail
				wordLen = escapedLen(word)
			}

			current.WriteString(word)
			currentLen += wordLen
		}
	}

	flush()

	return chunks
}

// cutEscaped returns the longest rune-aligned prefix of s whose escaped form
// fits maxLen, and the rest.
func cutEscaped(s string, maxLen int) (string, string) {
	n := 0
	i := 0

	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		runeLen := size
		if r < utf8.RuneSelf && mdV2Lookup[byte(r)] {
			runeLen++
		}

		if n+runeLen > maxLen {
			break
		}

		n += runeLen
		i += size
	}

	if i == 0 {
		_, size := utf8.DecodeRuneInString(s)
		i = size
	}

	return s[:i], s[i:]
}

// EscapeLinkURL escapes the URL part of an inline link, where only ')' and
// '\' are special.
func EscapeLinkURL(rawURL string) string {
	return strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(rawURL)
}
