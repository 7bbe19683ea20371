package repl

import (
	"errors"
	"strings"
)

// ErrUnterminatedQuote indicates a command line with an open quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// Tokenize splits a command line into words. Single and double quotes
// group words; a backslash escapes the next character outside single
// quotes. Quoting matters for exec argv, where arguments carry spaces.
func Tokenize(line string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inToken := false

	flush := func() {
		if inToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			inToken = false
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\':
			if i+1 >= len(runes) {
				return nil, ErrUnterminatedQuote
			}
			i++
			cur.WriteRune(runes[i])
			inToken = true

		case r == '\'' || r == '"':
			quote := r
			i++
			for {
				if i >= len(runes) {
					return nil, ErrUnterminatedQuote
				}
				if runes[i] == quote {
					break
				}
				if quote == '"' && runes[i] == '\\' && i+1 < len(runes) {
					i++
				}
				cur.WriteRune(runes[i])
				i++
			}
			inToken = true

		case r == ' ' || r == '\t':
			flush()

		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return tokens, nil
}
