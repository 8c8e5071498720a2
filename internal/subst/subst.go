// Package subst provides strict placeholder substitution for command-line
// and document templates. Unlike fmt-style formatting, every placeholder must
// resolve: an unknown or unterminated placeholder is an error rather than
// being left literal in the output.
package subst

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for substitution failures.
var (
	ErrUnknownPlaceholder = errors.New("unknown placeholder")
	ErrUnterminated       = errors.New("unterminated placeholder")
	ErrEmptyName          = errors.New("empty placeholder name")
	ErrUnbalancedQuote    = errors.New("unbalanced quote")
)

// Brace expands {name} placeholders against params.
// Used for command argument templates, where literal braces do not occur.
// Every '{' starts a placeholder; a stray '}' is passed through verbatim.
func Brace(s string, params map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '{' {
			b.WriteByte(c)
			continue
		}

		end := strings.IndexByte(s[i+1:], '}')
		if end < 0 {
			return "", fmt.Errorf("%w at offset %d in %q", ErrUnterminated, i, s)
		}

		name := s[i+1 : i+1+end]
		if name == "" {
			return "", fmt.Errorf("%w at offset %d in %q", ErrEmptyName, i, s)
		}

		value, ok := params[name]
		if !ok {
			return "", fmt.Errorf("%w: {%s}", ErrUnknownPlaceholder, name)
		}

		b.WriteString(value)
		i += end + 1
	}

	return b.String(), nil
}

// Dollar expands ${name} placeholders against params.
// Used for TeX document templates, where braces are ubiquitous and a plain
// '$' introduces math mode; only the exact "${" sequence starts a
// placeholder, and "$$" escapes a literal '$'.
func Dollar(s string, params map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '$' {
			b.WriteByte(c)
			continue
		}

		if i+1 < len(s) && s[i+1] == '$' {
			b.WriteByte('$')
			i++
			continue
		}

		if i+1 >= len(s) || s[i+1] != '{' {
			b.WriteByte('$')
			continue
		}

		end := strings.IndexByte(s[i+2:], '}')
		if end < 0 {
			return "", fmt.Errorf("%w at offset %d", ErrUnterminated, i)
		}

		name := s[i+2 : i+2+end]
		if name == "" {
			return "", fmt.Errorf("%w at offset %d", ErrEmptyName, i)
		}

		value, ok := params[name]
		if !ok {
			return "", fmt.Errorf("%w: ${%s}", ErrUnknownPlaceholder, name)
		}

		b.WriteString(value)
		i += end + 2
	}

	return b.String(), nil
}

// SplitTokens splits a command argument template into tokens.
// Single and double quotes group words; quotes are stripped from the result.
// Splitting happens before placeholder expansion so substituted values (for
// example paths containing spaces) never change the token structure.
func SplitTokens(s string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inToken := false
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inToken = true
		case c == ' ' || c == '\t' || c == '\n':
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteByte(c)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("%w in %q", ErrUnbalancedQuote, s)
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}

	return tokens, nil
}
