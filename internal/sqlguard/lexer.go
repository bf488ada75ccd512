package sqlguard

import "strings"

// Syntax describes the quoting and comment forms a dialect's lexer accepts.
type Syntax struct {
	HashComments     bool // # to end of line
	BackslashEscapes bool // \' inside string literals
	DollarQuotes     bool // $tag$ ... $tag$
	BacktickIdents   bool
	BracketIdents    bool
}

// Strip replaces every string literal and quoted identifier with an empty
// placeholder and every comment with a single space, leaving only the
// statement's bare keywords and punctuation.
func Strip(sql string, syn Syntax) string {
	var out strings.Builder
	out.Grow(len(sql))

	n := len(sql)
	i := 0
	for i < n {
		c := sql[i]

		switch {
		case c == '-' && i+1 < n && sql[i+1] == '-',
			c == '#' && syn.HashComments:
			for i < n && sql[i] != '\n' {
				i++
			}
			out.WriteByte(' ')

		case c == '/' && i+1 < n && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				i = n
			} else {
				i += 2 + end + 2
			}
			out.WriteByte(' ')

		case c == '$' && syn.DollarQuotes && dollarTag(sql[i:]) != "":
			tag := dollarTag(sql[i:])
			end := strings.Index(sql[i+len(tag):], tag)
			if end < 0 {
				i = n
			} else {
				i += len(tag) + end + len(tag)
			}
			out.WriteString("''")

		case c == '\'':
			i = skipQuoted(sql, i, '\'', syn.BackslashEscapes)
			out.WriteString("''")

		case c == '"':
			i = skipQuoted(sql, i, '"', syn.BackslashEscapes)
			out.WriteString(`""`)

		case c == '`' && syn.BacktickIdents:
			i = skipQuoted(sql, i, '`', false)
			out.WriteString("``")

		case c == '[' && syn.BracketIdents:
			end := strings.IndexByte(sql[i+1:], ']')
			if end < 0 {
				i = n
			} else {
				i += 1 + end + 1
			}
			out.WriteString("[]")

		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String()
}

// skipQuoted returns the index just past the literal opened at sql[start].
// A doubled quote is an escaped quote.
func skipQuoted(sql string, start int, quote byte, backslash bool) int {
	n := len(sql)
	i := start + 1
	for i < n {
		switch {
		case backslash && sql[i] == '\\' && i+1 < n:
			i += 2
		case sql[i] == quote && i+1 < n && sql[i+1] == quote:
			i += 2
		case sql[i] == quote:
			return i + 1
		default:
			i++
		}
	}
	return n
}

// dollarTag returns the opening $tag$ at the start of s, or "" when s does
// not start a dollar-quoted literal. Positional parameters like $1 are not tags.
func dollarTag(s string) string {
	for j := 1; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '$':
			return s[:j+1]
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && j > 1:
		default:
			return ""
		}
	}
	return ""
}
