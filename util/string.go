package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Exported upper-cases the first letter of name
func Exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// SnakeToCamel turns a snake_case method name into its exported Go spelling,
// e.g. to_s becomes ToS. Trailing ? and ! markers are dropped.
func SnakeToCamel(name string) string {
	name = strings.TrimRight(name, "?!=")
	sb := strings.Builder{}
	for _, part := range strings.Split(name, "_") {
		sb.WriteString(Exported(part))
	}
	return sb.String()
}

// CamelToSnake turns a Go identifier into its snake_case spelling, e.g. ToS
// becomes to_s and HTTPServer becomes http_server
func CamelToSnake(name string) string {
	runes := []rune(name)
	sb := strings.Builder{}
	for i, r := range runes {
		if unicode.IsUpper(r) {
			lowerBefore := i > 0 && unicode.IsLower(runes[i-1])
			acronymEnd := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if lowerBefore || acronymEnd {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
