package builder

import (
	"fmt"
	"github.com/cottand/typeguard/parser"
	"strings"
)

// Tag is a single documentation tag, e.g.
//
//	@param width [Integer, nil] (80) the width of the page
//	@option opts [Symbol] :style (:plain) the rendering style
//	@return [String]
type Tag struct {
	Kind string
	// Name is the documented parameter, or the options parameter of an option tag
	Name string
	// Types are the annotations between brackets, HasTypes is false when there were no brackets
	Types    []string
	HasTypes bool
	// Key is the option key of an option tag
	Key string
	// Default is the text between parentheses following the types
	Default string
	// See names the method whose tags of the same kind replace this one: (see #other)
	See string
}

// Doc is the parsed tag section of a doc comment
type Doc struct {
	Params     []Tag
	Options    []Tag
	Return     *Tag
	Visibility string
	Scope      string
	// Tagged is true when at least one tag was found
	Tagged bool
}

// Param returns the param tag documenting name
func (d *Doc) Param(name string) (Tag, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Tag{}, false
}

// seeParams returns the method the param tags refer to, if any
func (d *Doc) seeParams() string {
	for _, p := range d.Params {
		if p.See != "" {
			return p.See
		}
	}
	return ""
}

// ParseDoc reads the tags of a doc comment. Lines which do not start with a
// tag are description and are ignored.
func ParseDoc(text string) (*Doc, error) {
	doc := &Doc{}
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			continue
		}
		kind, rest, _ := strings.Cut(line[1:], " ")
		rest = strings.TrimSpace(rest)
		var err error
		switch kind {
		case "param":
			var tag Tag
			tag, err = parseParamTag(rest)
			doc.Params = append(doc.Params, tag)
		case "option":
			var tag Tag
			tag, err = parseOptionTag(rest)
			doc.Options = append(doc.Options, tag)
		case "return":
			var tag Tag
			tag, err = parseReturnTag(rest)
			doc.Return = &tag
		case "visibility":
			doc.Visibility = firstWord(rest)
		case "scope":
			doc.Scope = firstWord(rest)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d of doc comment: @%s: %w", i+1, kind, err)
		}
		doc.Tagged = true
	}
	return doc, nil
}

func firstWord(s string) string {
	word, _, _ := strings.Cut(strings.TrimSpace(s), " ")
	return word
}

// cutBracketed splits s, which starts with open, at its matching close
func cutBracketed(s string, open, close byte) (inner, rest string, err error) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[1:i], strings.TrimSpace(s[i+1:]), nil
			}
		}
	}
	return "", "", fmt.Errorf("unterminated '%c' in '%s'", open, s)
}

// cutTypes consumes a bracketed type list at the start of s, if there is one
func cutTypes(s string, tag *Tag) (string, error) {
	if !strings.HasPrefix(s, "[") {
		return s, nil
	}
	inner, rest, err := cutBracketed(s, '[', ']')
	if err != nil {
		return "", err
	}
	tag.HasTypes = true
	tag.Types = parser.SplitTypes(inner)
	return rest, nil
}

// cutSee consumes a (see #other) reference
func cutSee(s string, tag *Tag) (string, bool) {
	if !strings.HasPrefix(s, "(see ") {
		return s, false
	}
	inner, rest, err := cutBracketed(s, '(', ')')
	if err != nil {
		return s, false
	}
	tag.See = strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(inner, "see")), "#")
	return rest, true
}

// cutDefault consumes a parenthesised default value
func cutDefault(s string, tag *Tag) (string, error) {
	if !strings.HasPrefix(s, "(") {
		return s, nil
	}
	inner, rest, err := cutBracketed(s, '(', ')')
	if err != nil {
		return "", err
	}
	tag.Default = strings.TrimSpace(inner)
	return rest, nil
}

func cutWord(s string) (word, rest string) {
	word, rest, _ = strings.Cut(strings.TrimSpace(s), " ")
	return word, strings.TrimSpace(rest)
}

// parseParamTag accepts both `name [Types]` and `[Types] name`
func parseParamTag(s string) (Tag, error) {
	tag := Tag{Kind: "param"}
	if _, ok := cutSee(s, &tag); ok {
		return tag, nil
	}
	var err error
	if strings.HasPrefix(s, "[") {
		if s, err = cutTypes(s, &tag); err != nil {
			return tag, err
		}
		tag.Name, s = cutWord(s)
	} else {
		tag.Name, s = cutWord(s)
		if s, err = cutTypes(s, &tag); err != nil {
			return tag, err
		}
	}
	if tag.Name == "" {
		return tag, fmt.Errorf("missing parameter name")
	}
	if _, ok := cutSee(s, &tag); ok {
		return tag, nil
	}
	_, err = cutDefault(s, &tag)
	return tag, err
}

func parseOptionTag(s string) (Tag, error) {
	tag := Tag{Kind: "option"}
	tag.Name, s = cutWord(s)
	if tag.Name == "" {
		return tag, fmt.Errorf("missing options parameter name")
	}
	var err error
	if s, err = cutTypes(s, &tag); err != nil {
		return tag, err
	}
	key, s := cutWord(s)
	if !strings.HasPrefix(key, ":") {
		return tag, fmt.Errorf("expected an option key like ':name', got '%s'", key)
	}
	tag.Key = strings.TrimPrefix(key, ":")
	if s, err = cutTypes(s, &tag); err != nil {
		return tag, err
	}
	_, err = cutDefault(s, &tag)
	return tag, err
}

func parseReturnTag(s string) (Tag, error) {
	tag := Tag{Kind: "return"}
	if _, ok := cutSee(s, &tag); ok {
		return tag, nil
	}
	_, err := cutTypes(s, &tag)
	return tag, err
}
