package parser

import (
	"fmt"
	"github.com/cottand/typeguard/guarderr"
	"strings"
)

func (s *scanner) errorf(format string, args ...any) error {
	return guarderr.New(guarderr.NewSyntax{
		Input:   s.input,
		Pos:     s.pos,
		Message: fmt.Sprintf(format, args...),
	})
}

func appendTrimmed(parts []string, part string) []string {
	trimmed := strings.TrimSpace(part)
	if trimmed == "" {
		return parts
	}
	return append(parts, trimmed)
}
