package mdhavers

import "fmt"

// Span is a source location, line and column both 1-based, attached to
// every token and every AST node.
type Span struct {
	Line   int
	Column int
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}
