package ast

// Pos is the source location carried by every AST node.
type Pos struct {
	File   int
	Line   int
	Column int
}

func (p Pos) Position() Pos { return p }

// Located is implemented by every node and type so diagnostics can point
// back at source text without a side table.
type Located interface {
	Position() Pos
}
