package circuit

import "fmt"

// ExprKind identifies the type of expression in a gate polynomial.
type ExprKind int

const (
	// ExprCell references a column at a fixed row offset from the gate row.
	ExprCell ExprKind = iota
	ExprConst
	ExprAdd
	ExprSub
	ExprMul
)

// Expr is a polynomial expression over grid cells. A gate asserts that its
// expression evaluates to zero at every row of its span.
type Expr struct {
	Kind   ExprKind
	Col    ColumnID // For ExprCell
	Offset int      // Row offset for ExprCell (0 = current row)
	Value  int64    // For ExprConst
	Left   *Expr    // For binary ops
	Right  *Expr    // For binary ops
}

func (e *Expr) String() string {
	switch e.Kind {
	case ExprCell:
		if e.Offset != 0 {
			return fmt.Sprintf("c%d(%+d)", e.Col, e.Offset)
		}
		return fmt.Sprintf("c%d", e.Col)
	case ExprConst:
		return fmt.Sprintf("%d", e.Value)
	case ExprAdd:
		return fmt.Sprintf("(%s + %s)", e.Left, e.Right)
	case ExprSub:
		return fmt.Sprintf("(%s - %s)", e.Left, e.Right)
	case ExprMul:
		return fmt.Sprintf("(%s * %s)", e.Left, e.Right)
	default:
		return "?"
	}
}

// Degree returns the polynomial degree of the expression, with cells
// counting as degree one.
func (e *Expr) Degree() int {
	switch e.Kind {
	case ExprCell:
		return 1
	case ExprConst:
		return 0
	case ExprAdd, ExprSub:
		l, r := e.Left.Degree(), e.Right.Degree()
		if l > r {
			return l
		}
		return r
	case ExprMul:
		return e.Left.Degree() + e.Right.Degree()
	default:
		return 0
	}
}

// MaxOffset returns the largest row offset referenced by the expression.
// Gates spanning [From, To) may only reference rows up to To-1+MaxOffset.
func (e *Expr) MaxOffset() int {
	switch e.Kind {
	case ExprCell:
		return e.Offset
	case ExprAdd, ExprSub, ExprMul:
		l, r := e.Left.MaxOffset(), e.Right.MaxOffset()
		if l > r {
			return l
		}
		return r
	default:
		return 0
	}
}

// Constructor helpers

func CellExpr(col ColumnID) *Expr {
	return &Expr{Kind: ExprCell, Col: col}
}

func CellAt(col ColumnID, offset int) *Expr {
	return &Expr{Kind: ExprCell, Col: col, Offset: offset}
}

func ConstExpr(value int64) *Expr {
	return &Expr{Kind: ExprConst, Value: value}
}

func AddExpr(left, right *Expr) *Expr {
	return &Expr{Kind: ExprAdd, Left: left, Right: right}
}

func SubExpr(left, right *Expr) *Expr {
	return &Expr{Kind: ExprSub, Left: left, Right: right}
}

func MulExpr(left, right *Expr) *Expr {
	return &Expr{Kind: ExprMul, Left: left, Right: right}
}
