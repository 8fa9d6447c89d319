package expr

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/ast"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/literal"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"
	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/triggertree/internal/ir"
)

// Built-in function names.
const (
	FuncExists   = "exists"
	FuncIgnore   = "ignore"
	FuncOptional = "optional"
)

const syntaxHint = "supported: paths (a.b, a[0]), literals, == != < <= > >=, && || !, exists(path), ignore(expr), optional(expr)"

// Parse parses trigger expression source. The grammar is the expression
// subset of CUE restricted to the operators triggers can decompose.
// Every failure wraps a *SyntaxError and satisfies errors.Is(err, ErrSyntax).
func Parse(source string) (Expr, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.WithHint(&SyntaxError{Source: source, Message: "empty expression"}, syntaxHint)
	}

	node, err := parser.ParseExpr("trigger", source)
	if err != nil {
		return nil, errors.WithHint(cueSyntaxError(source, err), syntaxHint)
	}

	p := &converter{source: source}
	e, err := p.convert(node)
	if err != nil {
		return nil, errors.WithHint(err, syntaxHint)
	}
	return e, nil
}

// MustParse is like Parse but panics on error. For tests and static tables.
func MustParse(source string) Expr {
	e, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return e
}

func cueSyntaxError(source string, err error) *SyntaxError {
	se := &SyntaxError{Source: source, Message: err.Error()}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return se
	}
	first := errs[0]
	format, args := first.Msg()
	se.Message = fmt.Sprintf(format, args...)
	if pos := first.Position(); pos.IsValid() {
		se.Line = pos.Line()
		se.Column = pos.Column()
	}
	return se
}

type converter struct {
	source string
}

func (p *converter) errorf(n ast.Node, format string, args ...any) error {
	se := &SyntaxError{Source: p.source, Message: fmt.Sprintf(format, args...)}
	if pos := n.Pos(); pos.IsValid() {
		se.Line = pos.Line()
		se.Column = pos.Column()
	}
	return se
}

func (p *converter) convert(n ast.Expr) (Expr, error) {
	switch node := n.(type) {
	case *ast.ParenExpr:
		return p.convert(node.X)

	case *ast.BasicLit:
		v, err := p.literal(node, false)
		if err != nil {
			return nil, err
		}
		return Constant{Value: v}, nil

	case *ast.Ident, *ast.SelectorExpr, *ast.IndexExpr:
		path, err := p.path(node)
		if err != nil {
			return nil, err
		}
		return Accessor{Path: path}, nil

	case *ast.UnaryExpr:
		switch node.Op {
		case token.NOT:
			child, err := p.convert(node.X)
			if err != nil {
				return nil, err
			}
			return Not{Child: child}, nil
		case token.SUB, token.ADD:
			lit, ok := node.X.(*ast.BasicLit)
			if !ok || (lit.Kind != token.INT && lit.Kind != token.FLOAT) {
				return nil, p.errorf(node, "unary %s applies to numbers only", node.Op)
			}
			v, err := p.literal(lit, node.Op == token.SUB)
			if err != nil {
				return nil, err
			}
			return Constant{Value: v}, nil
		default:
			return nil, p.errorf(node, "unsupported unary operator %s", node.Op)
		}

	case *ast.BinaryExpr:
		return p.binary(node)

	case *ast.CallExpr:
		return p.call(node)

	default:
		return nil, p.errorf(n, "unsupported expression %T", n)
	}
}

func (p *converter) binary(node *ast.BinaryExpr) (Expr, error) {
	left, err := p.convert(node.X)
	if err != nil {
		return nil, err
	}
	right, err := p.convert(node.Y)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case token.LAND:
		return NewAnd(left, right), nil
	case token.LOR:
		return NewOr(left, right), nil
	}

	var op Op
	switch node.Op {
	case token.EQL:
		op = OpEQ
	case token.NEQ:
		op = OpNE
	case token.LSS:
		op = OpLT
	case token.LEQ:
		op = OpLE
	case token.GTR:
		op = OpGT
	case token.GEQ:
		op = OpGE
	default:
		return nil, p.errorf(node, "unsupported operator %s", node.Op)
	}

	if !isOperand(left) {
		return nil, p.errorf(node.X, "comparison operand must be a path or literal, got %s", left)
	}
	if !isOperand(right) {
		return nil, p.errorf(node.Y, "comparison operand must be a path or literal, got %s", right)
	}
	return Comparison{Op: op, Left: left, Right: right}, nil
}

func isOperand(e Expr) bool {
	switch e.(type) {
	case Accessor, Constant:
		return true
	}
	return false
}

func (p *converter) call(node *ast.CallExpr) (Expr, error) {
	fn, ok := node.Fun.(*ast.Ident)
	if !ok {
		return nil, p.errorf(node, "unsupported call target")
	}
	if len(node.Args) != 1 {
		return nil, p.errorf(node, "%s takes exactly one argument, got %d", fn.Name, len(node.Args))
	}

	switch fn.Name {
	case FuncExists:
		path, err := p.path(node.Args[0])
		if err != nil {
			return nil, err
		}
		return Exists{Path: path}, nil
	case FuncIgnore, FuncOptional:
		child, err := p.convert(node.Args[0])
		if err != nil {
			return nil, err
		}
		if fn.Name == FuncIgnore {
			return Ignore{Child: child}, nil
		}
		return Optional{Child: child}, nil
	default:
		return nil, p.errorf(node, "unknown function %q", fn.Name)
	}
}

// path flattens identifiers, selectors, and constant indexes into a dotted
// property path. Segments are NFC normalized, matching frame keys.
func (p *converter) path(n ast.Expr) (string, error) {
	switch node := n.(type) {
	case *ast.ParenExpr:
		return p.path(node.X)
	case *ast.Ident:
		return p.segment(node, node.Name)
	case *ast.SelectorExpr:
		base, err := p.path(node.X)
		if err != nil {
			return "", err
		}
		name, _, err := ast.LabelName(node.Sel)
		if err != nil {
			return "", p.errorf(node, "invalid selector: %v", err)
		}
		seg, err := p.segment(node.Sel, name)
		if err != nil {
			return "", err
		}
		return base + "." + seg, nil
	case *ast.IndexExpr:
		base, err := p.path(node.X)
		if err != nil {
			return "", err
		}
		lit, ok := node.Index.(*ast.BasicLit)
		if !ok {
			return "", p.errorf(node, "index must be a literal")
		}
		switch lit.Kind {
		case token.INT:
			v, err := p.literal(lit, false)
			if err != nil {
				return "", err
			}
			return base + "." + strconv.FormatInt(int64(v.(ir.IRInt)), 10), nil
		case token.STRING:
			s, err := literal.Unquote(lit.Value)
			if err != nil {
				return "", p.errorf(lit, "invalid string index: %v", err)
			}
			seg, err := p.segment(lit, s)
			if err != nil {
				return "", err
			}
			return base + "." + seg, nil
		default:
			return "", p.errorf(lit, "index must be an integer or string")
		}
	default:
		return "", p.errorf(n, "expected a property path, got %T", n)
	}
}

// segment checks one path segment. Paths are split on dots at lookup, so a
// key containing a dot could never be reached.
func (p *converter) segment(n ast.Node, name string) (string, error) {
	if name == "" {
		return "", p.errorf(n, "empty path segment")
	}
	if strings.Contains(name, ".") {
		return "", p.errorf(n, "path segment %q must not contain '.'", name)
	}
	return norm.NFC.String(name), nil
}

func (p *converter) literal(lit *ast.BasicLit, negative bool) (ir.IRValue, error) {
	switch lit.Kind {
	case token.TRUE:
		return ir.IRBool(true), nil
	case token.FALSE:
		return ir.IRBool(false), nil
	case token.NULL:
		return ir.IRNull{}, nil
	case token.STRING:
		s, err := literal.Unquote(lit.Value)
		if err != nil {
			return nil, p.errorf(lit, "invalid string literal: %v", err)
		}
		return ir.IRString(s), nil
	case token.INT:
		text := strings.ReplaceAll(lit.Value, "_", "")
		if negative {
			text = "-" + text
		}
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, p.errorf(lit, "invalid integer %s", lit.Value)
		}
		return ir.IRInt(n), nil
	case token.FLOAT:
		text := strings.ReplaceAll(lit.Value, "_", "")
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf(lit, "invalid number %s", lit.Value)
		}
		if negative {
			f = -f
		}
		return ir.IRFloat(f), nil
	default:
		return nil, p.errorf(lit, "unsupported literal %s", lit.Value)
	}
}
