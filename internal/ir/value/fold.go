package value

import (
	"github.com/pkg/errors"
	"github.com/vicis-ir/vicis/internal/ir/types"
)

// ErrUnsupportedExpr is returned by Fold for a constant-expression shape it
// does not know how to reduce (e.g. a getelementptr through a type chain
// Fold does not model). The parser never calls Fold (spec.md §3: constant
// expressions "are evaluated lazily by consumers"), and neither does the
// printer; nothing in this module calls Fold. It exists for consumers
// such as the interpreter front-end, external to the core per spec.md §1.
var ErrUnsupportedExpr = errors.New("unsupported constant expression")

// Fold reduces a constant expression to a concrete ConstantData, per
// SPEC_FULL.md §5's supplemented folding helper. Two shapes are handled:
// a bitcast folds its argument and retypes it to To, with no check that
// the two types have the same size; a getelementptr whose base folds to
// a global reference yields a GlobalRef to that same global, typed as a
// pointer to the last GEPTypes entry, without inspecting the indices.
// Anything else returns ErrUnsupportedExpr.
func (e *Expr) Fold(ts *types.Types) (Constant, error) {
	switch e.Kind {
	case ExprBitcast:
		if e.Arg == nil {
			return Constant{}, errors.WithStack(ErrUnsupportedExpr)
		}
		folded, err := foldConstant(*e.Arg, ts)
		if err != nil {
			return Constant{}, err
		}
		folded.Type = e.To
		return folded, nil
	case ExprGetElementPtr:
		if len(e.GEPArgs) == 0 {
			return Constant{}, errors.WithStack(ErrUnsupportedExpr)
		}
		base, err := foldConstant(e.GEPArgs[0], ts)
		if err != nil {
			return Constant{}, err
		}
		// Index-into-aggregate folding is only meaningful for a global
		// reference base (the common case for string/array addressing,
		// spec.md §8 scenario 4); anything else is left unreduced.
		if base.Kind != ConstGlobalRef {
			return Constant{}, errors.WithStack(ErrUnsupportedExpr)
		}
		resultTy := types.Invalid
		if len(e.GEPTypes) > 0 {
			resultTy = ts.Ptr(e.GEPTypes[len(e.GEPTypes)-1])
		}
		return GlobalRef(resultTy, base.GlobalName), nil
	default:
		return Constant{}, errors.WithStack(ErrUnsupportedExpr)
	}
}

func foldConstant(c Constant, ts *types.Types) (Constant, error) {
	if c.Kind == ConstExpr {
		return c.Expr.Fold(ts)
	}
	return c, nil
}
