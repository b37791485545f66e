package vm

// EqualVal reports structural equality of two values. Records compare field
// by field in order; boxes compare their bindings, names and code.
func EqualVal(a, b Val) bool {
	switch x := a.(type) {
	case Num:
		y, ok := b.(Num)
		return ok && x == y
	case SymValue:
		y, ok := b.(SymValue)
		return ok && x.Sym == y.Sym
	case Ptr:
		y, ok := b.(Ptr)
		return ok && x.Sym == y.Sym
	case ProcHandle:
		y, ok := b.(ProcHandle)
		return ok && x.Sym == y.Sym
	case Var:
		y, ok := b.(Var)
		return ok && x == y
	case Variant:
		y, ok := b.(Variant)
		return ok && EqualVal(x.Label, y.Label) && EqualVal(x.Payload, y.Payload)
	case Record:
		y, ok := b.(Record)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalField(x[i], y[i]) {
				return false
			}
		}
		return true
	case RecordExt:
		y, ok := b.(RecordExt)
		return ok && EqualVal(x.Base, y.Base) && equalField(x.Field, y.Field)
	case *Box:
		y, ok := b.(*Box)
		return ok && equalBox(x, y)
	case CallByValue:
		y, ok := b.(CallByValue)
		return ok && EqualExp(x.Exp, y.Exp)
	case nil:
		return b == nil
	}
	return false
}

func equalField(a, b Field) bool {
	return EqualVal(a.Label, b.Label) && EqualVal(a.Value, b.Value)
}

func equalBox(a, b *Box) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Name != b.Name || len(a.Bxes) != len(b.Bxes) {
		return false
	}
	for k, v := range a.Bxes {
		w, ok := b.Bxes[k]
		if !ok || !equalBox(v, w) {
			return false
		}
	}
	return EqualExp(a.Code, b.Code)
}

func EqualPat(a, b Pat) bool {
	switch x := a.(type) {
	case IgnorePat:
		_, ok := b.(IgnorePat)
		return ok
	case VarPat:
		y, ok := b.(VarPat)
		return ok && x == y
	case FieldsPat:
		y, ok := b.(FieldsPat)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !EqualVal(x[i].Label, y[i].Label) || !EqualPat(x[i].Pat, y[i].Pat) {
				return false
			}
		}
		return true
	case CasePat:
		y, ok := b.(CasePat)
		return ok && EqualVal(x.Label, y.Label) && EqualPat(x.Pat, y.Pat)
	}
	return false
}

// EqualExp reports structural equality of two computations.
func EqualExp(a, b Exp) bool {
	switch x := a.(type) {
	case Nest:
		y, ok := b.(Nest)
		return ok && EqualVal(x.Sym, y.Sym) && EqualExp(x.Body, y.Body)
	case Spawn:
		y, ok := b.(Spawn)
		return ok && EqualVal(x.Sym, y.Sym) && EqualExp(x.Body, y.Body)
	case Put:
		y, ok := b.(Put)
		return ok && EqualVal(x.Sym, y.Sym) && EqualVal(x.Value, y.Value)
	case Get:
		y, ok := b.(Get)
		return ok && EqualVal(x.Ptr, y.Ptr)
	case Link:
		y, ok := b.(Link)
		return ok && EqualVal(x.Target, y.Target)
	case AssertEq:
		y, ok := b.(AssertEq)
		return ok && x.Equal == y.Equal && EqualVal(x.Left, y.Left) && EqualVal(x.Right, y.Right)
	case Lambda:
		y, ok := b.(Lambda)
		return ok && EqualPat(x.Pat, y.Pat) && EqualExp(x.Body, y.Body)
	case App:
		y, ok := b.(App)
		return ok && EqualExp(x.Fn, y.Fn) && EqualVal(x.Arg, y.Arg)
	case Let:
		y, ok := b.(Let)
		return ok && EqualPat(x.Pat, y.Pat) && EqualExp(x.Def, y.Def) && EqualExp(x.Body, y.Body)
	case LetBox:
		y, ok := b.(LetBox)
		return ok && EqualPat(x.Pat, y.Pat) && EqualExp(x.Def, y.Def) && EqualExp(x.Body, y.Body)
	case Ret:
		y, ok := b.(Ret)
		return ok && EqualVal(x.Value, y.Value)
	case Returned:
		y, ok := b.(Returned)
		return ok && EqualVal(x.Value, y.Value)
	case Switch:
		y, ok := b.(Switch)
		if !ok || !EqualVal(x.Scrutinee, y.Scrutinee) || len(x.Cases) != len(y.Cases) {
			return false
		}
		for i := range x.Cases {
			cx, cy := x.Cases[i], y.Cases[i]
			if !EqualVal(cx.Label, cy.Label) || !EqualPat(cx.Pat, cy.Pat) || !EqualExp(cx.Body, cy.Body) {
				return false
			}
		}
		return true
	case Branches:
		y, ok := b.(Branches)
		if !ok || len(x.Branches) != len(y.Branches) {
			return false
		}
		for i := range x.Branches {
			bx, by := x.Branches[i], y.Branches[i]
			if !EqualVal(bx.Label, by.Label) || !EqualExp(bx.Body, by.Body) {
				return false
			}
		}
		return true
	case Project:
		y, ok := b.(Project)
		return ok && EqualExp(x.Body, y.Body) && EqualVal(x.Label, y.Label)
	case Extract:
		y, ok := b.(Extract)
		return ok && EqualVal(x.Box, y.Box)
	case Hole:
		_, ok := b.(Hole)
		return ok
	case nil:
		return b == nil
	}
	return false
}
