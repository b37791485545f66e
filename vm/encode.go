package vm

import "fmt"

// Node is a tagged tree form of a term, shaped so msgpack can carry it.
type Node struct {
	Tag  string
	Num  int64
	Str  string
	Flag bool
	Kids []Node
}

func leaf(tag string) Node { return Node{Tag: tag} }

func (n Node) kid(i int) (Node, error) {
	if i >= len(n.Kids) {
		return Node{}, fmt.Errorf("decode %s: missing child %d", n.Tag, i)
	}
	return n.Kids[i], nil
}

func EncodeSym(s Sym) Node {
	switch x := s.(type) {
	case NoSym:
		return leaf("nosym")
	case NumSym:
		return Node{Tag: "numsym", Num: int64(x)}
	case IdSym:
		return Node{Tag: "idsym", Str: string(x)}
	case BinSym:
		return Node{Tag: "binsym", Kids: []Node{EncodeSym(x.Left), EncodeSym(x.Right)}}
	case NestSym:
		return Node{Tag: "nestsym", Kids: []Node{EncodeSym(x.Outer), EncodeSym(x.Inner)}}
	case TriSym:
		return Node{Tag: "trisym", Num: int64(x.Sep), Kids: []Node{EncodeSym(x.Left), EncodeSym(x.Right)}}
	case Sep:
		return Node{Tag: "sep", Num: int64(x)}
	}
	return leaf("invalid")
}

func DecodeSym(n Node) (Sym, error) {
	switch n.Tag {
	case "nosym":
		return NoSym{}, nil
	case "numsym":
		return NumSym(n.Num), nil
	case "idsym":
		return IdSym(n.Str), nil
	case "sep":
		return Sep(n.Num), nil
	case "binsym", "nestsym", "trisym":
		a, err := decodeSymKid(n, 0)
		if err != nil {
			return nil, err
		}
		b, err := decodeSymKid(n, 1)
		if err != nil {
			return nil, err
		}
		switch n.Tag {
		case "binsym":
			return BinSym{Left: a, Right: b}, nil
		case "nestsym":
			return NestSym{Outer: a, Inner: b}, nil
		}
		return TriSym{Left: a, Sep: Sep(n.Num), Right: b}, nil
	}
	return nil, fmt.Errorf("decode symbol: unknown tag %q", n.Tag)
}

func decodeSymKid(n Node, i int) (Sym, error) {
	k, err := n.kid(i)
	if err != nil {
		return nil, err
	}
	return DecodeSym(k)
}

func encodeField(f Field) Node {
	return Node{Tag: "field", Kids: []Node{EncodeVal(f.Label), EncodeVal(f.Value)}}
}

func decodeField(n Node) (Field, error) {
	if n.Tag != "field" {
		return Field{}, fmt.Errorf("decode field: unexpected tag %q", n.Tag)
	}
	l, err := decodeValKid(n, 0)
	if err != nil {
		return Field{}, err
	}
	v, err := decodeValKid(n, 1)
	if err != nil {
		return Field{}, err
	}
	return Field{Label: l, Value: v}, nil
}

// EncodeBoxEnv emits the bindings in name order.
func EncodeBoxEnv(b BoxEnv) Node {
	out := Node{Tag: "bxes"}
	for _, name := range b.Names() {
		out.Kids = append(out.Kids, Node{Tag: "bx", Str: name, Kids: []Node{EncodeVal(b[name])}})
	}
	return out
}

func DecodeBoxEnv(n Node) (BoxEnv, error) {
	if n.Tag != "bxes" {
		return nil, fmt.Errorf("decode box env: unexpected tag %q", n.Tag)
	}
	out := make(BoxEnv, len(n.Kids))
	for _, k := range n.Kids {
		v, err := decodeValKid(k, 0)
		if err != nil {
			return nil, err
		}
		b, ok := v.(*Box)
		if !ok {
			return nil, fmt.Errorf("decode box env: %s is not a box", k.Str)
		}
		out[k.Str] = b
	}
	return out, nil
}

func EncodeVal(v Val) Node {
	switch x := v.(type) {
	case Num:
		return Node{Tag: "num", Num: int64(x)}
	case SymValue:
		return Node{Tag: "sym", Kids: []Node{EncodeSym(x.Sym)}}
	case Ptr:
		return Node{Tag: "ptr", Kids: []Node{EncodeSym(x.Sym)}}
	case ProcHandle:
		return Node{Tag: "proc", Kids: []Node{EncodeSym(x.Sym)}}
	case Var:
		return Node{Tag: "var", Str: string(x)}
	case Variant:
		return Node{Tag: "variant", Kids: []Node{EncodeVal(x.Label), EncodeVal(x.Payload)}}
	case Record:
		out := Node{Tag: "record", Kids: make([]Node, len(x))}
		for i, f := range x {
			out.Kids[i] = encodeField(f)
		}
		return out
	case RecordExt:
		return Node{Tag: "ext", Kids: []Node{EncodeVal(x.Base), encodeField(x.Field)}}
	case *Box:
		return Node{Tag: "box", Str: x.Name, Kids: []Node{EncodeBoxEnv(x.Bxes), EncodeExp(x.Code)}}
	case CallByValue:
		return Node{Tag: "cbv", Kids: []Node{EncodeExp(x.Exp)}}
	}
	return leaf("invalid")
}

func DecodeVal(n Node) (Val, error) {
	switch n.Tag {
	case "num":
		return Num(n.Num), nil
	case "sym", "ptr", "proc":
		s, err := decodeSymKid(n, 0)
		if err != nil {
			return nil, err
		}
		switch n.Tag {
		case "sym":
			return SymValue{Sym: s}, nil
		case "ptr":
			return Ptr{Sym: s}, nil
		}
		return ProcHandle{Sym: s}, nil
	case "var":
		return Var(n.Str), nil
	case "variant":
		l, err := decodeValKid(n, 0)
		if err != nil {
			return nil, err
		}
		p, err := decodeValKid(n, 1)
		if err != nil {
			return nil, err
		}
		return Variant{Label: l, Payload: p}, nil
	case "record":
		out := make(Record, len(n.Kids))
		for i, k := range n.Kids {
			f, err := decodeField(k)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	case "ext":
		base, err := decodeValKid(n, 0)
		if err != nil {
			return nil, err
		}
		k, err := n.kid(1)
		if err != nil {
			return nil, err
		}
		f, err := decodeField(k)
		if err != nil {
			return nil, err
		}
		return RecordExt{Base: base, Field: f}, nil
	case "box":
		k, err := n.kid(0)
		if err != nil {
			return nil, err
		}
		bxes, err := DecodeBoxEnv(k)
		if err != nil {
			return nil, err
		}
		code, err := decodeExpKid(n, 1)
		if err != nil {
			return nil, err
		}
		return &Box{Bxes: bxes, Name: n.Str, Code: code}, nil
	case "cbv":
		e, err := decodeExpKid(n, 0)
		if err != nil {
			return nil, err
		}
		return CallByValue{Exp: e}, nil
	}
	return nil, fmt.Errorf("decode value: unknown tag %q", n.Tag)
}

func decodeValKid(n Node, i int) (Val, error) {
	k, err := n.kid(i)
	if err != nil {
		return nil, err
	}
	return DecodeVal(k)
}

func EncodePat(p Pat) Node {
	switch x := p.(type) {
	case IgnorePat:
		return leaf("ignore")
	case VarPat:
		return Node{Tag: "pvar", Str: string(x)}
	case FieldsPat:
		out := Node{Tag: "pfields", Kids: make([]Node, len(x))}
		for i, f := range x {
			out.Kids[i] = Node{Tag: "pfield", Kids: []Node{EncodeVal(f.Label), EncodePat(f.Pat)}}
		}
		return out
	case CasePat:
		return Node{Tag: "pcase", Kids: []Node{EncodeVal(x.Label), EncodePat(x.Pat)}}
	}
	return leaf("invalid")
}

func DecodePat(n Node) (Pat, error) {
	switch n.Tag {
	case "ignore":
		return IgnorePat{}, nil
	case "pvar":
		return VarPat(n.Str), nil
	case "pfields":
		out := make(FieldsPat, len(n.Kids))
		for i, k := range n.Kids {
			l, err := decodeValKid(k, 0)
			if err != nil {
				return nil, err
			}
			p, err := decodePatKid(k, 1)
			if err != nil {
				return nil, err
			}
			out[i] = FieldPat{Label: l, Pat: p}
		}
		return out, nil
	case "pcase":
		l, err := decodeValKid(n, 0)
		if err != nil {
			return nil, err
		}
		p, err := decodePatKid(n, 1)
		if err != nil {
			return nil, err
		}
		return CasePat{Label: l, Pat: p}, nil
	}
	return nil, fmt.Errorf("decode pattern: unknown tag %q", n.Tag)
}

func decodePatKid(n Node, i int) (Pat, error) {
	k, err := n.kid(i)
	if err != nil {
		return nil, err
	}
	return DecodePat(k)
}

func EncodeExp(e Exp) Node {
	switch x := e.(type) {
	case Nest:
		return Node{Tag: "nest", Kids: []Node{EncodeVal(x.Sym), EncodeExp(x.Body)}}
	case Spawn:
		return Node{Tag: "spawn", Kids: []Node{EncodeVal(x.Sym), EncodeExp(x.Body)}}
	case Put:
		return Node{Tag: "put", Kids: []Node{EncodeVal(x.Sym), EncodeVal(x.Value)}}
	case Get:
		return Node{Tag: "get", Kids: []Node{EncodeVal(x.Ptr)}}
	case Link:
		return Node{Tag: "link", Kids: []Node{EncodeVal(x.Target)}}
	case AssertEq:
		return Node{Tag: "assert", Flag: x.Equal, Kids: []Node{EncodeVal(x.Left), EncodeVal(x.Right)}}
	case Lambda:
		return Node{Tag: "lambda", Kids: []Node{EncodePat(x.Pat), EncodeExp(x.Body)}}
	case App:
		return Node{Tag: "app", Kids: []Node{EncodeExp(x.Fn), EncodeVal(x.Arg)}}
	case Let:
		return Node{Tag: "let", Kids: []Node{EncodePat(x.Pat), EncodeExp(x.Def), EncodeExp(x.Body)}}
	case LetBox:
		return Node{Tag: "letbox", Kids: []Node{EncodePat(x.Pat), EncodeExp(x.Def), EncodeExp(x.Body)}}
	case Ret:
		return Node{Tag: "ret", Kids: []Node{EncodeVal(x.Value)}}
	case Returned:
		return Node{Tag: "returned", Kids: []Node{EncodeVal(x.Value)}}
	case Switch:
		out := Node{Tag: "switch", Kids: []Node{EncodeVal(x.Scrutinee)}}
		for _, c := range x.Cases {
			out.Kids = append(out.Kids, Node{Tag: "case", Kids: []Node{EncodeVal(c.Label), EncodePat(c.Pat), EncodeExp(c.Body)}})
		}
		return out
	case Branches:
		out := Node{Tag: "branches"}
		for _, b := range x.Branches {
			out.Kids = append(out.Kids, Node{Tag: "branch", Kids: []Node{EncodeVal(b.Label), EncodeExp(b.Body)}})
		}
		return out
	case Project:
		return Node{Tag: "project", Kids: []Node{EncodeExp(x.Body), EncodeVal(x.Label)}}
	case Extract:
		return Node{Tag: "extract", Kids: []Node{EncodeVal(x.Box)}}
	case Hole:
		return leaf("hole")
	}
	return leaf("invalid")
}

func DecodeExp(n Node) (Exp, error) {
	switch n.Tag {
	case "hole":
		return Hole{}, nil
	case "nest", "spawn":
		s, err := decodeValKid(n, 0)
		if err != nil {
			return nil, err
		}
		body, err := decodeExpKid(n, 1)
		if err != nil {
			return nil, err
		}
		if n.Tag == "nest" {
			return Nest{Sym: s, Body: body}, nil
		}
		return Spawn{Sym: s, Body: body}, nil
	case "put", "assert":
		a, err := decodeValKid(n, 0)
		if err != nil {
			return nil, err
		}
		b, err := decodeValKid(n, 1)
		if err != nil {
			return nil, err
		}
		if n.Tag == "put" {
			return Put{Sym: a, Value: b}, nil
		}
		return AssertEq{Left: a, Equal: n.Flag, Right: b}, nil
	case "get", "link", "ret", "returned", "extract":
		v, err := decodeValKid(n, 0)
		if err != nil {
			return nil, err
		}
		switch n.Tag {
		case "get":
			return Get{Ptr: v}, nil
		case "link":
			return Link{Target: v}, nil
		case "ret":
			return Ret{Value: v}, nil
		case "returned":
			return Returned{Value: v}, nil
		}
		return Extract{Box: v}, nil
	case "lambda":
		p, err := decodePatKid(n, 0)
		if err != nil {
			return nil, err
		}
		body, err := decodeExpKid(n, 1)
		if err != nil {
			return nil, err
		}
		return Lambda{Pat: p, Body: body}, nil
	case "app", "project":
		body, err := decodeExpKid(n, 0)
		if err != nil {
			return nil, err
		}
		v, err := decodeValKid(n, 1)
		if err != nil {
			return nil, err
		}
		if n.Tag == "app" {
			return App{Fn: body, Arg: v}, nil
		}
		return Project{Body: body, Label: v}, nil
	case "let", "letbox":
		p, err := decodePatKid(n, 0)
		if err != nil {
			return nil, err
		}
		def, err := decodeExpKid(n, 1)
		if err != nil {
			return nil, err
		}
		body, err := decodeExpKid(n, 2)
		if err != nil {
			return nil, err
		}
		if n.Tag == "let" {
			return Let{Pat: p, Def: def, Body: body}, nil
		}
		return LetBox{Pat: p, Def: def, Body: body}, nil
	case "switch":
		v, err := decodeValKid(n, 0)
		if err != nil {
			return nil, err
		}
		out := Switch{Scrutinee: v}
		for _, k := range n.Kids[1:] {
			l, err := decodeValKid(k, 0)
			if err != nil {
				return nil, err
			}
			p, err := decodePatKid(k, 1)
			if err != nil {
				return nil, err
			}
			body, err := decodeExpKid(k, 2)
			if err != nil {
				return nil, err
			}
			out.Cases = append(out.Cases, Case{Label: l, Pat: p, Body: body})
		}
		return out, nil
	case "branches":
		out := Branches{}
		for _, k := range n.Kids {
			l, err := decodeValKid(k, 0)
			if err != nil {
				return nil, err
			}
			body, err := decodeExpKid(k, 1)
			if err != nil {
				return nil, err
			}
			out.Branches = append(out.Branches, Branch{Label: l, Body: body})
		}
		return out, nil
	}
	return nil, fmt.Errorf("decode computation: unknown tag %q", n.Tag)
}

func decodeExpKid(n Node, i int) (Exp, error) {
	k, err := n.kid(i)
	if err != nil {
		return nil, err
	}
	return DecodeExp(k)
}
