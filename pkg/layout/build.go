package layout

import (
	"github.com/raymyers/minicc/pkg/diag"
)

type resolveState int

const (
	unresolved resolveState = iota
	resolving
	resolved
)

// builder carries the state of one Build call
type builder struct {
	table   *Table
	decls   map[string]*Decl
	parents map[string]string // class -> parent, with broken edges removed
	state   map[string]resolveState
	errs    diag.List
}

// Build lays out every struct and class declaration.
//
// Resolution is demand driven: a field whose type is another aggregate (directly
// or as an array element) forces that aggregate to be laid out first, so the
// order of declarations inside the unit does not matter. Every problem is
// collected; the returned Table is always usable, with broken parts left empty.
func Build(decls []Decl) (*Table, diag.List) {
	b := &builder{
		table:   &Table{aggs: make(map[string]*Aggregate)},
		decls:   make(map[string]*Decl),
		parents: make(map[string]string),
		state:   make(map[string]resolveState),
	}

	for i := range decls {
		d := &decls[i]
		if prev, dup := b.decls[d.Name]; dup {
			b.errs.Add(diag.DuplicateDeclarationError, d.Pos,
				"%s already declared at %s", d.Name, prev.Pos)
			continue
		}
		b.decls[d.Name] = d
		agg := &Aggregate{Name: d.Name, IsClass: d.IsClass, Align: 1, Pos: d.Pos}
		b.table.aggs[d.Name] = agg
		b.table.order = append(b.table.order, agg)
	}

	b.checkParents()
	b.checkCycles()
	for _, agg := range b.table.order {
		if p, ok := b.parents[agg.Name]; ok {
			agg.Parent = b.table.aggs[p]
		}
	}
	b.checkFieldTypes()
	for _, agg := range b.table.order {
		b.resolve(agg.Name)
	}
	b.addMethods()

	b.errs.Sort()
	return b.table, b.errs
}

// checkParents verifies that every extended name is a declared class
func (b *builder) checkParents() {
	for _, agg := range b.table.order {
		d := b.decls[agg.Name]
		if !d.IsClass || d.Parent == "" {
			continue
		}
		pd, ok := b.decls[d.Parent]
		switch {
		case !ok:
			b.errs.Add(diag.UnresolvedParentError, d.ParentPos,
				"class %s extends undeclared class %s", d.Name, d.Parent)
		case !pd.IsClass:
			b.errs.Add(diag.UnresolvedParentError, d.ParentPos,
				"class %s extends %s, which is a struct", d.Name, d.Parent)
		default:
			b.parents[d.Name] = d.Parent
		}
	}
}

// checkCycles reports each class that sits on an inheritance cycle and cuts
// the cycle so later stages terminate
func (b *builder) checkCycles() {
	onCycle := make(map[string]bool)
	for _, agg := range b.table.order {
		seen := map[string]bool{agg.Name: true}
		for c, ok := b.parents[agg.Name]; ok; c, ok = b.parents[c] {
			if c == agg.Name {
				onCycle[agg.Name] = true
				break
			}
			if seen[c] {
				break // cycle further up; reported from its own members
			}
			seen[c] = true
		}
	}
	for _, agg := range b.table.order {
		if onCycle[agg.Name] {
			d := b.decls[agg.Name]
			b.errs.Add(diag.InheritanceCycleError, d.ParentPos,
				"class %s is its own ancestor", d.Name)
		}
	}
	for name := range onCycle {
		delete(b.parents, name)
	}
}

// checkFieldTypes reports fields naming aggregates that do not exist
func (b *builder) checkFieldTypes() {
	for _, agg := range b.table.order {
		d := b.decls[agg.Name]
		for _, f := range d.Fields {
			if !b.table.Exists(f.Type) {
				b.errs.Add(diag.UnresolvedTypeError, f.Pos,
					"field %s of %s has undeclared type %s", f.Name, d.Name, f.Type)
			}
		}
	}
}

// valueDep returns the aggregate that typ embeds by value, if any
func valueDep(typ Type) (string, bool) {
	for {
		switch tt := typ.(type) {
		case Tarray:
			typ = tt.Elem
			continue
		case Tstruct:
			return tt.Name, true
		case Tclass:
			return tt.Name, true
		}
		return "", false
	}
}

// resolve lays out one aggregate, laying out its parent and embedded
// aggregates first. It returns false when the aggregate cannot be finished.
func (b *builder) resolve(name string) bool {
	switch b.state[name] {
	case resolved:
		return true
	case resolving:
		return false
	}
	b.state[name] = resolving
	defer func() { b.state[name] = resolved }()

	agg := b.table.aggs[name]
	d := b.decls[name]
	ok := true

	size, align := 0, 1
	if agg.Parent != nil {
		if b.state[agg.Parent.Name] == resolving {
			b.errs.Add(diag.UnresolvedTypeError, d.Pos,
				"%s has infinite size: its parent %s contains it by value", name, agg.Parent.Name)
			ok = false
		} else if !b.resolve(agg.Parent.Name) {
			ok = false
		}
		agg.Fields = append(agg.Fields, agg.Parent.Fields...)
		size, align = agg.Parent.Size, agg.Parent.Align
	}

	for _, f := range d.Fields {
		if prev, dup := agg.Field(f.Name); dup {
			where := "in " + name
			if prev.Owner != name {
				where = "inherited from " + prev.Owner
			}
			b.errs.Add(diag.DuplicateDeclarationError, f.Pos,
				"field %s already declared %s", f.Name, where)
			continue
		}
		if !b.table.Exists(f.Type) {
			ok = false
			continue
		}
		if dep, embeds := valueDep(f.Type); embeds && !b.resolve(dep) {
			if b.state[dep] == resolving {
				b.errs.Add(diag.UnresolvedTypeError, f.Pos,
					"%s has infinite size: field %s contains %s by value", name, f.Name, dep)
			}
			ok = false
			continue
		}
		fa := b.table.Alignof(f.Type)
		size = AlignUp(size, fa)
		agg.Fields = append(agg.Fields, Field{Name: f.Name, Type: f.Type, Offset: size, Owner: name})
		size += b.table.Sizeof(f.Type)
		if fa > align {
			align = fa
		}
	}

	agg.Size = AlignUp(size, align)
	agg.Align = align
	return ok
}

// addMethods registers the method signatures of every class
func (b *builder) addMethods() {
	for _, agg := range b.table.order {
		d := b.decls[agg.Name]
		for _, md := range d.Methods {
			dup := false
			for _, m := range agg.Methods {
				if m.Name == md.Name {
					b.errs.Add(diag.DuplicateDeclarationError, md.Pos,
						"method %s already declared in class %s", md.Name, agg.Name)
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			if _, shadows := agg.Field(md.Name); shadows {
				b.errs.Add(diag.DuplicateDeclarationError, md.Pos,
					"method %s of class %s has the same name as a field", md.Name, agg.Name)
				continue
			}
			for _, p := range md.Params {
				if !b.table.Exists(p) {
					b.errs.Add(diag.UnresolvedTypeError, md.Pos,
						"method %s.%s has a parameter of undeclared type %s", agg.Name, md.Name, p)
				}
			}
			if !b.table.Exists(md.Return) {
				b.errs.Add(diag.UnresolvedTypeError, md.Pos,
					"method %s.%s returns undeclared type %s", agg.Name, md.Name, md.Return)
			}
			b.table.AddMethod(agg, &Method{
				Name:   md.Name,
				Params: md.Params,
				Return: md.Return,
				Owner:  agg.Name,
				Label:  MethodLabel(agg.Name, md.Name),
				Pos:    md.Pos,
			})
		}
	}
}
