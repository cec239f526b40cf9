package sem

import "github.com/raymyers/minicc/pkg/ast"

// scope is one lexical level of variable declarations
type scope struct {
	outer *scope
	vars  map[string]*ast.VarDecl
}

func newScope(outer *scope) *scope {
	return &scope{outer: outer, vars: make(map[string]*ast.VarDecl)}
}

func (s *scope) lookup(name string) (*ast.VarDecl, bool) {
	for c := s; c != nil; c = c.outer {
		if v, ok := c.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *scope) lookupCurrent(name string) (*ast.VarDecl, bool) {
	v, ok := s.vars[name]
	return v, ok
}

func (s *scope) put(v *ast.VarDecl) {
	s.vars[v.Name] = v
}
