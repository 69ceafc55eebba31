// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"

	"golang.org/x/tools/go/packages"
)

// message identifies one gettext entry. plural is empty for singular entries.
type message struct {
	ctx    string
	id     string
	plural string
}

// location is a source reference written as a "#:" comment.
type location struct {
	file string
	line int
}

// catalog collects every message found and where it was used.
type catalog map[message][]location

// argLayout describes where a translation function takes its strings.
// Negative indexes mean the function has no such argument.
type argLayout struct {
	ctx, id, plural int
}

// translators lists the functions of package i18n that take msgids.
var translators = map[string]argLayout{
	"Tr":            {ctx: -1, id: 1, plural: -1},
	"TrC":           {ctx: 1, id: 2, plural: -1},
	"TrN":           {ctx: -1, id: 1, plural: 2},
	"TrNC":          {ctx: 1, id: 2, plural: 3},
	"NewUserError":  {ctx: -1, id: 1, plural: -1},
	"WrapUserError": {ctx: -1, id: 2, plural: -1},
}

// scanner walks the syntax of one package.
type scanner struct {
	out      catalog
	root     string
	fset     *token.FileSet
	info     *types.Info
	i18nPkgs map[string]bool
}

// extract scans pkgs for translation calls and i18n.MsgKey values.
func extract(pkgs []*packages.Package, root string) catalog {
	out := catalog{}
	i18nPkgs := i18nPackages(pkgs)

	for _, p := range pkgs {
		if p.TypesInfo == nil {
			continue
		}

		s := &scanner{out: out, root: root, fset: p.Fset, info: p.TypesInfo, i18nPkgs: i18nPkgs}

		for _, f := range p.Syntax {
			ast.Inspect(f, func(n ast.Node) bool {
				switch x := n.(type) {
				case *ast.CallExpr:
					s.call(x)
				case *ast.CompositeLit:
					s.literal(x)
				case *ast.ValueSpec:
					s.declaration(x)
				}

				return true
			})
		}
	}

	return out
}

// i18nPackages finds the packages named i18n that declare a string-based MsgKey,
// so that calls are matched however the package is imported.
func i18nPackages(pkgs []*packages.Package) map[string]bool {
	out := make(map[string]bool)

	packages.Visit(pkgs, nil, func(p *packages.Package) {
		if p.Name != "i18n" || p.Types == nil {
			return
		}

		tn, ok := p.Types.Scope().Lookup("MsgKey").(*types.TypeName)
		if !ok {
			return
		}

		if basic, ok := tn.Type().Underlying().(*types.Basic); ok && basic.Kind() == types.String {
			out[p.PkgPath] = true
		}
	})

	return out
}

func (s *scanner) constant(expr ast.Expr) (string, bool) {
	tv, ok := s.info.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}

	return constant.StringVal(tv.Value), true
}

// isMsgKey reports whether t is i18n.MsgKey, directly or through an alias.
func (s *scanner) isMsgKey(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}

	obj := named.Obj()

	return obj != nil && obj.Pkg() != nil && s.i18nPkgs[obj.Pkg().Path()] && obj.Name() == "MsgKey"
}

// keyAt records expr when it is a constant string converted to MsgKey.
func (s *scanner) keyAt(t types.Type, expr ast.Expr) {
	if !s.isMsgKey(t) {
		return
	}

	if msg, ok := s.constant(expr); ok {
		s.add(expr.Pos(), message{id: msg})
	}
}

func (s *scanner) call(x *ast.CallExpr) {
	// Conversion: i18n.MsgKey("...").
	if tv, ok := s.info.Types[x.Fun]; ok && tv.IsType() {
		if len(x.Args) == 1 {
			s.keyAt(tv.Type, x.Args[0])
		}

		return
	}

	if s.translatorCall(x) {
		return
	}

	// Any other call passing constants to MsgKey parameters.
	sig, ok := s.info.TypeOf(x.Fun).(*types.Signature)
	if !ok || sig.Params().Len() == 0 {
		return
	}

	params := sig.Params()
	last := params.Len() - 1

	for i, arg := range x.Args {
		switch {
		case sig.Variadic() && i >= last:
			if x.Ellipsis != token.NoPos {
				// f(xs...) is covered by the literal that built xs.
				continue
			}

			s.keyAt(params.At(last).Type().(*types.Slice).Elem(), arg)
		case i <= last:
			s.keyAt(params.At(i).Type(), arg)
		}
	}
}

// translatorCall handles the Tr family and the user error constructors.
func (s *scanner) translatorCall(x *ast.CallExpr) bool {
	sel, ok := x.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}

	fn, ok := s.info.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil || !s.i18nPkgs[fn.Pkg().Path()] {
		return false
	}

	layout, ok := translators[fn.Name()]
	if !ok {
		return false
	}

	var msg message

	for _, arg := range []struct {
		index int
		dst   *string
	}{
		{layout.ctx, &msg.ctx},
		{layout.id, &msg.id},
		{layout.plural, &msg.plural},
	} {
		if arg.index < 0 {
			continue
		}

		if arg.index >= len(x.Args) {
			return true
		}

		value, ok := s.constant(x.Args[arg.index])
		if !ok {
			return true
		}

		*arg.dst = value
	}

	s.add(x.Args[layout.id].Pos(), msg)

	return true
}

// declaration handles typed constants and variables: const k i18n.MsgKey = "...".
func (s *scanner) declaration(x *ast.ValueSpec) {
	for i, name := range x.Names {
		obj := s.info.Defs[name]
		if obj == nil || i >= len(x.Values) {
			continue
		}

		s.keyAt(obj.Type(), x.Values[i])
	}
}

// literal handles MsgKey values inside map, slice, array and struct literals.
func (s *scanner) literal(x *ast.CompositeLit) {
	tv, ok := s.info.Types[x]
	if !ok || tv.Type == nil {
		return
	}

	t := tv.Type
	if p, ok := t.Underlying().(*types.Pointer); ok {
		t = p.Elem()
	}

	switch u := t.Underlying().(type) {
	case *types.Map:
		for _, elt := range x.Elts {
			if kv, ok := elt.(*ast.KeyValueExpr); ok {
				s.keyAt(u.Key(), kv.Key)
				s.keyAt(u.Elem(), kv.Value)
			}
		}
	case *types.Slice:
		s.elements(u.Elem(), x.Elts)
	case *types.Array:
		s.elements(u.Elem(), x.Elts)
	case *types.Struct:
		for i, elt := range x.Elts {
			if kv, ok := elt.(*ast.KeyValueExpr); ok {
				if id, ok := kv.Key.(*ast.Ident); ok {
					if f := fieldByName(u, id.Name); f != nil {
						s.keyAt(f.Type(), kv.Value)
					}
				}

				continue
			}

			if i < u.NumFields() {
				s.keyAt(u.Field(i).Type(), elt)
			}
		}
	}
}

func (s *scanner) elements(elem types.Type, elts []ast.Expr) {
	for _, elt := range elts {
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			elt = kv.Value
		}

		s.keyAt(elem, elt)
	}
}

func fieldByName(st *types.Struct, name string) *types.Var {
	for i := range st.NumFields() {
		if st.Field(i).Name() == name {
			return st.Field(i)
		}
	}

	return nil
}

// add records msg at pos, with the file relative to the project root.
func (s *scanner) add(pos token.Pos, msg message) {
	p := s.fset.Position(pos)

	file := p.Filename
	if rel, err := filepath.Rel(s.root, file); err == nil {
		file = rel
	}

	s.out[msg] = append(s.out[msg], location{file: filepath.ToSlash(file), line: p.Line})
}
