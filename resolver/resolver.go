// Package resolver builds the Schema Index: it merges parsed Schema
// Units, resolves named-type references across files, splices spread
// fields, and indexes dispatcher declarations. It works in two
// passes: register every declared name first, then resolve.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Hardel-DW/rsmcdoc/ast"
	"github.com/Hardel-DW/rsmcdoc/lexer"
)

// SchemaError is a resolver-level diagnostic: missing import,
// duplicate name, unresolvable spread cycle, duplicate dispatch entry.
type SchemaError struct {
	Message string
	Span    lexer.Span
}

type dispatchKey struct {
	Key          string
	Discriminant string
}

type dispatchEntry struct {
	Target   ast.TypeExpr
	Redirect *dispatchKey
}

// SchemaIndex is the resolved, validator-ready view built once per
// Init and thereafter read-only.
type SchemaIndex struct {
	Types         map[string]ast.Decl
	flatNames     map[string]string
	aliases       map[string]string
	splicedFields map[string][]ast.Field
	dispatch      map[dispatchKey]dispatchEntry
	Errors        []SchemaError
}

// Resolve builds a SchemaIndex from an unordered collection of parsed
// Schema Units. It never returns nil; every failure mode is
// accumulated on Errors instead.
func Resolve(units []*ast.SchemaUnit) *SchemaIndex {
	idx := &SchemaIndex{
		Types:         make(map[string]ast.Decl),
		flatNames:     make(map[string]string),
		aliases:       make(map[string]string),
		splicedFields: make(map[string][]ast.Field),
		dispatch:      make(map[dispatchKey]dispatchEntry),
	}

	sorted := make([]*ast.SchemaUnit, len(units))
	copy(sorted, units)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ModulePath < sorted[j].ModulePath })

	idx.buildNameTable(sorted)
	idx.buildAliases(sorted)
	idx.spliceAllSpreads()
	idx.indexDispatchers(sorted)
	return idx
}

func qualify(modulePath, name string) string {
	if modulePath == "" {
		return name
	}
	return modulePath + "::" + name
}

// buildNameTable is resolver step 1: a name table keyed by fully
// qualified path, processed in a stable module-path order so "first
// wins" duplicate detection is deterministic.
func (idx *SchemaIndex) buildNameTable(units []*ast.SchemaUnit) {
	for _, u := range units {
		for _, d := range u.Decls {
			var name string
			switch decl := d.(type) {
			case ast.StructDecl:
				name = decl.Name
			case ast.EnumDecl:
				name = decl.Name
			case ast.TypeAliasDecl:
				name = decl.Name
			default:
				continue
			}
			qn := qualify(u.ModulePath, name)
			if _, exists := idx.Types[qn]; exists {
				idx.addError(fmt.Sprintf("duplicate declaration %q", qn), declSpan(d))
				continue
			}
			idx.Types[qn] = d
			if _, taken := idx.flatNames[name]; !taken {
				idx.flatNames[name] = qn
			}
		}
	}
}

func declSpan(d ast.Decl) lexer.Span {
	switch v := d.(type) {
	case ast.StructDecl:
		return v.Span
	case ast.EnumDecl:
		return v.Span
	case ast.TypeAliasDecl:
		return v.Span
	case ast.DispatchDecl:
		return v.Span
	case ast.UseDecl:
		return v.Span
	}
	return lexer.Span{}
}

// buildAliases resolves each `use` import to the fully qualified name
// it denotes, so later NamedType lookups can substitute the alias.
func (idx *SchemaIndex) buildAliases(units []*ast.SchemaUnit) {
	for _, u := range units {
		for _, d := range u.Decls {
			use, ok := d.(ast.UseDecl)
			if !ok {
				continue
			}
			alias := use.Alias
			if alias == "" {
				alias = use.Path.Last()
			}
			target := use.Path.String()
			if _, ok := idx.Types[target]; !ok {
				if qn, ok := idx.flatNames[use.Path.Last()]; ok {
					target = qn
				} else {
					idx.addError(fmt.Sprintf("unresolved import %q", use.Path.String()), use.Span)
					continue
				}
			}
			idx.aliases[alias] = target
		}
	}
}

// ResolveName maps a NamedType path to its fully qualified declared
// name: an exact qualified match first, then an import alias, then a
// bare-name fallback across every module, so schemas can reference a
// type without qualifying it fully.
func (idx *SchemaIndex) ResolveName(path ast.Path) (string, bool) {
	raw := path.String()
	if _, ok := idx.Types[raw]; ok {
		return raw, true
	}
	if target, ok := idx.aliases[raw]; ok {
		return target, true
	}
	if qn, ok := idx.flatNames[path.Last()]; ok {
		return qn, true
	}
	return "", false
}

// Lookup returns the declaration registered under a fully qualified name.
func (idx *SchemaIndex) Lookup(qualifiedName string) (ast.Decl, bool) {
	d, ok := idx.Types[qualifiedName]
	return d, ok
}

// StructFields returns a named struct's fully spread-spliced field
// list. Inline (anonymous) struct bodies are not stored here; callers
// expand those on demand via ExpandFields.
func (idx *SchemaIndex) StructFields(qualifiedName string) ([]ast.Field, bool) {
	f, ok := idx.splicedFields[qualifiedName]
	return f, ok
}

// spliceAllSpreads is resolver step 3, applied to every named struct.
// Processing in sorted qualified-name order makes the cycle-breaking
// edge deterministic: a spread cycle always breaks at whichever member
// the sorted traversal reaches first.
func (idx *SchemaIndex) spliceAllSpreads() {
	var names []string
	for qn, d := range idx.Types {
		if _, ok := d.(ast.StructDecl); ok {
			names = append(names, qn)
		}
	}
	sort.Strings(names)
	inProgress := make(map[string]bool)
	for _, qn := range names {
		idx.resolveSpreadsFor(qn, inProgress)
	}
}

func (idx *SchemaIndex) resolveSpreadsFor(qn string, inProgress map[string]bool) []ast.Field {
	if out, ok := idx.splicedFields[qn]; ok {
		return out
	}
	decl, ok := idx.Types[qn].(ast.StructDecl)
	if !ok {
		return nil
	}
	if inProgress[qn] {
		idx.addError(fmt.Sprintf("spread cycle detected at %q", qn), decl.Span)
		return decl.Fields
	}
	inProgress[qn] = true
	out, errs := idx.expandFields(decl.Fields, func(targetPath ast.Path) ([]ast.Field, bool) {
		tqn, ok := idx.ResolveName(targetPath)
		if !ok {
			return nil, false
		}
		return idx.resolveSpreadsFor(tqn, inProgress), true
	})
	for _, e := range errs {
		idx.addError(e, decl.Span)
	}
	inProgress[qn] = false
	idx.splicedFields[qn] = out
	return out
}

// ExpandFields splices spread fields using already-resolved
// named-struct field lists, for inline/anonymous struct bodies that
// have no qualified name of their own (dispatch targets, inline field
// types). Safe to call repeatedly: it never mutates the index.
func (idx *SchemaIndex) ExpandFields(fields []ast.Field) ([]ast.Field, []string) {
	return idx.expandFields(fields, func(targetPath ast.Path) ([]ast.Field, bool) {
		tqn, ok := idx.ResolveName(targetPath)
		if !ok {
			return nil, false
		}
		return idx.StructFields(tqn)
	})
}

func (idx *SchemaIndex) expandFields(fields []ast.Field, lookupNamed func(ast.Path) ([]ast.Field, bool)) ([]ast.Field, []string) {
	var out []ast.Field
	var errs []string
	seen := make(map[string]bool)
	add := func(f ast.Field) {
		if f.Name != "" {
			if seen[f.Name] {
				errs = append(errs, fmt.Sprintf("duplicate field %q after splicing", f.Name))
				return
			}
			seen[f.Name] = true
		}
		out = append(out, f)
	}
	for _, f := range fields {
		if !f.IsSpread {
			add(f)
			continue
		}
		named, ok := f.Type.(ast.NamedType)
		if !ok {
			errs = append(errs, "spread target is not a named struct reference")
			continue
		}
		spread, ok := lookupNamed(named.Name)
		if !ok {
			errs = append(errs, fmt.Sprintf("spread target %q not found", named.Name.String()))
			continue
		}
		for _, sf := range spread {
			add(sf)
		}
	}
	return out, errs
}

// indexDispatchers is resolver step 4: register (key, discriminant) ->
// resolved type for every dispatcher declaration, storing a redirect
// marker when the right-hand side is itself a DispatcherRef.
func (idx *SchemaIndex) indexDispatchers(units []*ast.SchemaUnit) {
	for _, u := range units {
		for _, d := range u.Decls {
			dd, ok := d.(ast.DispatchDecl)
			if !ok {
				continue
			}
			for _, t := range dd.Targets {
				key := dispatchKey{Key: dd.Key, Discriminant: t.Value}
				if _, exists := idx.dispatch[key]; exists {
					idx.addError(fmt.Sprintf("duplicate dispatch entry for %s[%s]", dd.Key, t.Value), t.Span)
					continue
				}
				entry := dispatchEntry{Target: dd.Target}
				if ref, ok := dd.Target.(ast.DispatcherRefType); ok {
					entry.Target = nil
					entry.Redirect = &dispatchKey{Key: ref.Registry, Discriminant: ref.StaticKey}
				}
				idx.dispatch[key] = entry
			}
		}
	}
}

// LookupDispatch resolves (key, discriminant) through the dispatch
// index, following exactly one level of redirection.
func (idx *SchemaIndex) LookupDispatch(key, discriminant string) (ast.TypeExpr, bool) {
	entry, ok := idx.dispatch[dispatchKey{Key: key, Discriminant: discriminant}]
	if !ok {
		return nil, false
	}
	if entry.Redirect != nil {
		redirected, ok := idx.dispatch[*entry.Redirect]
		if !ok || redirected.Target == nil {
			return nil, false
		}
		return redirected.Target, true
	}
	return entry.Target, true
}

// LookupByResourceType resolves a resource-type label: s may be a bare
// discriminant ("recipe") or a full "minecraft:recipe" label; when no
// exact match is found under dispatcherKey, match case-sensitively on
// the part after the final ':'.
func (idx *SchemaIndex) LookupByResourceType(dispatcherKey, s string) (ast.TypeExpr, bool) {
	if t, ok := idx.LookupDispatch(dispatcherKey, s); ok {
		return t, true
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return idx.LookupDispatch(dispatcherKey, s[i+1:])
	}
	return nil, false
}

func (idx *SchemaIndex) addError(msg string, span lexer.Span) {
	idx.Errors = append(idx.Errors, SchemaError{Message: msg, Span: span})
}
