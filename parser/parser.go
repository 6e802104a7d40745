// Package parser implements the recursive-descent MCDOC parser. It
// keeps explicit control over token spans and synchronization-based
// error recovery, so one malformed declaration never swallows the
// rest of a file.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Hardel-DW/rsmcdoc/ast"
	"github.com/Hardel-DW/rsmcdoc/lexer"
)

var primitiveNames = map[string]bool{
	"string": true, "int": true, "long": true, "short": true,
	"byte": true, "float": true, "double": true, "boolean": true,
	"any": true,
}

// Parser consumes a token sequence produced by lexer.Tokenize and
// builds a Schema Unit. The zero value is not usable; use Parse.
type Parser struct {
	toks []lexer.Token
	pos  int
	unit *ast.SchemaUnit
}

// ModulePathFromFilename derives "a::b::c" from a logical filename
// of the form "a/b/c.mcdoc".
func ModulePathFromFilename(name string) string {
	name = strings.TrimSuffix(name, ".mcdoc")
	name = strings.TrimPrefix(name, "./")
	parts := strings.Split(name, "/")
	return strings.Join(parts, "::")
}

// Parse tokenizes src and parses it into a SchemaUnit. It never
// returns nil, and parse errors are accumulated on Unit.Errors rather
// than aborting.
func Parse(src string, modulePath string) *ast.SchemaUnit {
	p := &Parser{
		toks: lexer.Tokenize(src),
		unit: &ast.SchemaUnit{ModulePath: modulePath},
	}
	p.parseUnit()
	return p.unit
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) accept(k lexer.Kind) (lexer.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

// softKeywords lists keyword tokens that may still appear as a field
// name — MCDOC schemas routinely use "type" as a
// dispatch discriminant field, and the lexer has no separate mode for
// that context.
var softKeywords = map[lexer.Kind]bool{
	lexer.KwStruct: true, lexer.KwEnum: true, lexer.KwDispatch: true,
	lexer.KwTo: true, lexer.KwUse: true, lexer.KwAs: true, lexer.KwType: true,
}

func (p *Parser) atIdentLike() bool {
	return p.at(lexer.Identifier) || softKeywords[p.cur().Kind]
}

// expect consumes the current token if it matches k. On mismatch it
// records an error and leaves the cursor in place so the caller's own
// recovery loop decides how to proceed.
func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if tok, ok := p.accept(k); ok {
		return tok
	}
	tok := p.cur()
	p.record(tok, fmt.Sprintf("expected %s, found %s", k, tok.Kind))
	return tok
}

func (p *Parser) record(tok lexer.Token, msg string) {
	p.unit.Errors = append(p.unit.Errors, ast.ParseError{Message: msg, Span: tok.Span})
}

var topLevelStarts = map[lexer.Kind]bool{
	lexer.KwUse: true, lexer.KwType: true, lexer.KwStruct: true,
	lexer.KwEnum: true, lexer.KwDispatch: true,
}

// synchronizeTopLevel skips tokens until the next top-level keyword or
// EOF, so one malformed declaration does not swallow the rest of the
// file.
func (p *Parser) synchronizeTopLevel() {
	for !p.at(lexer.EOF) {
		if topLevelStarts[p.cur().Kind] {
			return
		}
		p.advance()
	}
}

func (p *Parser) parseUnit() {
	for !p.at(lexer.EOF) {
		startPos := p.pos
		annos := p.parseAnnotations()

		switch p.cur().Kind {
		case lexer.KwUse:
			p.unit.Decls = append(p.unit.Decls, p.parseUseDecl())
		case lexer.KwType:
			p.unit.Decls = append(p.unit.Decls, p.parseTypeAliasDecl(annos))
		case lexer.KwStruct:
			p.unit.Decls = append(p.unit.Decls, p.parseStructDecl(annos))
		case lexer.KwEnum:
			p.unit.Decls = append(p.unit.Decls, p.parseEnumDecl(annos))
		case lexer.KwDispatch:
			p.unit.Decls = append(p.unit.Decls, p.parseDispatchDecl())
		case lexer.EOF:
			return
		default:
			tok := p.cur()
			p.record(tok, fmt.Sprintf("expected a declaration (use/type/struct/enum/dispatch), found %s", tok.Kind))
			p.advance()
			p.synchronizeTopLevel()
		}

		if p.pos == startPos {
			p.advance() // safety valve: never stall
		}
	}
}

// --- Annotations ---

func (p *Parser) parseAnnotations() []ast.Annotation {
	var out []ast.Annotation
	for p.at(lexer.AnnotationOpen) {
		out = append(out, p.parseAnnotation())
	}
	return out
}

func (p *Parser) parseAnnotation() ast.Annotation {
	open := p.advance() // '#['
	nameTok := p.expect(lexer.Identifier)
	anno := ast.Annotation{Name: nameTok.Text, Span: open.Span}

	switch {
	case p.at(lexer.Equals):
		p.advance()
		anno.Value = p.parseLiteralText()
	case p.at(lexer.LParen):
		p.advance()
		anno.Args = p.parseAnnotationArgs()
		p.expect(lexer.RParen)
	}

	p.expect(lexer.RBracket)
	return anno
}

func (p *Parser) parseLiteralText() string {
	tok := p.cur()
	switch tok.Kind {
	case lexer.StringLiteral:
		p.advance()
		return lexer.Unquote(tok.Text)
	case lexer.Identifier, lexer.IntegerLiteral, lexer.FloatLiteral:
		p.advance()
		return tok.Text
	default:
		p.record(tok, fmt.Sprintf("expected a literal value, found %s", tok.Kind))
		return ""
	}
}

func (p *Parser) parseAnnotationArgs() []ast.AnnotationArg {
	var args []ast.AnnotationArg
	for !p.at(lexer.RParen) && !p.at(lexer.EOF) {
		startPos := p.pos
		keyTok := p.expect(lexer.Identifier)
		p.expect(lexer.Equals)

		arg := ast.AnnotationArg{Key: keyTok.Text}
		switch {
		case p.at(lexer.LBracket):
			p.advance()
			for !p.at(lexer.RBracket) && !p.at(lexer.EOF) {
				idTok := p.expect(lexer.Identifier)
				arg.Idents = append(arg.Idents, idTok.Text)
				if _, ok := p.accept(lexer.Comma); !ok {
					break
				}
			}
			p.expect(lexer.RBracket)
			arg.IsIdentList = true
		case p.at(lexer.StringLiteral):
			tok := p.advance()
			arg.Str = lexer.Unquote(tok.Text)
		default:
			arg.Str = p.parseLiteralText()
		}
		args = append(args, arg)

		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
		if p.pos == startPos {
			p.advance()
		}
	}
	return args
}

// --- Top-level declarations ---

func (p *Parser) parseUseDecl() ast.Decl {
	kw := p.advance() // 'use'
	path := p.parsePath()
	alias := ""
	if _, ok := p.accept(lexer.KwAs); ok {
		aliasTok := p.expect(lexer.Identifier)
		alias = aliasTok.Text
	}
	p.accept(lexer.Semicolon)
	return ast.UseDecl{Path: path, Alias: alias, Span: kw.Span}
}

func (p *Parser) parsePath() ast.Path {
	isAbsolute := false
	if _, ok := p.accept(lexer.DoubleColon); ok {
		isAbsolute = true
	}
	var segs []string
	segs = append(segs, p.expect(lexer.Identifier).Text)
	for {
		if _, ok := p.accept(lexer.DoubleColon); !ok {
			break
		}
		segs = append(segs, p.expect(lexer.Identifier).Text)
	}
	return ast.Path{Segments: segs, IsAbsolute: isAbsolute}
}

func (p *Parser) parseTypeAliasDecl(annos []ast.Annotation) ast.Decl {
	kw := p.advance() // 'type'
	nameTok := p.expect(lexer.Identifier)
	p.expect(lexer.Equals)
	t := p.parseType()
	return ast.TypeAliasDecl{Name: nameTok.Text, Type: t, Annotations: annos, Span: kw.Span}
}

func (p *Parser) parseStructDecl(annos []ast.Annotation) ast.Decl {
	kw := p.advance() // 'struct'
	nameTok := p.expect(lexer.Identifier)
	var generics []string
	if p.at(lexer.Lt) {
		generics = p.parseGenericParams()
	}
	p.expect(lexer.LBrace)
	fields := p.parseFieldList()
	p.expect(lexer.RBrace)
	return ast.StructDecl{
		Name: nameTok.Text, Generics: generics, Fields: fields,
		Annotations: annos, Span: kw.Span,
	}
}

func (p *Parser) parseGenericParams() []string {
	p.advance() // '<'
	var names []string
	names = append(names, p.expect(lexer.Identifier).Text)
	for {
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
		names = append(names, p.expect(lexer.Identifier).Text)
	}
	p.expect(lexer.Gt)
	return names
}

func (p *Parser) parseFieldList() []ast.Field {
	var fields []ast.Field
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		startPos := p.pos
		annos := p.parseAnnotations()

		switch {
		case p.at(lexer.Spread):
			p.advance()
			t := p.parseType()
			fields = append(fields, ast.Field{IsSpread: true, Type: t, Annotations: annos})
		case p.atIdentLike():
			nameTok := p.advance()
			optional := false
			if _, ok := p.accept(lexer.Question); ok {
				optional = true
			}
			if !p.at(lexer.Colon) {
				p.record(p.cur(), fmt.Sprintf("expected ':' after field %q, found %s", nameTok.Text, p.cur().Kind))
				p.skipToFieldBoundary()
				continue
			}
			p.advance() // colon
			t := p.parseType()
			fields = append(fields, ast.Field{
				Name: nameTok.Text, Type: t, Optional: optional,
				Annotations: annos, Span: nameTok.Span,
			})
		default:
			p.record(p.cur(), fmt.Sprintf("expected a field or spread, found %s", p.cur().Kind))
			p.advance()
			p.skipToFieldBoundary()
			continue
		}

		p.accept(lexer.Comma)
		if p.pos == startPos {
			p.advance()
		}
	}
	return fields
}

// skipToFieldBoundary recovers from a malformed field by discarding
// tokens up to the next ',' (consumed) or the enclosing '}'.
func (p *Parser) skipToFieldBoundary() {
	for !p.at(lexer.Comma) && !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		p.advance()
	}
	p.accept(lexer.Comma)
}

func (p *Parser) parseEnumDecl(annos []ast.Annotation) ast.Decl {
	kw := p.advance() // 'enum'
	name, enumType := p.parseEnumCommon()
	if name == "" {
		p.record(kw, "enum declaration requires a name")
	}
	return ast.EnumDecl{Name: name, Enum: enumType, Annotations: annos, Span: kw.Span}
}

// parseEnumCommon accepts both enum surface shapes:
// `enum Name : Primitive { ... }` and `enum(Primitive) Name { ... }`.
func (p *Parser) parseEnumCommon() (string, ast.EnumType) {
	if _, ok := p.accept(lexer.LParen); ok {
		primTok := p.expect(lexer.Identifier)
		p.expect(lexer.RParen)
		name := ""
		if p.at(lexer.Identifier) {
			name = p.advance().Text
		}
		p.expect(lexer.LBrace)
		variants := p.parseVariantList(primTok.Text)
		p.expect(lexer.RBrace)
		return name, ast.EnumType{Backing: primTok.Text, Variants: variants}
	}

	name := ""
	if p.at(lexer.Identifier) {
		name = p.advance().Text
	}
	p.expect(lexer.Colon)
	primTok := p.expect(lexer.Identifier)
	p.expect(lexer.LBrace)
	variants := p.parseVariantList(primTok.Text)
	p.expect(lexer.RBrace)
	return name, ast.EnumType{Backing: primTok.Text, Variants: variants}
}

func (p *Parser) parseVariantList(backing string) []ast.EnumVariant {
	var variants []ast.EnumVariant
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		startPos := p.pos
		nameTok := p.expect(lexer.Identifier)
		p.expect(lexer.Equals)

		v := ast.EnumVariant{Name: nameTok.Text, Span: nameTok.Span}
		if backing == "string" {
			strTok := p.expect(lexer.StringLiteral)
			v.ValueStr = lexer.Unquote(strTok.Text)
		} else {
			numTok := p.cur()
			if numTok.Kind == lexer.IntegerLiteral || numTok.Kind == lexer.FloatLiteral {
				p.advance()
			} else {
				p.record(numTok, fmt.Sprintf("expected a numeric literal, found %s", numTok.Kind))
			}
			n, _ := strconv.ParseFloat(numTok.Text, 64)
			v.ValueNum = n
			v.IsNumeric = true
		}
		variants = append(variants, v)

		p.accept(lexer.Comma)
		if p.pos == startPos {
			p.advance()
		}
	}
	return variants
}

func (p *Parser) parseDispatchDecl() ast.Decl {
	kw := p.advance() // 'dispatch'
	nsTok := p.expect(lexer.Identifier)
	p.expect(lexer.Colon)
	catTok := p.expect(lexer.Identifier)
	key := nsTok.Text + ":" + catTok.Text

	p.expect(lexer.LBracket)
	var targets []ast.DispatchTarget
	for !p.at(lexer.RBracket) && !p.at(lexer.EOF) {
		startPos := p.pos
		first := p.expect(lexer.Identifier)
		val := first.Text
		if _, ok := p.accept(lexer.Colon); ok {
			second := p.expect(lexer.Identifier)
			val = first.Text + ":" + second.Text
		}
		targets = append(targets, ast.DispatchTarget{Value: val, Span: first.Span})
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
		if p.pos == startPos {
			p.advance()
		}
	}
	p.expect(lexer.RBracket)
	p.expect(lexer.KwTo)
	target := p.parseType()

	return ast.DispatchDecl{Key: key, Targets: targets, Target: target, Span: kw.Span}
}

// --- Type expressions ---

func (p *Parser) parseType() ast.TypeExpr {
	first := p.parseTypeAlternative()
	alts := []ast.UnionAlternative{first}
	for {
		if _, ok := p.accept(lexer.Pipe); !ok {
			break
		}
		alts = append(alts, p.parseTypeAlternative())
	}
	if len(alts) == 1 && len(alts[0].Annotations) == 0 {
		return alts[0].Type
	}
	return ast.UnionType{Alternatives: alts}
}

func (p *Parser) parseTypeAlternative() ast.UnionAlternative {
	annos := p.parseAnnotations()
	t := p.parsePostfixType()
	return ast.UnionAlternative{Type: t, Annotations: annos}
}

func (p *Parser) parsePostfixType() ast.TypeExpr {
	t := p.parsePrimaryType()
	for p.at(lexer.LBracket) {
		p.advance()
		p.expect(lexer.RBracket)
		var constraint *ast.ArrayConstraint
		if _, ok := p.accept(lexer.At); ok {
			constraint = p.parseArrayConstraint()
		}
		t = ast.ArrayType{Element: t, Constraint: constraint}
	}
	return t
}

func (p *Parser) parseArrayConstraint() *ast.ArrayConstraint {
	if _, ok := p.accept(lexer.DotDot); ok {
		max := p.parseConstraintNumber()
		return &ast.ArrayConstraint{Max: &max, HasRange: true}
	}
	first := p.parseConstraintNumber()
	if _, ok := p.accept(lexer.DotDot); ok {
		if p.at(lexer.IntegerLiteral) || p.at(lexer.FloatLiteral) {
			max := p.parseConstraintNumber()
			return &ast.ArrayConstraint{Min: &first, Max: &max, HasRange: true}
		}
		return &ast.ArrayConstraint{Min: &first, HasRange: true}
	}
	return &ast.ArrayConstraint{Exact: &first}
}

func (p *Parser) parseConstraintNumber() float64 {
	tok := p.cur()
	if tok.Kind != lexer.IntegerLiteral && tok.Kind != lexer.FloatLiteral {
		p.record(tok, fmt.Sprintf("expected a number in array constraint, found %s", tok.Kind))
		return 0
	}
	p.advance()
	n, _ := strconv.ParseFloat(tok.Text, 64)
	return n
}

func (p *Parser) parsePrimaryType() ast.TypeExpr {
	tok := p.cur()
	switch tok.Kind {
	case lexer.Identifier:
		if primitiveNames[tok.Text] {
			p.advance()
			return ast.PrimitiveType{Name: tok.Text, Span: tok.Span}
		}
		if p.looksLikeDispatcherRef() {
			return p.parseDispatcherRef()
		}
		return p.parseNamedType()
	case lexer.DoubleColon:
		return p.parseNamedType()
	case lexer.LParen:
		p.advance()
		t := p.parseType()
		p.expect(lexer.RParen)
		return t
	case lexer.LBracket:
		// Prefix list form: `[ElementType]`, optionally `@`-constrained.
		p.advance()
		elem := p.parseType()
		p.expect(lexer.RBracket)
		var constraint *ast.ArrayConstraint
		if _, ok := p.accept(lexer.At); ok {
			constraint = p.parseArrayConstraint()
		}
		return ast.ArrayType{Element: elem, Constraint: constraint}
	case lexer.KwStruct:
		p.advance()
		p.expect(lexer.LBrace)
		fields := p.parseFieldList()
		p.expect(lexer.RBrace)
		return ast.StructType{Fields: fields}
	case lexer.KwEnum:
		p.advance()
		_, enumType := p.parseEnumCommon()
		return enumType
	case lexer.PercentIdent, lexer.BracketPlaceholder:
		p.advance()
		return ast.PercentPlaceholderType{Text: tok.Text, Span: tok.Span}
	default:
		p.record(tok, fmt.Sprintf("expected a type, found %s", tok.Kind))
		p.advance()
		return ast.PrimitiveType{Name: "any", Span: tok.Span}
	}
}

// looksLikeDispatcherRef checks the 4-token lookahead for
// `ident : ident [` without consuming anything, disambiguating
// `minecraft:resource[recipe]` from a plain named type.
func (p *Parser) looksLikeDispatcherRef() bool {
	return p.kindAt(0) == lexer.Identifier &&
		p.kindAt(1) == lexer.Colon &&
		p.kindAt(2) == lexer.Identifier &&
		(p.kindAt(3) == lexer.LBracket || p.kindAt(3) == lexer.BracketPlaceholder)
}

func (p *Parser) kindAt(off int) lexer.Kind {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return lexer.EOF
	}
	return p.toks[idx].Kind
}

func (p *Parser) parseDispatcherRef() ast.TypeExpr {
	nsTok := p.advance()
	p.advance() // colon
	catTok := p.advance()
	span := nsTok.Span

	// `minecraft:template[[%key]]`: the bracketed placeholder keeps the
	// discriminant dynamic, resolved from the JSON at validation time.
	if p.at(lexer.BracketPlaceholder) {
		p.advance()
		return ast.DispatcherRefType{
			Registry:  nsTok.Text + ":" + catTok.Text,
			IsDynamic: true,
			Span:      span,
		}
	}

	p.expect(lexer.LBracket)

	key := ""
	dynamic := false
	switch {
	case p.at(lexer.PercentIdent):
		p.advance()
		dynamic = true
	case p.at(lexer.Identifier) || p.at(lexer.StringLiteral):
		keyTok := p.advance()
		if keyTok.Kind == lexer.StringLiteral {
			key = lexer.Unquote(keyTok.Text)
		} else {
			key = keyTok.Text
		}
	}
	for {
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
		if p.at(lexer.Identifier) || p.at(lexer.StringLiteral) {
			p.advance()
		}
	}
	p.expect(lexer.RBracket)

	return ast.DispatcherRefType{
		Registry:  nsTok.Text + ":" + catTok.Text,
		StaticKey: key,
		IsDynamic: dynamic || key == "",
		Span:      span,
	}
}

func (p *Parser) parseNamedType() ast.TypeExpr {
	path := p.parsePath()
	var args []ast.TypeExpr
	if _, ok := p.accept(lexer.Lt); ok {
		args = append(args, p.parseType())
		for {
			if _, ok := p.accept(lexer.Comma); !ok {
				break
			}
			args = append(args, p.parseType())
		}
		p.expect(lexer.Gt)
	}
	return ast.NamedType{Name: path, Args: args}
}
