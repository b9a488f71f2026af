// Package parser builds an ast.Program from M68k assembly source, following
// the dispatch shape of the teacher's two-pass parser (tokenize up front,
// then walk statement by statement) adapted to emit a typed AST instead of
// string operands.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nwidger/m68kasm/arena"
	"github.com/nwidger/m68kasm/ast"
	"github.com/nwidger/m68kasm/diag"
	"github.com/nwidger/m68kasm/lexer"
)

// Parse tokenizes and parses file, returning every statement it could
// recover plus any diagnostics raised along the way. Callers should not
// trust the returned Program when diagnostics contains an Error severity
// entry, but the partial tree is still returned for tooling that wants it.
func Parse(file *arena.File) (*ast.Program, []diag.Diagnostic) {
	fs := fileSpan{file}
	tokens, diags := lexer.TokenizeAll(file.Contents, fs)
	p := &parser{file: file, tokens: tokens}
	prog := p.parseProgram()
	diags = append(diags, p.diags...)
	return prog, diags
}

type fileSpan struct {
	file *arena.File
}

func (f fileSpan) Span(start, end int) diag.Span {
	return diag.Span{File: f.file, Start: start, End: end}
}

type parser struct {
	file   *arena.File
	tokens []lexer.Token
	pos    int
	diags  []diag.Diagnostic
}

func (p *parser) cur() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos+n]
}

func (p *parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) span(start, end lexer.Token) diag.Span {
	return diag.Span{File: p.file, Start: start.Start, End: end.End}
}

func (p *parser) errorf(tok lexer.Token, format string, args ...interface{}) {
	p.diags = append(p.diags, diag.New(diag.KindParse, p.span(tok, tok), fmt.Sprintf(format, args...)))
}

// skipToNewline consumes tokens through the next newline or EOF, used to
// recover after a malformed statement.
func (p *parser) skipToNewline() {
	for {
		tok := p.cur()
		if tok.Type == lexer.TokenNewline || tok.Type == lexer.TokenEOF {
			return
		}
		p.advance()
	}
}

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.cur().Type != lexer.TokenEOF {
		if p.cur().Type == lexer.TokenNewline {
			p.advance()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		if p.cur().Type != lexer.TokenEOF && p.cur().Type != lexer.TokenNewline {
			p.errorf(p.cur(), "expected end of line, found %q", p.cur().Literal)
			p.skipToNewline()
		}
		if p.cur().Type == lexer.TokenNewline {
			p.advance()
		}
	}
	return prog
}

func (p *parser) parseStatement() *ast.Statement {
	start := p.cur()
	stmt := &ast.Statement{}

	if p.cur().Type == lexer.TokenIdent && p.peekAt(1).Type == lexer.TokenColon {
		label := p.advance()
		colon := p.advance()
		stmt.HasLabel = true
		stmt.Label = label.Literal
		stmt.LabelSpan = p.span(label, colon)
	}

	if p.cur().Type == lexer.TokenNewline || p.cur().Type == lexer.TokenEOF {
		if !stmt.HasLabel {
			return nil
		}
		stmt.SpanInfo = p.span(start, p.cur())
		return stmt
	}

	if p.cur().Type != lexer.TokenIdent {
		p.errorf(p.cur(), "expected mnemonic or directive, found %q", p.cur().Literal)
		p.skipToNewline()
		return nil
	}

	name := strings.ToUpper(p.cur().Literal)
	switch name {
	case "ORG", "EQU", "DC", "DS", "INCLUDE":
		stmt.Kind = ast.StatementDirective
		stmt.Directive = p.parseDirective()
	default:
		stmt.Kind = ast.StatementInstruction
		stmt.Instruction = p.parseInstruction()
	}

	last := p.tokens[p.pos-1]
	if p.pos == 0 {
		last = start
	}
	stmt.SpanInfo = p.span(start, last)
	return stmt
}

func (p *parser) parseSizeSuffix() ast.Size {
	if p.cur().Type != lexer.TokenDot {
		return ast.SizeNone
	}
	dot := p.cur()
	letter := p.peekAt(1)
	if letter.Type != lexer.TokenIdent || len(letter.Literal) != 1 {
		return ast.SizeNone
	}
	switch strings.ToUpper(letter.Literal) {
	case "B":
		p.advance()
		p.advance()
		return ast.SizeB
	case "W":
		p.advance()
		p.advance()
		return ast.SizeW
	case "L":
		p.advance()
		p.advance()
		return ast.SizeL
	default:
		_ = dot
		return ast.SizeNone
	}
}

func (p *parser) parseDirective() *ast.Directive {
	nameTok := p.advance()
	name := strings.ToUpper(nameTok.Literal)
	dir := &ast.Directive{}

	switch name {
	case "ORG":
		dir.Kind = ast.DirectiveOrg
		dir.Expr = p.parseExpression()
	case "EQU":
		dir.Kind = ast.DirectiveEqu
		dir.Expr = p.parseExpression()
	case "DC":
		dir.Kind = ast.DirectiveDC
		dir.Size = p.parseSizeSuffix()
		dir.Items = p.parseDCItems()
	case "DS":
		dir.Kind = ast.DirectiveDS
		dir.Size = p.parseSizeSuffix()
		dir.Expr = p.parseExpression()
	case "INCLUDE":
		dir.Kind = ast.DirectiveInclude
		path, pathSpan := p.parseIncludePath()
		dir.Path = path
		dir.PathSpan = pathSpan
	}

	end := nameTok
	if p.pos > 0 {
		end = p.tokens[p.pos-1]
	}
	dir.SpanInfo = p.span(nameTok, end)
	return dir
}

func (p *parser) parseDCItems() []ast.DCItem {
	var items []ast.DCItem
	for {
		tok := p.cur()
		if tok.Type == lexer.TokenString {
			p.advance()
			items = append(items, ast.DCItem{
				IsString: true,
				Str:      tok.Literal,
				SpanInfo: p.span(tok, tok),
			})
		} else {
			expr := p.parseExpression()
			if expr == nil {
				break
			}
			items = append(items, ast.DCItem{Expr: expr, SpanInfo: expr.Span()})
		}
		if p.cur().Type != lexer.TokenComma {
			break
		}
		p.advance()
	}
	return items
}

// parseIncludePath reconstructs a bare filesystem path from adjoining
// tokens (idents, dots, slashes, numbers, minuses) when the argument isn't
// quoted, since the lexer has no notion of a path token.
func (p *parser) parseIncludePath() (string, diag.Span) {
	start := p.cur()
	if start.Type == lexer.TokenString {
		p.advance()
		return start.Literal, p.span(start, start)
	}

	var sb strings.Builder
	last := start
	for {
		tok := p.cur()
		switch tok.Type {
		case lexer.TokenIdent, lexer.TokenDot, lexer.TokenSlash, lexer.TokenMinus, lexer.TokenNumber:
			sb.WriteString(tok.Literal)
			last = tok
			p.advance()
		default:
			if sb.Len() == 0 {
				p.errorf(tok, "expected include path, found %q", tok.Literal)
				return "", p.span(tok, tok)
			}
			return sb.String(), p.span(start, last)
		}
	}
}

func (p *parser) parseInstruction() *ast.Instruction {
	nameTok := p.advance()
	inst := &ast.Instruction{Mnemonic: strings.ToUpper(nameTok.Literal)}
	inst.Size = p.parseSizeSuffix()

	if p.cur().Type != lexer.TokenNewline && p.cur().Type != lexer.TokenEOF {
		for {
			op := p.parseOperand()
			if op != nil {
				inst.Operands = append(inst.Operands, *op)
			}
			if p.cur().Type != lexer.TokenComma {
				break
			}
			p.advance()
		}
	}

	end := nameTok
	if p.pos > 0 {
		end = p.tokens[p.pos-1]
	}
	inst.SpanInfo = p.span(nameTok, end)
	return inst
}

func dataRegNumber(lit string) (int, bool) {
	if len(lit) != 2 {
		return 0, false
	}
	c := lit[0]
	if c != 'D' && c != 'd' {
		return 0, false
	}
	n := lit[1]
	if n < '0' || n > '7' {
		return 0, false
	}
	return int(n - '0'), true
}

func addrRegNumber(lit string) (int, bool) {
	if len(lit) != 2 {
		return 0, false
	}
	c := lit[0]
	if c != 'A' && c != 'a' {
		return 0, false
	}
	n := lit[1]
	if n < '0' || n > '7' {
		return 0, false
	}
	return int(n - '0'), true
}

func (p *parser) parseOperand() *ast.Operand {
	start := p.cur()

	switch start.Type {
	case lexer.TokenHash:
		p.advance()
		expr := p.parseExpression()
		if expr == nil {
			p.errorf(p.cur(), "expected expression after '#'")
		}
		end := p.lastConsumed(start)
		return &ast.Operand{Kind: ast.OperandImmediate, Expr: expr, SpanInfo: p.span(start, end)}

	case lexer.TokenMinus:
		if p.peekAt(1).Type == lexer.TokenLParen {
			p.advance() // '-'
			p.advance() // '('
			reg, ok := addrRegNumber(p.cur().Literal)
			if !ok || p.cur().Type != lexer.TokenIdent {
				p.errorf(p.cur(), "expected address register inside -(...)")
			} else {
				p.advance()
			}
			closeTok := p.cur()
			if p.cur().Type == lexer.TokenRParen {
				p.advance()
			} else {
				p.errorf(p.cur(), "expected ')'")
			}
			return &ast.Operand{Kind: ast.OperandIndirectPreDec, Reg: reg, SpanInfo: p.span(start, closeTok)}
		}
		expr := p.parseExpression()
		return p.finishAbsoluteOperand(start, expr)

	case lexer.TokenLParen:
		return p.parseParenOperand(start)

	case lexer.TokenIdent:
		if reg, ok := dataRegNumber(start.Literal); ok {
			p.advance()
			return &ast.Operand{Kind: ast.OperandDn, Reg: reg, SpanInfo: p.span(start, start)}
		}
		if reg, ok := addrRegNumber(start.Literal); ok {
			p.advance()
			return &ast.Operand{Kind: ast.OperandAn, Reg: reg, SpanInfo: p.span(start, start)}
		}
		expr := p.parseExpression()
		return p.finishAbsoluteOperand(start, expr)

	default:
		expr := p.parseExpression()
		if expr == nil {
			p.errorf(start, "expected operand, found %q", start.Literal)
			return nil
		}
		return p.finishAbsoluteOperand(start, expr)
	}
}

// parseParenOperand handles (An), (An)+, and (expr,An) displacement forms.
func (p *parser) parseParenOperand(open lexer.Token) *ast.Operand {
	p.advance() // '('

	if p.cur().Type == lexer.TokenIdent {
		if reg, ok := addrRegNumber(p.cur().Literal); ok && p.peekAt(1).Type == lexer.TokenRParen {
			p.advance() // register
			closeTok := p.advance()
			if p.cur().Type == lexer.TokenPlus {
				plus := p.advance()
				return &ast.Operand{Kind: ast.OperandIndirectPostInc, Reg: reg, SpanInfo: p.span(open, plus)}
			}
			return &ast.Operand{Kind: ast.OperandIndirect, Reg: reg, SpanInfo: p.span(open, closeTok)}
		}
	}

	disp := p.parseExpression()
	if p.cur().Type != lexer.TokenComma {
		p.errorf(p.cur(), "expected ',' in displacement operand")
		return &ast.Operand{Kind: ast.OperandIndirectDisp, Disp: disp, SpanInfo: p.span(open, p.cur())}
	}
	p.advance()
	regTok := p.cur()
	reg, ok := addrRegNumber(regTok.Literal)
	if !ok || regTok.Type != lexer.TokenIdent {
		p.errorf(regTok, "expected address register in displacement operand")
	} else {
		p.advance()
	}
	closeTok := p.cur()
	if p.cur().Type == lexer.TokenRParen {
		p.advance()
	} else {
		p.errorf(p.cur(), "expected ')'")
	}
	return &ast.Operand{Kind: ast.OperandIndirectDisp, Disp: disp, Reg: reg, SpanInfo: p.span(open, closeTok)}
}

// finishAbsoluteOperand consumes an optional .W/.L suffix after an absolute
// address expression; .W selects AbsoluteShort, anything else (including no
// suffix) selects AbsoluteLong.
func (p *parser) finishAbsoluteOperand(start lexer.Token, expr ast.Expression) *ast.Operand {
	kind := ast.OperandAbsoluteLong
	end := p.lastConsumed(start)
	if p.cur().Type == lexer.TokenDot {
		letter := p.peekAt(1)
		if letter.Type == lexer.TokenIdent && len(letter.Literal) == 1 {
			switch strings.ToUpper(letter.Literal) {
			case "W":
				kind = ast.OperandAbsoluteShort
				p.advance()
				end = p.advance()
			case "L":
				kind = ast.OperandAbsoluteLong
				p.advance()
				end = p.advance()
			}
		}
	}
	return &ast.Operand{Kind: kind, Expr: expr, SpanInfo: p.span(start, end)}
}

func (p *parser) lastConsumed(fallback lexer.Token) lexer.Token {
	if p.pos == 0 {
		return fallback
	}
	return p.tokens[p.pos-1]
}

// Expression parsing: precedence-climbing over the table of spec.md §6.2,
// lowest to highest: + - , * / MOD , & | , << >> ; unary - and ~ bind
// tighter than every binary operator.

func binaryPrecedence(tok lexer.Token) (ast.BinaryOp, int, bool) {
	switch tok.Type {
	case lexer.TokenPlus:
		return ast.BinaryAdd, 1, true
	case lexer.TokenMinus:
		return ast.BinarySub, 1, true
	case lexer.TokenStar:
		return ast.BinaryMul, 2, true
	case lexer.TokenSlash:
		return ast.BinaryDiv, 2, true
	case lexer.TokenAmp:
		return ast.BinaryAnd, 3, true
	case lexer.TokenPipe:
		return ast.BinaryOr, 3, true
	case lexer.TokenLShift:
		return ast.BinaryShl, 4, true
	case lexer.TokenRShift:
		return ast.BinaryShr, 4, true
	case lexer.TokenIdent:
		if strings.ToUpper(tok.Literal) == "MOD" {
			return ast.BinaryMod, 2, true
		}
	}
	return 0, 0, false
}

func (p *parser) parseExpression() ast.Expression {
	return p.parseBinary(1)
}

func (p *parser) parseBinary(minPrec int) ast.Expression {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		op, prec, ok := binaryPrecedence(p.cur())
		if !ok || prec < minPrec {
			return left
		}
		opTok := p.advance()
		right := p.parseBinary(prec + 1)
		if right == nil {
			p.errorf(opTok, "expected expression after operator")
			return left
		}
		left = &ast.Binary{Op: op, X: left, Y: right, SpanInfo: p.span(spanStartTok(left), spanEndTok(right))}
	}
}

func (p *parser) parseUnary() ast.Expression {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenMinus:
		p.advance()
		x := p.parseUnary()
		if x == nil {
			p.errorf(tok, "expected expression after '-'")
			return nil
		}
		return &ast.Unary{Op: ast.UnaryNeg, X: x, SpanInfo: p.span(tok, p.lastConsumed(tok))}
	case lexer.TokenTilde:
		p.advance()
		x := p.parseUnary()
		if x == nil {
			p.errorf(tok, "expected expression after '~'")
			return nil
		}
		return &ast.Unary{Op: ast.UnaryNot, X: x, SpanInfo: p.span(tok, p.lastConsumed(tok))}
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() ast.Expression {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		value, err := parseIntLiteral(tok.Literal)
		if err != nil {
			p.diags = append(p.diags, diag.New(diag.KindLiteralOverflow, p.span(tok, tok), err.Error()))
			value = 0
		}
		return &ast.Literal{Value: value, SpanInfo: p.span(tok, tok)}
	case lexer.TokenIdent:
		p.advance()
		return &ast.SymbolRef{Name: tok.Literal, SpanInfo: p.span(tok, tok)}
	case lexer.TokenLParen:
		p.advance()
		inner := p.parseExpression()
		if p.cur().Type == lexer.TokenRParen {
			p.advance()
		} else {
			p.errorf(p.cur(), "expected ')'")
		}
		return inner
	default:
		return nil
	}
}

func spanStartTok(e ast.Expression) lexer.Token {
	s := e.Span()
	return lexer.Token{Start: s.Start, End: s.Start}
}

func spanEndTok(e ast.Expression) lexer.Token {
	s := e.Span()
	return lexer.Token{Start: s.End, End: s.End}
}

// parseIntLiteral parses a raw numeric token (with its $/@/% prefix, if
// any) as spec.md §4.C directs: try signed 32-bit first, then unsigned
// 32-bit reinterpreted via two's complement; anything wider is a fatal
// overflow.
func parseIntLiteral(text string) (int32, error) {
	base := 10
	digits := text
	switch {
	case strings.HasPrefix(text, "$"):
		base = 16
		digits = text[1:]
	case strings.HasPrefix(text, "@"):
		base = 8
		digits = text[1:]
	case strings.HasPrefix(text, "%"):
		base = 2
		digits = text[1:]
	}

	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0x7FFFFFFF {
		return int32(v), nil
	}
	if v <= 0xFFFFFFFF {
		return int32(uint32(v)), nil
	}
	return 0, strconv.ErrRange
}
