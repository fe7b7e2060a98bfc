// Package compiler implements the single-pass Pratt parser/compiler:
// it consumes tokens directly from a scanner.Scanner and emits bytecode
// into a Chunk as it goes, with no intervening AST. The token-driven
// parseRule table (prefix/infix/precedence keyed by token.Kind) and the
// advance/consume/parsePrecedence shape are grounded in the teacher
// project's pre-AST-split compiler.Compiler; the scope/local handling
// and jump backpatching are grounded in the teacher's
// compiler.ASTCompiler (Local, declareLocal, resolveLocal,
// emitPlaceholderJump/patchJump), generalized to spec.md's relative
// jump-offset encoding and its one-OP_POP-per-local scope exit instead
// of the teacher's batched OP_SCOPE_EXIT.
package compiler

import (
	"encoding/binary"
	"strconv"

	"github.com/informatter/nilox/intern"
	"github.com/informatter/nilox/scanner"
	"github.com/informatter/nilox/token"
	"github.com/informatter/nilox/value"
)

// precedence levels, lowest to highest.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < <= > >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ( )
	precPrimary
)

type parseFunc func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFunc
	infix      parseFunc
	precedence precedence
}

// local is a declared-but-maybe-not-yet-initialized local variable.
// depth == -1 marks "declared, initializer not yet compiled", which is
// how the compiler catches `var a = a;` self-reference.
type local struct {
	name  string
	depth int
}

const maxLocals = 256

// Compiler turns a token stream into a Chunk. One Compiler compiles one
// top-level program; it is not reused across calls to Compile.
type Compiler struct {
	source  string
	scan    *scanner.Scanner
	interner *intern.Table

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errors    []SyntaxError

	chunk *Chunk

	locals     []local
	scopeDepth int
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:        {prefix: grouping, infix: nil, precedence: precNone},
		token.RPAREN:        {},
		token.LBRACE:        {},
		token.RBRACE:        {},
		token.COMMA:         {},
		token.DOT:           {},
		token.MINUS:         {prefix: unary, infix: binaryOp, precedence: precTerm},
		token.PLUS:          {prefix: nil, infix: binaryOp, precedence: precTerm},
		token.SEMICOLON:     {},
		token.SLASH:         {prefix: nil, infix: binaryOp, precedence: precFactor},
		token.STAR:          {prefix: nil, infix: binaryOp, precedence: precFactor},
		token.BANG:          {prefix: unary, infix: nil, precedence: precNone},
		token.BANG_EQUAL:    {prefix: nil, infix: binaryOp, precedence: precEquality},
		token.EQUAL:         {},
		token.EQUAL_EQUAL:   {prefix: nil, infix: binaryOp, precedence: precEquality},
		token.GREATER:       {prefix: nil, infix: binaryOp, precedence: precComparison},
		token.GREATER_EQUAL: {prefix: nil, infix: binaryOp, precedence: precComparison},
		token.LESS:          {prefix: nil, infix: binaryOp, precedence: precComparison},
		token.LESS_EQUAL:    {prefix: nil, infix: binaryOp, precedence: precComparison},
		token.IDENTIFIER:    {prefix: variable, infix: nil, precedence: precNone},
		token.STRING:        {prefix: stringLiteral, infix: nil, precedence: precNone},
		token.NUMBER:        {prefix: number, infix: nil, precedence: precNone},
		token.AND:           {prefix: nil, infix: and_, precedence: precAnd},
		token.CLASS:         {},
		token.ELSE:          {},
		token.FALSE:         {prefix: literal, infix: nil, precedence: precNone},
		token.FOR:           {},
		token.FUN:           {},
		token.IF:            {},
		token.NIL:           {prefix: literal, infix: nil, precedence: precNone},
		token.OR:            {prefix: nil, infix: or_, precedence: precOr},
		token.PRINT:         {},
		token.RETURN:        {},
		token.SUPER:         {},
		token.THIS:          {},
		token.TRUE:          {prefix: literal, infix: nil, precedence: precNone},
		token.VAR:           {},
		token.WHILE:         {},
		token.ERROR:         {},
		token.EOF:           {},
	}
}

func getRule(kind token.Kind) parseRule {
	return rules[kind]
}

// Compile compiles source into a Chunk. interner is used to canonicalize
// string literals and global variable names as they are added to the
// constants pool. The returned error, if non-nil, is always a
// CompileError; no Chunk is meant to be executed when err != nil.
func Compile(source string, interner *intern.Table) (*Chunk, error) {
	c := &Compiler{
		source:   source,
		scan:     scanner.New(source),
		interner: interner,
		chunk:    NewChunk(),
	}

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.emitByte(byte(OpReturn))

	if c.hadError {
		return nil, CompileError{Errors: c.errors}
	}
	return c.chunk, nil
}

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scan.ScanToken()
		if c.current.Kind != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Message)
	}
}

func (c *Compiler) check(kind token.Kind) bool {
	return c.current.Kind == kind
}

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.Kind, message string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) lexeme(t token.Token) string {
	return t.Lexeme(c.source)
}

// --- error recovery: panic mode + synchronize ---

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(t token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errors = append(c.errors, SyntaxError{Line: t.Line, Message: message})
}

// synchronize discards tokens until it reaches a likely statement
// boundary, so a single syntax error doesn't cascade into a wall of
// spurious follow-on diagnostics.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR,
			token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- emission helpers ---

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.previous.Line)
}

func (c *Compiler) emitBytes(b1, b2 byte) {
	c.emitByte(b1)
	c.emitByte(b2)
}

func (c *Compiler) emitOp(op OpCode) {
	c.emitByte(byte(op))
}

// makeConstant appends v to the constants pool and returns its index,
// failing the compilation if the 256-entry, byte-operand ceiling would
// be exceeded.
func (c *Compiler) makeConstant(v value.Value) byte {
	index := c.chunk.AddConstant(v)
	if index >= maxConstants {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(index)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitBytes(byte(OpConstant), c.makeConstant(v))
}

// emitJump writes a jump opcode with a placeholder 2-byte operand and
// returns the offset of the first placeholder byte, for a later
// patchJump call.
func (c *Compiler) emitJump(op OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk.Code) - 2
}

// patchJump backfills the placeholder operand at offset with the
// distance from just after the operand to the current end of the
// chunk, exactly as spec.md §4.3 specifies: (dest - offset - 2).
func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk.Code) - offset - 2
	if jump > 0xffff {
		c.error("Jump over too much code.")
		return
	}
	binary.BigEndian.PutUint16(c.chunk.Code[offset:offset+2], uint16(jump))
}

// emitLoop emits OP_LOOP with the backward distance to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(OpLoop)
	offset := len(c.chunk.Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

// --- declarations & statements ---

func (c *Compiler) declaration() {
	if c.match(token.VAR) {
		c.varDeclaration()
	} else {
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

// parseVariable consumes the identifier token that names a variable
// being declared, declares it as a local if inside a scope, and
// returns the constant-pool index of its name for a later
// OP_DEFINE_GLOBAL (0, and otherwise unused, for locals).
func (c *Compiler) parseVariable(errorMessage string) byte {
	c.consume(token.IDENTIFIER, errorMessage)

	c.declareLocal()
	if c.scopeDepth > 0 {
		return 0
	}

	return c.identifierConstant(c.previous)
}

func (c *Compiler) identifierConstant(name token.Token) byte {
	obj := c.interner.Intern(c.lexeme(name))
	return c.makeConstant(value.Str(obj))
}

func (c *Compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(OpDefineGlobal), global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(OpPop)
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()

	elseJump := c.emitJump(OpJump)
	c.patchJump(thenJump)
	c.emitOp(OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk.Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(OpPop)
}

// forStatement lowers `for (init; cond; incr) body` into while-loop
// shaped bytecode: the body jumps to the increment, the increment
// jumps back to the condition, and loopStart is walked forward to
// point at the increment once it has been compiled. Grounded in
// spec.md §4.3's description of this exact desugaring.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk.Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(OpJumpIfFalse)
		c.emitOp(OpPop)
	}

	if !c.check(token.RPAREN) {
		bodyJump := c.emitJump(OpJump)

		incrementStart := len(c.chunk.Code)
		c.expression()
		c.emitOp(OpPop)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RPAREN, "Expect ')' after for clauses.")
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(OpPop)
	}

	c.endScope()
}

// --- scopes & locals ---

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope pops every local that went out of scope, one OP_POP per
// local (spec.md's testable scoping property), rather than the
// teacher's single batched OP_SCOPE_EXIT instruction.
func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) declareLocal() {
	if c.scopeDepth == 0 {
		return
	}

	name := c.lexeme(c.previous)
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Variable with this name already declared in this scope.")
			return
		}
	}

	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

// resolveLocal returns the slot index of name in the innermost
// enclosing scope that declares it, or -1 if no local declares it (the
// caller should then treat the name as global).
func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			if c.locals[i].depth == -1 {
				c.error("Cannot read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// --- Pratt expression parsing ---

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(min precedence) {
	c.advance()
	prefixRule := getRule(c.previous.Kind).prefix
	if prefixRule == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := min <= precAssignment
	prefixRule(c, canAssign)

	for min <= getRule(c.current.Kind).precedence {
		c.advance()
		infixRule := getRule(c.previous.Kind).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error("Invalid assignment target.")
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func number(c *Compiler, _ bool) {
	n, err := strconv.ParseFloat(c.lexeme(c.previous), 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number_(n))
}

func stringLiteral(c *Compiler, _ bool) {
	lexeme := c.lexeme(c.previous)
	unquoted := lexeme[1 : len(lexeme)-1]
	obj := c.interner.Intern(unquoted)
	c.emitConstant(value.Str(obj))
}

func literal(c *Compiler, _ bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(OpFalse)
	case token.TRUE:
		c.emitOp(OpTrue)
	case token.NIL:
		c.emitOp(OpNil)
	}
}

func unary(c *Compiler, _ bool) {
	op := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch op {
	case token.BANG:
		c.emitOp(OpNot)
	case token.MINUS:
		c.emitOp(OpNegate)
	}
}

func binaryOp(c *Compiler, _ bool) {
	op := c.previous.Kind
	rule := getRule(op)
	c.parsePrecedence(rule.precedence + 1)

	switch op {
	case token.BANG_EQUAL:
		c.emitOp(OpEqual)
		c.emitOp(OpNot)
	case token.EQUAL_EQUAL:
		c.emitOp(OpEqual)
	case token.GREATER:
		c.emitOp(OpGreater)
	case token.GREATER_EQUAL:
		c.emitOp(OpLess)
		c.emitOp(OpNot)
	case token.LESS:
		c.emitOp(OpLess)
	case token.LESS_EQUAL:
		c.emitOp(OpGreater)
		c.emitOp(OpNot)
	case token.PLUS:
		c.emitOp(OpAdd)
	case token.MINUS:
		c.emitOp(OpSubtract)
	case token.STAR:
		c.emitOp(OpMultiply)
	case token.SLASH:
		c.emitOp(OpDivide)
	}
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp OpCode
	slot := c.resolveLocal(c.lexeme(name))
	var arg byte
	if slot != -1 {
		getOp, setOp = OpGetLocal, OpSetLocal
		arg = byte(slot)
	} else {
		getOp, setOp = OpGetGlobal, OpSetGlobal
		arg = c.identifierConstant(name)
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitBytes(byte(setOp), arg)
	} else {
		c.emitBytes(byte(getOp), arg)
	}
}

// and_ implements short-circuiting `and`: if the left operand is
// falsey, OP_JUMP_IF_FALSE leaves it on the stack as the expression's
// result and skips the right operand entirely.
func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or_ implements short-circuiting `or`: if the left operand is truthy,
// jump straight past the right operand; otherwise fall through, pop
// the falsey left value, and evaluate the right operand.
func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(OpJumpIfFalse)
	endJump := c.emitJump(OpJump)

	c.patchJump(elseJump)
	c.emitOp(OpPop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}
