package compiler

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ValueKind classifies a synthesized value.
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindString
	KindName
	KindTemp
	KindCondition
)

var valueKindNames = [...]string{
	KindNumber:    "number",
	KindString:    "string",
	KindName:      "name",
	KindTemp:      "temp",
	KindCondition: "condition",
}

func (k ValueKind) String() string {
	if int(k) >= 0 && int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// Value is what a reduction hands to its parent: the operand text to splice
// into instructions, plus the temporaries that text keeps alive.
type Value struct {
	Kind  ValueKind
	Text  string
	temps []string
}

func (v Value) String() string { return v.Text }

// Temps returns the temporaries owned by v.
func (v Value) Temps() []string {
	out := make([]string, len(v.temps))
	copy(out, v.temps)
	return out
}

var compoundKinds = map[TokenType]string{
	PLUSEQUALS:   "add",
	MINUSEQUALS:  "sub",
	TIMESEQUALS:  "mul",
	DIVIDEEQUALS: "div",
}

var binaryKinds = map[TokenType]string{
	PLUS:   "add",
	MINUS:  "sub",
	TIMES:  "mul",
	DIVIDE: "div",
}

// Options configures one compilation.
type Options struct {
	// Logger receives a debug trace of every emission. Nil disables logging.
	Logger *zerolog.Logger
	// UnknownCalls decides what a call to a non-builtin name does.
	UnknownCalls UnknownCallPolicy
	// Builtins adds template builtins on top of print, flush and test.
	Builtins map[string]string
	// Echo receives the text of every bare expression statement.
	Echo func(line int, text string)
}

// Translator is the mutable state driven by the grammar. Each action takes
// the synthesized values of a production's children, mutates the state and
// returns the production's own value. One Translator serves one compilation
// and must not be shared between goroutines.
type Translator struct {
	scopes   *ScopeStack
	syms     *SymbolTable
	temps    *TempAllocator
	jumps    *JumpTracker
	builtins *Builtins
	funcs    *FunctionTable
	policy   UnknownCallPolicy
	echo     func(line int, text string)
	log      zerolog.Logger
	line     int
}

func NewTranslator(opts Options) (*Translator, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	t := &Translator{
		scopes:   NewScopeStack(),
		syms:     NewSymbolTable(),
		temps:    NewTempAllocator(),
		jumps:    NewJumpTracker(),
		builtins: NewBuiltins(),
		funcs:    NewFunctionTable(),
		policy:   opts.UnknownCalls,
		echo:     opts.Echo,
		log:      log,
		line:     1,
	}
	for name, tmpl := range opts.Builtins {
		if err := t.builtins.RegisterTemplate(name, tmpl); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Translator) Scopes() *ScopeStack { return t.scopes }
func (t *Translator) Symbols() *SymbolTable { return t.syms }
func (t *Translator) Temps() *TempAllocator { return t.temps }
func (t *Translator) Jumps() *JumpTracker { return t.jumps }
func (t *Translator) Builtins() *Builtins { return t.builtins }
func (t *Translator) Functions() *FunctionTable { return t.funcs }

// SetLine sets the source line used for bindings and errors.
func (t *Translator) SetLine(line int) { t.line = line }

func (t *Translator) errorf(format string, args ...any) error {
	return &CompileError{Line: t.line, Msg: fmt.Sprintf(format, args...)}
}

// emit appends instr to the current block.
func (t *Translator) emit(instr string) error {
	block, err := t.scopes.Current()
	if err != nil {
		return &EmptyScopeError{Instr: instr}
	}
	block.Append(instr)
	t.log.Debug().Int("index", block.Size()-1).Int("line", t.line).Str("instr", instr).Msg("emit")
	return nil
}

func (t *Translator) release(v Value) {
	for _, name := range v.temps {
		t.temps.Release(name)
	}
}

func (t *Translator) operand(v Value, role string) error {
	if v.Kind == KindCondition {
		return t.errorf("comparison %q cannot be used as %s", v.Text, role)
	}
	return nil
}

// Number is the value of a NUMBER token.
func (t *Translator) Number(lexeme string) Value {
	return Value{Kind: KindNumber, Text: lexeme}
}

// StringLit is the value of a STRING token, quotes included.
func (t *Translator) StringLit(lexeme string) Value {
	return Value{Kind: KindString, Text: lexeme}
}

// Quoted is the value of the '"' STRING '"' production: the three lexemes
// concatenated.
func (t *Translator) Quoted(open, str, closing string) Value {
	return Value{Kind: KindString, Text: open + str + closing}
}

// Name is the value of a NAME token used as an operand.
func (t *Translator) Name(lexeme string) Value {
	return Value{Kind: KindName, Text: lexeme}
}

// Group is the value of '(' expr ')'.
func (t *Translator) Group(v Value) Value { return v }

// Assign compiles NAME '=' expr.
func (t *Translator) Assign(name string, v Value) error {
	if err := t.operand(v, "an assigned value"); err != nil {
		return err
	}
	t.syms.Bind(name, v.Text, t.line)
	err := t.emit(fmt.Sprintf("set %s %s", name, v.Text))
	t.release(v)
	return err
}

// CompoundAssign compiles NAME op= expr. The variable is both destination and
// first operand, so no temporary is needed.
func (t *Translator) CompoundAssign(op TokenType, name string, v Value) error {
	kind, ok := compoundKinds[op]
	if !ok {
		return t.errorf("%s is not a compound assignment", op)
	}
	if err := t.operand(v, "an operand"); err != nil {
		return err
	}
	err := t.emit(fmt.Sprintf("op %s %s %s %s", kind, name, name, v.Text))
	t.release(v)
	return err
}

// Binary compiles l op r into a fresh temporary. The operands' own
// temporaries are released once the result has been computed.
func (t *Translator) Binary(op TokenType, l, r Value) (Value, error) {
	kind, ok := binaryKinds[op]
	if !ok {
		return Value{}, t.errorf("%s is not an arithmetic operator", op)
	}
	if err := t.operand(l, "an operand"); err != nil {
		return Value{}, err
	}
	if err := t.operand(r, "an operand"); err != nil {
		return Value{}, err
	}
	temp := t.temps.Allocate()
	if err := t.emit(fmt.Sprintf("op %s %s %s %s", kind, temp, l.Text, r.Text)); err != nil {
		t.temps.Release(temp)
		return Value{}, err
	}
	t.release(l)
	t.release(r)
	return Value{Kind: KindTemp, Text: temp, temps: []string{temp}}, nil
}

// Compare builds the condition text for l op r, or l op= r when orEqual is
// set. Nothing is emitted; the text is consumed by the enclosing loop's jump,
// so the operands' temporaries stay live until then.
func (t *Translator) Compare(op TokenType, orEqual bool, l, r Value) (Value, error) {
	var cond string
	switch op {
	case GREATER:
		cond = "greaterThan"
	case LESS:
		cond = "lessThan"
	default:
		return Value{}, t.errorf("%s is not a comparison", op)
	}
	if orEqual {
		cond += "Eq"
	}
	if err := t.operand(l, "a comparison operand"); err != nil {
		return Value{}, err
	}
	if err := t.operand(r, "a comparison operand"); err != nil {
		return Value{}, err
	}
	temps := append(l.Temps(), r.temps...)
	return Value{Kind: KindCondition, Text: fmt.Sprintf("%s %s %s", cond, l.Text, r.Text), temps: temps}, nil
}

// Negate folds unary minus into a numeric literal.
func (t *Translator) Negate(v Value) (Value, error) {
	if v.Kind != KindNumber {
		return Value{}, t.errorf("unary minus needs a numeric literal, got %s %q", v.Kind, v.Text)
	}
	text := v.Text
	switch {
	case strings.HasPrefix(text, "-"):
		text = text[1:]
	case strings.Trim(text, "0") == "":
		text = "0"
	default:
		text = "-" + text
	}
	return Value{Kind: KindNumber, Text: text}, nil
}

// OpenLoop runs before the 'while' keyword is consumed and records where the
// loop's backward jump will land.
func (t *Translator) OpenLoop() error {
	block, err := t.scopes.Current()
	if err != nil {
		return &EmptyScopeError{Instr: "jump"}
	}
	t.jumps.Open(block.Size())
	t.log.Debug().Int("target", block.Size()).Int("depth", t.jumps.Depth()).Msg("enter loop")
	return nil
}

// CloseLoop emits the loop's backward jump after its body. A condition that is
// not a comparison jumps while the value is non-zero.
func (t *Translator) CloseLoop(cond Value) error {
	target, err := t.jumps.Close()
	if err != nil {
		return fmt.Errorf("close loop: %w", err)
	}
	text := cond.Text
	if cond.Kind != KindCondition {
		text = fmt.Sprintf("notEqual %s 0", cond.Text)
	}
	err = t.emit(fmt.Sprintf("jump %d %s", target, text))
	t.release(cond)
	t.log.Debug().Int("target", target).Int("depth", t.jumps.Depth()).Msg("leave loop")
	return err
}

// AbandonLoop pops a loop whose construct failed to parse, without emitting.
func (t *Translator) AbandonLoop() {
	if _, err := t.jumps.Close(); err == nil {
		t.log.Debug().Int("depth", t.jumps.Depth()).Msg("abandon loop")
	}
}

// Call compiles NAME '(' exprList ')' through the builtin table.
func (t *Translator) Call(name string, args []Value) error {
	texts := make([]string, len(args))
	for i, a := range args {
		if err := t.operand(a, "a call argument"); err != nil {
			return err
		}
		texts[i] = a.Text
	}
	defer func() {
		for _, a := range args {
			t.release(a)
		}
	}()

	instr, ok, err := t.builtins.Dispatch(name, texts)
	if err != nil {
		return t.errorf("%v", err)
	}
	if !ok {
		_, declared := t.funcs.Lookup(name)
		if t.policy == UnknownCallIgnore {
			t.log.Debug().Str("name", name).Bool("declared", declared).Msg("ignore call")
			return nil
		}
		return &UnresolvedFunctionError{Line: t.line, Name: name, Declared: declared}
	}
	return t.emit(instr)
}

// ExprStatement handles a bare expression. It emits nothing; the value is
// handed to the echo hook of interactive sessions.
func (t *Translator) ExprStatement(v Value) {
	if t.echo != nil {
		t.echo(t.line, v.Text)
	}
	t.release(v)
}

// DeclareFunction records a user function. Its address is never resolved.
func (t *Translator) DeclareFunction(name string, params []string) {
	t.funcs.Declare(name, params)
	t.log.Debug().Str("name", name).Strs("params", params).Msg("declare function")
}

// EnterScope pushes a new block and binding context.
func (t *Translator) EnterScope() *Block {
	t.syms.EnterScope()
	b := t.scopes.Enter()
	t.log.Debug().Int("depth", t.scopes.Depth()).Msg("enter scope")
	return b
}

// LeaveScope pops the current block and binding context.
func (t *Translator) LeaveScope() (*Block, error) {
	b, err := t.scopes.Leave()
	if err != nil {
		return nil, err
	}
	t.syms.ExitScope()
	t.log.Debug().Int("depth", t.scopes.Depth()).Msg("leave scope")
	return b, nil
}

// Checkpoint returns the size of the current block, to be handed to Rewind.
func (t *Translator) Checkpoint() int {
	block, err := t.scopes.Current()
	if err != nil {
		return 0
	}
	return block.Size()
}

// Rewind drops what the current block gained since mark was taken.
func (t *Translator) Rewind(mark int) {
	block, err := t.scopes.Current()
	if err != nil || block.Size() <= mark {
		return
	}
	t.log.Debug().Int("from", mark).Int("dropped", block.Size()-mark).Msg("rewind")
	block.Truncate(mark)
}

// Listing returns the instructions emitted so far, flattened.
func (t *Translator) Listing() []string { return t.scopes.Flatten() }

// Finish ends the compilation: every loop must be closed, the root block is
// popped and the final listing is returned.
func (t *Translator) Finish() ([]string, error) {
	if d := t.jumps.Depth(); d != 0 {
		return nil, fmt.Errorf("finish: %d loop(s) still open", d)
	}
	if _, err := t.scopes.Leave(); err != nil {
		return nil, fmt.Errorf("finish: %w", err)
	}
	return t.scopes.Flatten(), nil
}
