package mdhavers

import (
	"strings"
	"sync"
)

// Evaluator walks a parsed Program, executing statements against a chain of
// Environment frames. Grounded on kati's Evaluator (eval.go), which also
// carries a current frame, a var/func lookup path and an output sink;
// generalized here from Make variable expansion to a full statement/
// expression tree walker with explicit outcome-based control flow
// (control.go) instead of the panic/recover kati never needed because Make
// has no loops or exceptions of its own.
type Evaluator struct {
	Global *Environment
	loader *Loader
	logger *Logger

	mu        sync.Mutex
	outBuf    strings.Builder
	callStack []Span
}

// NewEvaluator builds an Evaluator with a fresh root frame seeded with every
// builtin (builtins.go) and wires it to loader/logger, which may be nil for
// tests that only exercise pure expression/statement evaluation.
func NewEvaluator(loader *Loader, logger *Logger) *Evaluator {
	ev := &Evaluator{Global: NewEnvironment(), loader: loader, logger: logger}
	registerBuiltins(ev.Global)
	return ev
}

// Output appends s followed by a newline to the interpreter's output
// buffer; safe to call concurrently from spawned threads.
func (ev *Evaluator) Output(s string) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.outBuf.WriteString(s)
	ev.outBuf.WriteByte('\n')
}

// OutputString returns everything written via Output so far.
func (ev *Evaluator) OutputString() string {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.outBuf.String()
}

func (ev *Evaluator) pushFrame(sp Span) {
	ev.callStack = append(ev.callStack, sp)
}

func (ev *Evaluator) popFrame() {
	if len(ev.callStack) > 0 {
		ev.callStack = ev.callStack[:len(ev.callStack)-1]
	}
}

// thrownError carries a language-level thrown Value through Go's error
// channel without losing its structure (e.g. a thrown Dict keeps its
// fields), so an outer hae_a_bash/gin_it_gangs_wrang can bind the original
// value rather than a stringified approximation.
type thrownError struct{ val Value }

func (e *thrownError) Error() string { return e.val.String() }

func throwErr(v Value) error { return &thrownError{val: v} }

func valueOfErr(err error) Value {
	if te, ok := err.(*thrownError); ok {
		return te.val
	}
	return StringValue(err.Error())
}

func wrapErr(err error) outcome { return throwOutcome(valueOfErr(err)) }

// Run executes a top-level Program against the Global frame and reports an
// uncaught throw or control-flow escape as a Go error, per spec.md §7:
// "uncaught errors abort execution with the span of the failing node."
func (ev *Evaluator) Run(prog *Program) error {
	o := ev.execStmts(prog.Stmts, ev.Global)
	err := ev.outcomeToTopLevelErr(o)
	if err != nil {
		traceError(err)
	}
	return err
}

// RunIn executes a Program's statements against the given frame (used by
// the module loader to evaluate an imported file in its own module frame).
func (ev *Evaluator) RunIn(prog *Program, env *Environment) error {
	o := ev.execStmts(prog.Stmts, env)
	return ev.outcomeToTopLevelErr(o)
}

func (ev *Evaluator) outcomeToTopLevelErr(o outcome) error {
	switch o.kind {
	case outcomeNormal:
		return nil
	case outcomeThrow:
		return throwErr(o.value)
	case outcomeReturn:
		return newRuntimeError(Span{}, "gie used outside a function")
	case outcomeBreak, outcomeContinue:
		return newRuntimeError(Span{}, "break/continue used outside a loop")
	}
	return nil
}

// --- Statement execution ---

func (ev *Evaluator) execStmts(stmts []Stmt, env *Environment) outcome {
	for _, s := range stmts {
		o := ev.execStmt(s, env)
		if !o.isNormal() {
			return o
		}
	}
	return normalOutcome
}

func (ev *Evaluator) execStmt(s Stmt, env *Environment) outcome {
	switch n := s.(type) {
	case *VarDeclStmt:
		return ev.execVarDecl(n, env)
	case *FuncDeclStmt:
		fn := &Function{Name: n.Name, Params: n.Params, Rest: n.Rest, Body: n.Body, Env: env}
		env.Declare(n.Name, FunctionValue(fn))
		return normalOutcome
	case *ClassDeclStmt:
		return ev.execClassDecl(n, env)
	case *ExprStmt:
		_, err := ev.evalExpr(n.Expr, env)
		if err != nil {
			return wrapErr(err)
		}
		return normalOutcome
	case *AssignStmt:
		return ev.execAssign(n, env)
	case *BlockStmt:
		return ev.execStmts(n.Stmts, env.Child())
	case *IfStmt:
		return ev.execIf(n, env)
	case *WhileStmt:
		return ev.execWhile(n, env)
	case *ForStmt:
		return ev.execFor(n, env)
	case *ReturnStmt:
		if n.Value == nil {
			return returnOutcome(NilValue())
		}
		v, err := ev.evalExpr(n.Value, env)
		if err != nil {
			return wrapErr(err)
		}
		return returnOutcome(v)
	case *BreakStmt:
		return outcome{kind: outcomeBreak}
	case *ContinueStmt:
		return outcome{kind: outcomeContinue}
	case *PrintStmt:
		v, err := ev.evalExpr(n.Value, env)
		if err != nil {
			return wrapErr(err)
		}
		ev.Output(v.String())
		return normalOutcome
	case *MatchStmt:
		return ev.execMatch(n, env)
	case *TryStmt:
		return ev.execTry(n, env)
	case *ThrowStmt:
		v, err := ev.evalExpr(n.Value, env)
		if err != nil {
			return wrapErr(err)
		}
		return throwOutcome(v)
	case *AssertStmt:
		return ev.execAssert(n, env)
	case *ImportStmt:
		return ev.execImport(n, env)
	case *LogStmt:
		return ev.execLog(n, env)
	}
	return wrapErr(newRuntimeError(s.stmtSpan(), "unhandled statement type"))
}

func (ev *Evaluator) execVarDecl(n *VarDeclStmt, env *Environment) outcome {
	v, err := ev.evalExpr(n.Expr, env)
	if err != nil {
		return wrapErr(err)
	}
	if !n.Pat.IsList {
		env.Declare(n.Pat.Name, v)
		return normalOutcome
	}
	if v.Kind() != KList {
		return wrapErr(newRuntimeError(n.Span, "cannot destructure a %s value as a list pattern", v.Kind()))
	}
	items := v.List().Items
	if n.Pat.Rest == "" {
		if len(items) != len(n.Pat.List) {
			return wrapErr(newRuntimeError(n.Span, "list pattern expects %d elements, got %d", len(n.Pat.List), len(items)))
		}
	} else if len(items) < len(n.Pat.List) {
		return wrapErr(newRuntimeError(n.Span, "list pattern expects at least %d elements, got %d", len(n.Pat.List), len(items)))
	}
	for i, name := range n.Pat.List {
		env.Declare(name, items[i])
	}
	if n.Pat.Rest != "" {
		rest := append([]Value{}, items[len(n.Pat.List):]...)
		env.Declare(n.Pat.Rest, NewList(rest))
	}
	return normalOutcome
}

func (ev *Evaluator) execClassDecl(n *ClassDeclStmt, env *Environment) outcome {
	class := &Class{Name: n.Name, Methods: make(map[string]*Function)}
	for _, m := range n.Methods {
		class.Methods[m.Name] = &Function{Name: m.Name, Params: m.Params, Rest: m.Rest, Body: m.Body, Env: env}
	}
	env.Declare(n.Name, ClassValue(class))
	return normalOutcome
}

func (ev *Evaluator) execAssign(n *AssignStmt, env *Environment) outcome {
	if n.Op == "=" {
		v, err := ev.evalExpr(n.Value, env)
		if err != nil {
			return wrapErr(err)
		}
		if err := ev.setTarget(n.Target, env, v); err != nil {
			return wrapErr(err)
		}
		return normalOutcome
	}
	cur, err := ev.getTarget(n.Target, env)
	if err != nil {
		return wrapErr(err)
	}
	rhs, err := ev.evalExpr(n.Value, env)
	if err != nil {
		return wrapErr(err)
	}
	op := strings.TrimSuffix(n.Op, "=")
	newVal, err := binaryOp(op, cur, rhs, n.Span)
	if err != nil {
		return wrapErr(err)
	}
	if err := ev.setTarget(n.Target, env, newVal); err != nil {
		return wrapErr(err)
	}
	return normalOutcome
}

func (ev *Evaluator) execIf(n *IfStmt, env *Environment) outcome {
	c, err := ev.evalExpr(n.Cond, env)
	if err != nil {
		return wrapErr(err)
	}
	if c.Truthy() {
		return ev.execStmts(n.Then, env.Child())
	}
	if n.Else != nil {
		return ev.execStmts(n.Else, env.Child())
	}
	return normalOutcome
}

func (ev *Evaluator) execWhile(n *WhileStmt, env *Environment) outcome {
	for {
		c, err := ev.evalExpr(n.Cond, env)
		if err != nil {
			return wrapErr(err)
		}
		if !c.Truthy() {
			return normalOutcome
		}
		o := ev.execStmts(n.Body, env.Child())
		switch o.kind {
		case outcomeBreak:
			return normalOutcome
		case outcomeContinue, outcomeNormal:
			continue
		default:
			return o
		}
	}
}

func (ev *Evaluator) execFor(n *ForStmt, env *Environment) outcome {
	iterable, err := ev.evalExpr(n.Iterable, env)
	if err != nil {
		return wrapErr(err)
	}
	items, err := iterateValues(iterable)
	if err != nil {
		return wrapErr(err)
	}
	for _, item := range items {
		loopEnv := env.Child()
		loopEnv.Declare(n.Name, item)
		o := ev.execStmts(n.Body, loopEnv)
		switch o.kind {
		case outcomeBreak:
			return normalOutcome
		case outcomeContinue, outcomeNormal:
			continue
		default:
			return o
		}
	}
	return normalOutcome
}

// iterateValues materializes a cursor snapshot for `fer`, per spec.md §4.4:
// Range advances by 1, List by index, Dict by insertion-order keys, String
// by Unicode scalar, Bytes by octet. Snapshotting up front means mutating
// the container mid-loop cannot corrupt the iteration.
func iterateValues(v Value) ([]Value, error) {
	switch v.Kind() {
	case KRange:
		r := v.AsRange()
		n := r.Len()
		out := make([]Value, 0, n)
		for i := int64(0); i < n; i++ {
			out = append(out, IntValue(r.Lo+i))
		}
		return out, nil
	case KList:
		l := v.List()
		out := make([]Value, len(l.Items))
		copy(out, l.Items)
		return out, nil
	case KDict:
		d := v.Dict()
		keys := d.Keys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = StringValue(k)
		}
		return out, nil
	case KString:
		out := make([]Value, 0, len(v.AsString()))
		for _, r := range v.AsString() {
			out = append(out, StringValue(string(r)))
		}
		return out, nil
	case KBytes:
		b := v.Bytes()
		out := make([]Value, len(b.Data))
		for i, o := range b.Data {
			out[i] = IntValue(int64(o))
		}
		return out, nil
	}
	return nil, newRuntimeError(Span{}, "value of kind %s is not iterable", v.Kind())
}

func (ev *Evaluator) execMatch(n *MatchStmt, env *Environment) outcome {
	subject, err := ev.evalExpr(n.Subject, env)
	if err != nil {
		return wrapErr(err)
	}
	var defaultArm *MatchArm
	for i := range n.Arms {
		arm := &n.Arms[i]
		if arm.Lit == nil {
			if defaultArm == nil {
				defaultArm = arm
			}
			continue
		}
		lit, err := ev.evalExpr(arm.Lit, env)
		if err != nil {
			return wrapErr(err)
		}
		if Equal(subject, lit) {
			return ev.execStmt(arm.Stmt, env.Child())
		}
	}
	if defaultArm != nil {
		return ev.execStmt(defaultArm.Stmt, env.Child())
	}
	return normalOutcome
}

func (ev *Evaluator) execTry(n *TryStmt, env *Environment) outcome {
	o := ev.execStmts(n.Try, env.Child())
	if o.kind != outcomeThrow {
		return o
	}
	catchEnv := env.Child()
	catchEnv.Declare(n.CatchName, o.value)
	return ev.execStmts(n.Catch, catchEnv)
}

func (ev *Evaluator) execAssert(n *AssertStmt, env *Environment) outcome {
	c, err := ev.evalExpr(n.Cond, env)
	if err != nil {
		return wrapErr(err)
	}
	if c.Truthy() {
		return normalOutcome
	}
	msg := "assertion failed"
	if n.Message != nil {
		m, err := ev.evalExpr(n.Message, env)
		if err != nil {
			return wrapErr(err)
		}
		msg = m.String()
	}
	return throwOutcome(StringValue(msg))
}

func (ev *Evaluator) execImport(n *ImportStmt, env *Environment) outcome {
	if ev.loader == nil {
		return wrapErr(newRuntimeError(n.Span, "fetch is unavailable: no module loader configured"))
	}
	if err := ev.loader.Import(ev, n.Path, n.Alias, env, n.Span); err != nil {
		return wrapErr(err)
	}
	return normalOutcome
}

func (ev *Evaluator) execLog(n *LogStmt, env *Environment) outcome {
	msg, err := ev.evalExpr(n.Message, env)
	if err != nil {
		return wrapErr(err)
	}
	var extras Value
	hasExtras := false
	if n.Extras != nil {
		extras, err = ev.evalExpr(n.Extras, env)
		if err != nil {
			return wrapErr(err)
		}
		if extras.Kind() != KDict && extras.Kind() != KString {
			return wrapErr(newRuntimeError(n.Span, "log_blether extras must be a dict or string, got %s", extras.Kind()))
		}
		hasExtras = true
	}
	target := ""
	hasTarget := false
	if n.Target != nil {
		t, err := ev.evalExpr(n.Target, env)
		if err != nil {
			return wrapErr(err)
		}
		if t.Kind() != KString {
			return wrapErr(newRuntimeError(n.Span, "log_blether target must be a string, got %s", t.Kind()))
		}
		target = t.AsString()
		hasTarget = true
	}
	if ev.logger == nil {
		return normalOutcome
	}
	if err := ev.logger.Blether(ev, msg, extras, hasExtras, target, hasTarget, n.Span); err != nil {
		return wrapErr(err)
	}
	return normalOutcome
}

// --- lvalue targets ---

func (ev *Evaluator) getTarget(e Expr, env *Environment) (Value, error) {
	switch n := e.(type) {
	case *Ident:
		v, ok := env.Lookup(n.Name)
		if !ok {
			return Value{}, newRuntimeError(n.Span, "undefined name %q", n.Name)
		}
		return v, nil
	case *IndexExpr:
		recv, err := ev.evalExpr(n.Recv, env)
		if err != nil {
			return Value{}, err
		}
		idx, err := ev.evalExpr(n.Index, env)
		if err != nil {
			return Value{}, err
		}
		return getIndex(recv, idx, n.Span)
	case *MemberExpr:
		return ev.evalExpr(n, env)
	}
	return Value{}, newRuntimeError(e.exprSpan(), "invalid assignment target")
}

func (ev *Evaluator) setTarget(e Expr, env *Environment, val Value) error {
	switch n := e.(type) {
	case *Ident:
		if !env.Assign(n.Name, val) {
			return newRuntimeError(n.Span, "undefined name %q", n.Name)
		}
		return nil
	case *IndexExpr:
		recv, err := ev.evalExpr(n.Recv, env)
		if err != nil {
			return err
		}
		idx, err := ev.evalExpr(n.Index, env)
		if err != nil {
			return err
		}
		return setIndex(recv, idx, val, n.Span)
	case *MemberExpr:
		recv, err := ev.evalExpr(n.Recv, env)
		if err != nil {
			return err
		}
		if recv.Kind() != KInstance {
			return newRuntimeError(n.Span, "cannot set member %q on a %s value", n.Name, recv.Kind())
		}
		recv.Instance().Set(n.Name, val)
		return nil
	}
	return newRuntimeError(e.exprSpan(), "invalid assignment target")
}

// --- Expression evaluation ---

func (ev *Evaluator) evalExpr(e Expr, env *Environment) (Value, error) {
	switch n := e.(type) {
	case *NilLit:
		return NilValue(), nil
	case *BoolLit:
		return BoolValue(n.Value), nil
	case *IntLit:
		return IntValue(n.Value), nil
	case *FloatLit:
		return FloatValue(n.Value), nil
	case *StringLit:
		return StringValue(n.Value), nil
	case *Ident:
		v, ok := env.Lookup(n.Name)
		if !ok {
			return Value{}, newRuntimeError(n.Span, "undefined name %q", n.Name)
		}
		return v, nil
	case *ListLit:
		items := make([]Value, len(n.Elems))
		for i, el := range n.Elems {
			v, err := ev.evalExpr(el, env)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return NewList(items), nil
	case *DictLit:
		d := NewDict()
		do := d.Dict()
		for _, entry := range n.Entries {
			k, err := ev.evalExpr(entry.Key, env)
			if err != nil {
				return Value{}, err
			}
			if k.Kind() != KString {
				return Value{}, newRuntimeError(n.Span, "dict keys must be strings, got %s", k.Kind())
			}
			v, err := ev.evalExpr(entry.Value, env)
			if err != nil {
				return Value{}, err
			}
			do.Set(k.AsString(), v)
		}
		return d, nil
	case *RangeLit:
		lo, err := ev.evalExpr(n.Lo, env)
		if err != nil {
			return Value{}, err
		}
		hi, err := ev.evalExpr(n.Hi, env)
		if err != nil {
			return Value{}, err
		}
		if lo.Kind() != KInt || hi.Kind() != KInt {
			return Value{}, newRuntimeError(n.Span, "range bounds must be integers")
		}
		return RangeValue(RangeVal{Lo: lo.AsInt(), Hi: hi.AsInt(), Inclusive: n.Inclusive}), nil
	case *LambdaLit:
		fn := &Function{Name: "<lambda>", Params: n.Params, Body: []Stmt{&ReturnStmt{Base: n.Base, Value: n.Body}}, Env: env}
		return FunctionValue(fn), nil
	case *BinaryExpr:
		return ev.evalBinary(n, env)
	case *UnaryExpr:
		v, err := ev.evalExpr(n.Operand, env)
		if err != nil {
			return Value{}, err
		}
		switch v.Kind() {
		case KInt:
			return IntValue(-v.AsInt()), nil
		case KFloat:
			return FloatValue(-v.AsFloat()), nil
		}
		return Value{}, newRuntimeError(n.Span, "cannot negate a %s value", v.Kind())
	case *CallExpr:
		return ev.evalCall(n, env)
	case *IndexExpr:
		recv, err := ev.evalExpr(n.Recv, env)
		if err != nil {
			return Value{}, err
		}
		idx, err := ev.evalExpr(n.Index, env)
		if err != nil {
			return Value{}, err
		}
		return getIndex(recv, idx, n.Span)
	case *MemberExpr:
		return ev.evalMember(n, env)
	}
	return Value{}, newRuntimeError(e.exprSpan(), "unhandled expression type")
}

func (ev *Evaluator) evalBinary(n *BinaryExpr, env *Environment) (Value, error) {
	if n.Op == "or" || n.Op == "an" {
		l, err := ev.evalExpr(n.Left, env)
		if err != nil {
			return Value{}, err
		}
		if n.Op == "or" && l.Truthy() {
			return l, nil
		}
		if n.Op == "an" && !l.Truthy() {
			return l, nil
		}
		return ev.evalExpr(n.Right, env)
	}
	l, err := ev.evalExpr(n.Left, env)
	if err != nil {
		return Value{}, err
	}
	r, err := ev.evalExpr(n.Right, env)
	if err != nil {
		return Value{}, err
	}
	return binaryOp(n.Op, l, r, n.Span)
}

func (ev *Evaluator) evalMember(n *MemberExpr, env *Environment) (Value, error) {
	recv, err := ev.evalExpr(n.Recv, env)
	if err != nil {
		return Value{}, err
	}
	if recv.Kind() != KInstance {
		return Value{}, newRuntimeError(n.Span, "cannot access member %q on a %s value", n.Name, recv.Kind())
	}
	inst := recv.Instance()
	if v, ok := inst.Get(n.Name); ok {
		return v, nil
	}
	if method, ok := inst.Class.Methods[n.Name]; ok {
		bound := recv
		m := method
		return NativeFunctionValue(&NativeFunction{
			Name: n.Name,
			Fn: func(ev *Evaluator, args []Value, sp Span) (Value, error) {
				return ev.callMethod(bound, m, args, sp)
			},
		}), nil
	}
	return Value{}, newRuntimeError(n.Span, "%s has no field or method %q", inst.Class.Name, n.Name)
}

func (ev *Evaluator) evalCall(n *CallExpr, env *Environment) (Value, error) {
	callee, err := ev.evalExpr(n.Callee, env)
	if err != nil {
		return Value{}, err
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.evalExpr(a, env)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return ev.Invoke(callee, args, n.Span)
}

// Invoke calls any callable Value (Function, NativeFunction, or Class as a
// constructor) with already-evaluated arguments.
func (ev *Evaluator) Invoke(callee Value, args []Value, sp Span) (Value, error) {
	switch callee.Kind() {
	case KFunction:
		return ev.callFunction(callee.Function(), args, sp)
	case KNativeFunction:
		return callee.NativeFunction().Fn(ev, args, sp)
	case KClass:
		return ev.instantiate(callee.Class(), args, sp)
	}
	return Value{}, newRuntimeError(sp, "value of kind %s is not callable", callee.Kind())
}

func (ev *Evaluator) callFunction(fn *Function, args []Value, sp Span) (Value, error) {
	frame := fn.Env.Child()
	nparams := len(fn.Params)
	if fn.Rest == "" {
		if len(args) != nparams {
			return Value{}, newRuntimeError(sp, "function %s expects %d arguments, got %d", fn.Name, nparams, len(args))
		}
	} else if len(args) < nparams {
		return Value{}, newRuntimeError(sp, "function %s expects at least %d arguments, got %d", fn.Name, nparams, len(args))
	}
	for i, p := range fn.Params {
		frame.Declare(p, args[i])
	}
	if fn.Rest != "" {
		frame.Declare(fn.Rest, NewList(append([]Value{}, args[nparams:]...)))
	}
	traceCall(fn.Name, sp)
	ev.pushFrame(sp)
	defer ev.popFrame()
	o := ev.execStmts(fn.Body, frame)
	switch o.kind {
	case outcomeReturn:
		return o.value, nil
	case outcomeThrow:
		return Value{}, throwErr(o.value)
	case outcomeBreak, outcomeContinue:
		return Value{}, newRuntimeError(sp, "break/continue used outside a loop")
	}
	return NilValue(), nil
}

func (ev *Evaluator) callMethod(instance Value, fn *Function, args []Value, sp Span) (Value, error) {
	frame := fn.Env.Child()
	frame.Declare("this", instance)
	nparams := len(fn.Params)
	if fn.Rest == "" {
		if len(args) != nparams {
			return Value{}, newRuntimeError(sp, "method %s expects %d arguments, got %d", fn.Name, nparams, len(args))
		}
	} else if len(args) < nparams {
		return Value{}, newRuntimeError(sp, "method %s expects at least %d arguments, got %d", fn.Name, nparams, len(args))
	}
	for i, p := range fn.Params {
		frame.Declare(p, args[i])
	}
	if fn.Rest != "" {
		frame.Declare(fn.Rest, NewList(append([]Value{}, args[nparams:]...)))
	}
	traceCall(fn.Name, sp)
	ev.pushFrame(sp)
	defer ev.popFrame()
	o := ev.execStmts(fn.Body, frame)
	switch o.kind {
	case outcomeReturn:
		return o.value, nil
	case outcomeThrow:
		return Value{}, throwErr(o.value)
	case outcomeBreak, outcomeContinue:
		return Value{}, newRuntimeError(sp, "break/continue used outside a loop")
	}
	return NilValue(), nil
}

func (ev *Evaluator) instantiate(class *Class, args []Value, sp Span) (Value, error) {
	inst := NewInstance(class)
	if ctor, ok := class.Methods["new"]; ok {
		if _, err := ev.callMethod(inst, ctor, args, sp); err != nil {
			return Value{}, err
		}
		return inst, nil
	}
	if len(args) != 0 {
		return Value{}, newRuntimeError(sp, "class %s has no constructor accepting arguments", class.Name)
	}
	return inst, nil
}

// --- Arithmetic / comparison ---

func binaryOp(op string, a, b Value, sp Span) (Value, error) {
	switch op {
	case "+":
		return addValues(a, b, sp)
	case "-":
		return numericOp(op, a, b, sp)
	case "*":
		return numericOp(op, a, b, sp)
	case "/":
		return numericOp(op, a, b, sp)
	case "%":
		return modValues(a, b, sp)
	case "==":
		return BoolValue(Equal(a, b)), nil
	case "!=":
		return BoolValue(!Equal(a, b)), nil
	case "<", "<=", ">", ">=":
		return compareValues(op, a, b, sp)
	}
	return Value{}, newRuntimeError(sp, "unsupported operator %q", op)
}

func addValues(a, b Value, sp Span) (Value, error) {
	if a.Kind() == KString || b.Kind() == KString {
		return StringValue(a.String() + b.String()), nil
	}
	if a.Kind() == KList && b.Kind() == KList {
		merged := append([]Value{}, a.List().Items...)
		merged = append(merged, b.List().Items...)
		return NewList(merged), nil
	}
	if a.Kind() == KInt && b.Kind() == KInt {
		return IntValue(a.AsInt() + b.AsInt()), nil
	}
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if aok && bok {
		return FloatValue(af + bf), nil
	}
	return Value{}, newRuntimeError(sp, "cannot add %s and %s", a.Kind(), b.Kind())
}

func numericOp(op string, a, b Value, sp Span) (Value, error) {
	if a.Kind() == KInt && b.Kind() == KInt {
		x, y := a.AsInt(), b.AsInt()
		switch op {
		case "-":
			return IntValue(x - y), nil
		case "*":
			return IntValue(x * y), nil
		case "/":
			if y == 0 {
				return Value{}, newRuntimeError(sp, "division by zero")
			}
			return IntValue(x / y), nil
		}
	}
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if !aok || !bok {
		return Value{}, newRuntimeError(sp, "cannot apply %q to %s and %s", op, a.Kind(), b.Kind())
	}
	switch op {
	case "-":
		return FloatValue(af - bf), nil
	case "*":
		return FloatValue(af * bf), nil
	case "/":
		if bf == 0 {
			return Value{}, newRuntimeError(sp, "division by zero")
		}
		return FloatValue(af / bf), nil
	}
	return Value{}, newRuntimeError(sp, "unsupported operator %q", op)
}

// modValues implements truncated-toward-zero integer remainder per
// spec.md §4.3; "%" is defined only on Integers.
func modValues(a, b Value, sp Span) (Value, error) {
	if a.Kind() != KInt || b.Kind() != KInt {
		return Value{}, newRuntimeError(sp, "%% requires two integers, got %s and %s", a.Kind(), b.Kind())
	}
	y := b.AsInt()
	if y == 0 {
		return Value{}, newRuntimeError(sp, "division by zero")
	}
	return IntValue(a.AsInt() % y), nil
}

func compareValues(op string, a, b Value, sp Span) (Value, error) {
	cmp, ok := Compare(a, b)
	if !ok {
		return Value{}, newRuntimeError(sp, "values of kind %s and %s are not comparable", a.Kind(), b.Kind())
	}
	switch op {
	case "<":
		return BoolValue(cmp < 0), nil
	case "<=":
		return BoolValue(cmp <= 0), nil
	case ">":
		return BoolValue(cmp > 0), nil
	case ">=":
		return BoolValue(cmp >= 0), nil
	}
	return Value{}, newRuntimeError(sp, "unsupported operator %q", op)
}

// --- Indexing ---

func getIndex(recv, idx Value, sp Span) (Value, error) {
	switch recv.Kind() {
	case KList:
		i, ok := intIndex(idx)
		if !ok {
			return Value{}, newRuntimeError(sp, "list index must be an integer")
		}
		items := recv.List().Items
		if i < 0 || i >= int64(len(items)) {
			return Value{}, newRuntimeError(sp, "list index %d out of range (len %d)", i, len(items))
		}
		return items[i], nil
	case KDict:
		if idx.Kind() != KString {
			return Value{}, newRuntimeError(sp, "dict key must be a string")
		}
		v, ok := recv.Dict().Get(idx.AsString())
		if !ok {
			return Value{}, newRuntimeError(sp, "dict has no key %q", idx.AsString())
		}
		return v, nil
	case KString:
		i, ok := intIndex(idx)
		if !ok {
			return Value{}, newRuntimeError(sp, "string index must be an integer")
		}
		runes := []rune(recv.AsString())
		if i < 0 || i >= int64(len(runes)) {
			return Value{}, newRuntimeError(sp, "string index %d out of range (len %d)", i, len(runes))
		}
		return StringValue(string(runes[i])), nil
	case KBytes:
		i, ok := intIndex(idx)
		if !ok {
			return Value{}, newRuntimeError(sp, "bytes index must be an integer")
		}
		b := recv.Bytes()
		if i < 0 || i >= int64(len(b.Data)) {
			return Value{}, newRuntimeError(sp, "bytes index %d out of range (len %d)", i, len(b.Data))
		}
		return IntValue(int64(b.Data[i])), nil
	}
	return Value{}, newRuntimeError(sp, "value of kind %s is not indexable", recv.Kind())
}

func setIndex(recv, idx, val Value, sp Span) error {
	switch recv.Kind() {
	case KList:
		i, ok := intIndex(idx)
		if !ok {
			return newRuntimeError(sp, "list index must be an integer")
		}
		l := recv.List()
		if i < 0 || i >= int64(len(l.Items)) {
			return newRuntimeError(sp, "list index %d out of range (len %d)", i, len(l.Items))
		}
		l.Items[i] = val
		return nil
	case KDict:
		if idx.Kind() != KString {
			return newRuntimeError(sp, "dict key must be a string")
		}
		recv.Dict().Set(idx.AsString(), val)
		return nil
	case KBytes:
		i, ok := intIndex(idx)
		if !ok {
			return newRuntimeError(sp, "bytes index must be an integer")
		}
		if val.Kind() != KInt || val.AsInt() < 0 || val.AsInt() > 255 {
			return newRuntimeError(sp, "bytes element must be an integer in [0,255]")
		}
		b := recv.Bytes()
		if i < 0 || i >= int64(len(b.Data)) {
			return newRuntimeError(sp, "bytes index %d out of range (len %d)", i, len(b.Data))
		}
		b.Data[i] = byte(val.AsInt())
		return nil
	case KString:
		return newRuntimeError(sp, "strings are immutable")
	}
	return newRuntimeError(sp, "value of kind %s is not index-assignable", recv.Kind())
}

func intIndex(v Value) (int64, bool) {
	if v.Kind() != KInt {
		return 0, false
	}
	return v.AsInt(), true
}
