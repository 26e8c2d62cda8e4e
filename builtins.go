package mdhavers

// registerBuiltins seeds env (the root frame) with every host-provided
// NativeFunction, grounded on kati's funcMap (func.go): a name -> callable
// registry built once and looked up by the evaluator like any other
// binding, generalized from Make's fixed function set to the open
// catalogue spec.md §4.6 requires.
func registerBuiltins(env *Environment) {
	registerCollectionBuiltins(env)
	registerBytesBuiltins(env)
	registerJSONBuiltins(env)
	registerStatsBuiltins(env)
	registerAtomicBuiltins(env)
	registerChannelBuiltins(env)
	registerThreadBuiltins(env)
	registerNetBuiltins(env)
	registerLoggingBuiltins(env)
	registerStringBuiltins(env)
}

func native(env *Environment, name string, fn func(ev *Evaluator, args []Value, sp Span) (Value, error)) {
	env.Declare(name, NativeFunctionValue(&NativeFunction{Name: name, Fn: fn}))
}

func argError(sp Span, fname string, want, got int) error {
	return newRuntimeError(sp, "%s expects %d arguments, got %d", fname, want, got)
}

func checkArgc(sp Span, fname string, args []Value, want int) error {
	if len(args) != want {
		return argError(sp, fname, want, len(args))
	}
	return nil
}
