package mdhavers

// registerAtomicBuiltins wires atomic_new/load/add/cas, grounded on the
// mutex-guarded Atomic type in value.go (kati itself has no concurrency
// primitives to generalize from; these follow the same "shared container
// behind a lock" shape as ListObj/DictObj).
func registerAtomicBuiltins(env *Environment) {
	native(env, "atomic_new", builtinAtomicNew)
	native(env, "atomic_load", builtinAtomicLoad)
	native(env, "atomic_add", builtinAtomicAdd)
	native(env, "atomic_cas", builtinAtomicCAS)
}

func builtinAtomicNew(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "atomic_new", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KInt {
		return Value{}, newRuntimeError(sp, "atomic_new: argument must be an integer")
	}
	return NewAtomic(args[0].AsInt()), nil
}

func builtinAtomicLoad(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "atomic_load", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KAtomic {
		return Value{}, newRuntimeError(sp, "atomic_load: argument must be an atomic")
	}
	return IntValue(args[0].Atomic().Load()), nil
}

// builtinAtomicAdd returns the post-add value, per spec.md §4.6.
func builtinAtomicAdd(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "atomic_add", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KAtomic || args[1].Kind() != KInt {
		return Value{}, newRuntimeError(sp, "atomic_add: expects (atomic, int)")
	}
	return IntValue(args[0].Atomic().Add(args[1].AsInt())), nil
}

func builtinAtomicCAS(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "atomic_cas", args, 3); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KAtomic || args[1].Kind() != KInt || args[2].Kind() != KInt {
		return Value{}, newRuntimeError(sp, "atomic_cas: expects (atomic, int, int)")
	}
	ok := args[0].Atomic().CAS(args[1].AsInt(), args[2].AsInt())
	return BoolValue(ok), nil
}
