package mdhavers

// registerCollectionBuiltins wires the generic container builtins:
// len, push, pop, keys, values, contains, grup_up, pairt_by. Grounded on
// kati's strutil.go helpers (splitSpaces, hasWord), generalized from
// whitespace-separated Make word lists to the language's List/Dict/Bytes/
// String container family.
func registerCollectionBuiltins(env *Environment) {
	native(env, "len", builtinLen)
	native(env, "push", builtinPush)
	native(env, "pop", builtinPop)
	native(env, "keys", builtinKeys)
	native(env, "values", builtinValues)
	native(env, "contains", builtinContains)
	native(env, "grup_up", builtinGrupUp)
	native(env, "pairt_by", builtinPairtBy)
}

func builtinLen(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "len", args, 1); err != nil {
		return Value{}, err
	}
	v := args[0]
	switch v.Kind() {
	case KString:
		return IntValue(int64(len([]rune(v.AsString())))), nil
	case KList:
		return IntValue(int64(len(v.List().Items))), nil
	case KDict:
		return IntValue(int64(v.Dict().Len())), nil
	case KBytes:
		return IntValue(int64(len(v.Bytes().Data))), nil
	case KRange:
		return IntValue(v.AsRange().Len()), nil
	}
	return Value{}, newRuntimeError(sp, "len: unsupported value of kind %s", v.Kind())
}

func builtinPush(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "push", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KList {
		return Value{}, newRuntimeError(sp, "push: first argument must be a list, got %s", args[0].Kind())
	}
	l := args[0].List()
	l.Items = append(l.Items, args[1])
	return args[0], nil
}

func builtinPop(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "pop", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KList {
		return Value{}, newRuntimeError(sp, "pop: argument must be a list, got %s", args[0].Kind())
	}
	l := args[0].List()
	if len(l.Items) == 0 {
		return Value{}, newRuntimeError(sp, "pop: list is empty")
	}
	last := l.Items[len(l.Items)-1]
	l.Items = l.Items[:len(l.Items)-1]
	return last, nil
}

func builtinKeys(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "keys", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KDict {
		return Value{}, newRuntimeError(sp, "keys: argument must be a dict, got %s", args[0].Kind())
	}
	ks := args[0].Dict().Keys()
	out := make([]Value, len(ks))
	for i, k := range ks {
		out[i] = StringValue(k)
	}
	return NewList(out), nil
}

func builtinValues(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "values", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KDict {
		return Value{}, newRuntimeError(sp, "values: argument must be a dict, got %s", args[0].Kind())
	}
	d := args[0].Dict()
	ks := d.Keys()
	out := make([]Value, len(ks))
	for i, k := range ks {
		out[i], _ = d.Get(k)
	}
	return NewList(out), nil
}

func builtinContains(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "contains", args, 2); err != nil {
		return Value{}, err
	}
	haystack, needle := args[0], args[1]
	switch haystack.Kind() {
	case KString:
		if needle.Kind() != KString {
			return Value{}, newRuntimeError(sp, "contains: needle must be a string")
		}
		return BoolValue(stringContains(haystack.AsString(), needle.AsString())), nil
	case KList:
		for _, it := range haystack.List().Items {
			if Equal(it, needle) {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil
	case KDict:
		if needle.Kind() != KString {
			return Value{}, newRuntimeError(sp, "contains: dict key must be a string")
		}
		_, ok := haystack.Dict().Get(needle.AsString())
		return BoolValue(ok), nil
	case KBytes:
		if needle.Kind() != KInt {
			return Value{}, newRuntimeError(sp, "contains: bytes needle must be an integer octet")
		}
		for _, b := range haystack.Bytes().Data {
			if int64(b) == needle.AsInt() {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil
	}
	return Value{}, newRuntimeError(sp, "contains: unsupported haystack kind %s", haystack.Kind())
}

func stringContains(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

// grup_up groups list elements by f(x), preserving first-seen-key order
// and each group's original element order — the invariant spec.md §8
// states explicitly.
func builtinGrupUp(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "grup_up", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KList {
		return Value{}, newRuntimeError(sp, "grup_up: first argument must be a list, got %s", args[0].Kind())
	}
	d := NewDict()
	do := d.Dict()
	for _, item := range args[0].List().Items {
		key, err := ev.Invoke(args[1], []Value{item}, sp)
		if err != nil {
			return Value{}, err
		}
		keyStr := key.String()
		if existing, ok := do.Get(keyStr); ok {
			existing.List().Items = append(existing.List().Items, item)
		} else {
			do.Set(keyStr, NewList([]Value{item}))
		}
	}
	return d, nil
}

// pairt_by partitions a list into [truthy, falsy] under predicate p,
// preserving each side's relative order.
func builtinPairtBy(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "pairt_by", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KList {
		return Value{}, newRuntimeError(sp, "pairt_by: first argument must be a list, got %s", args[0].Kind())
	}
	var truthy, falsy []Value
	for _, item := range args[0].List().Items {
		r, err := ev.Invoke(args[1], []Value{item}, sp)
		if err != nil {
			return Value{}, err
		}
		if r.Truthy() {
			truthy = append(truthy, item)
		} else {
			falsy = append(falsy, item)
		}
	}
	return NewList([]Value{NewList(truthy), NewList(falsy)}), nil
}
