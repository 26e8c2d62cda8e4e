package mdhavers

import "strings"

// registerStringBuiltins wires text-manipulation builtins, grounded on
// kati's strutil.go (splitSpaces, trimSpaceBytes, etc.) but backed directly
// by Go's strings package since strutil.go's hand-rolled scanners exist
// there only to dodge an import of "strings" for byte slices, a constraint
// that does not apply to the String value kind here.
func registerStringBuiltins(env *Environment) {
	native(env, "str_split", builtinStrSplit)
	native(env, "str_join", builtinStrJoin)
	native(env, "str_trim", builtinStrTrim)
	native(env, "str_lower", builtinStrLower)
	native(env, "str_upper", builtinStrUpper)
	native(env, "str_find", builtinStrFind)
	native(env, "str_slice", builtinStrSlice)
	native(env, "str_starts_with", builtinStrStartsWith)
	native(env, "str_ends_with", builtinStrEndsWith)
	native(env, "kind_o", builtinKindOf)
	native(env, "bytes_to_string", builtinBytesToString)
}

func builtinStrSplit(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "str_split", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString || args[1].Kind() != KString {
		return Value{}, newRuntimeError(sp, "str_split: expects (string, string)")
	}
	parts := strings.Split(args[0].AsString(), args[1].AsString())
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = StringValue(p)
	}
	return NewList(out), nil
}

func builtinStrJoin(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "str_join", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KList || args[1].Kind() != KString {
		return Value{}, newRuntimeError(sp, "str_join: expects (list, string)")
	}
	items := args[0].List().Items
	parts := make([]string, len(items))
	for i, it := range items {
		if it.Kind() != KString {
			return Value{}, newRuntimeError(sp, "str_join: all list elements must be strings")
		}
		parts[i] = it.AsString()
	}
	return StringValue(strings.Join(parts, args[1].AsString())), nil
}

func builtinStrTrim(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "str_trim", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString {
		return Value{}, newRuntimeError(sp, "str_trim: argument must be a string")
	}
	return StringValue(strings.TrimSpace(args[0].AsString())), nil
}

func builtinStrLower(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "str_lower", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString {
		return Value{}, newRuntimeError(sp, "str_lower: argument must be a string")
	}
	return StringValue(strings.ToLower(args[0].AsString())), nil
}

func builtinStrUpper(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "str_upper", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString {
		return Value{}, newRuntimeError(sp, "str_upper: argument must be a string")
	}
	return StringValue(strings.ToUpper(args[0].AsString())), nil
}

func builtinStrFind(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "str_find", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString || args[1].Kind() != KString {
		return Value{}, newRuntimeError(sp, "str_find: expects (string, string)")
	}
	return IntValue(int64(strings.Index(args[0].AsString(), args[1].AsString()))), nil
}

func builtinStrSlice(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "str_slice", args, 3); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString || args[1].Kind() != KInt || args[2].Kind() != KInt {
		return Value{}, newRuntimeError(sp, "str_slice: expects (string, int, int)")
	}
	runes := []rune(args[0].AsString())
	start, end := args[1].AsInt(), args[2].AsInt()
	if start < 0 || end > int64(len(runes)) || start > end {
		return Value{}, newRuntimeError(sp, "str_slice: range [%d,%d) out of bounds for length %d", start, end, len(runes))
	}
	return StringValue(string(runes[start:end])), nil
}

func builtinStrStartsWith(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "str_starts_with", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString || args[1].Kind() != KString {
		return Value{}, newRuntimeError(sp, "str_starts_with: expects (string, string)")
	}
	return BoolValue(strings.HasPrefix(args[0].AsString(), args[1].AsString())), nil
}

func builtinStrEndsWith(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "str_ends_with", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString || args[1].Kind() != KString {
		return Value{}, newRuntimeError(sp, "str_ends_with: expects (string, string)")
	}
	return BoolValue(strings.HasSuffix(args[0].AsString(), args[1].AsString())), nil
}

// kind_o exposes Value.Kind().String() so self-hosted stdlib modules
// (stdlib/sip.braw) can branch on whether a value arrived as Bytes or
// String without a dedicated language-level type-switch statement.
func builtinKindOf(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "kind_o", args, 1); err != nil {
		return Value{}, err
	}
	return StringValue(args[0].Kind().String()), nil
}

func builtinBytesToString(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "bytes_to_string", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KBytes {
		return Value{}, newRuntimeError(sp, "bytes_to_string: argument must be bytes")
	}
	return StringValue(string(args[0].Bytes().Data)), nil
}
