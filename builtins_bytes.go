package mdhavers

// registerBytesBuiltins wires the mutable octet-buffer builtins, grounded
// on kati's ioutil.go byte-oriented file reading, generalized to an
// in-language mutable buffer type.
func registerBytesBuiltins(env *Environment) {
	native(env, "bytes", builtinBytesNew)
	native(env, "bytes_set", builtinBytesSet)
	native(env, "bytes_get", builtinBytesGet)
	native(env, "bytes_slice", builtinBytesSlice)
	native(env, "bytes_read_u16be", builtinBytesReadU16BE)
	native(env, "bytes_from_string", builtinBytesFromString)
}

func builtinBytesNew(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "bytes", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KInt || args[0].AsInt() < 0 {
		return Value{}, newRuntimeError(sp, "bytes: argument must be a non-negative integer")
	}
	return NewBytes(int(args[0].AsInt())), nil
}

func builtinBytesSet(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "bytes_set", args, 3); err != nil {
		return Value{}, err
	}
	if err := setIndex(args[0], args[1], args[2], sp); err != nil {
		return Value{}, err
	}
	return NilValue(), nil
}

func builtinBytesGet(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "bytes_get", args, 2); err != nil {
		return Value{}, err
	}
	return getIndex(args[0], args[1], sp)
}

func builtinBytesSlice(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "bytes_slice", args, 3); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KBytes || args[1].Kind() != KInt || args[2].Kind() != KInt {
		return Value{}, newRuntimeError(sp, "bytes_slice: expects (bytes, int, int)")
	}
	data := args[0].Bytes().Data
	start, end := args[1].AsInt(), args[2].AsInt()
	if start < 0 || end > int64(len(data)) || start > end {
		return Value{}, newRuntimeError(sp, "bytes_slice: range [%d,%d) out of bounds for length %d", start, end, len(data))
	}
	return BytesFromSlice(data[start:end]), nil
}

// bytes_read_u16be implements the big-endian 16-bit read spec.md §8 pins
// down exactly: b[i]*256 + b[i+1].
func builtinBytesReadU16BE(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "bytes_read_u16be", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KBytes || args[1].Kind() != KInt {
		return Value{}, newRuntimeError(sp, "bytes_read_u16be: expects (bytes, int)")
	}
	data := args[0].Bytes().Data
	off := args[1].AsInt()
	if off < 0 || off+1 >= int64(len(data)) {
		return Value{}, newRuntimeError(sp, "bytes_read_u16be: offset %d out of range for length %d", off, len(data))
	}
	hi, lo := int64(data[off]), int64(data[off+1])
	return IntValue(hi*256 + lo), nil
}

func builtinBytesFromString(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "bytes_from_string", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString {
		return Value{}, newRuntimeError(sp, "bytes_from_string: argument must be a string")
	}
	return BytesFromSlice([]byte(args[0].AsString())), nil
}
