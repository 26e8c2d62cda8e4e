package mdhavers

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Kind tags the variant a Value currently holds.
type Kind int

const (
	KNil Kind = iota
	KBool
	KInt
	KFloat
	KString
	KBytes
	KList
	KDict
	KRange
	KFunction
	KNativeFunction
	KClass
	KInstance
	KAtomic
	KChannel
	KThreadHandle
	KNativeObject
)

func (k Kind) String() string {
	switch k {
	case KNil:
		return "naething"
	case KBool:
		return "bool"
	case KInt:
		return "integer"
	case KFloat:
		return "float"
	case KString:
		return "string"
	case KBytes:
		return "bytes"
	case KList:
		return "list"
	case KDict:
		return "dict"
	case KRange:
		return "range"
	case KFunction:
		return "function"
	case KNativeFunction:
		return "native function"
	case KClass:
		return "class"
	case KInstance:
		return "instance"
	case KAtomic:
		return "atomic"
	case KChannel:
		return "channel"
	case KThreadHandle:
		return "thread handle"
	case KNativeObject:
		return "native object"
	}
	return "unknown"
}

// Value is the tagged sum of every runtime value. Shared-container variants
// (Bytes, List, Dict, Instance, Atomic, Channel, ThreadHandle) carry a
// pointer in ptr so that assignment aliases rather than copies, matching
// the reference-identity invariant in spec.md §3. Scalars (Nil, Bool, Int,
// Float, String, Range, Function, NativeFunction, Class) are plain value
// types; String is immutable and freely shareable by value.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	rng   RangeVal
	ptr   interface{}
}

// RangeVal is the Range payload: a half-open [Lo,Hi) or inclusive [Lo,Hi]
// integer range.
type RangeVal struct {
	Lo        int64
	Hi        int64
	Inclusive bool
}

// Len returns the range's length: max(0, Hi-Lo) or max(0, Hi-Lo+1).
func (r RangeVal) Len() int64 {
	n := r.Hi - r.Lo
	if r.Inclusive {
		n++
	}
	if n < 0 {
		return 0
	}
	return n
}

// NilValue, BoolValue, IntValue, FloatValue and StringValue construct scalar Values.
func NilValue() Value                 { return Value{kind: KNil} }
func BoolValue(b bool) Value          { return Value{kind: KBool, b: b} }
func IntValue(i int64) Value          { return Value{kind: KInt, i: i} }
func FloatValue(f float64) Value      { return Value{kind: KFloat, f: f} }
func StringValue(s string) Value      { return Value{kind: KString, s: s} }
func RangeValue(r RangeVal) Value     { return Value{kind: KRange, rng: r} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool   { return v.kind == KNil }
func (v Value) AsBool() bool  { return v.b }
func (v Value) AsInt() int64  { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsString() string { return v.s }
func (v Value) AsRange() RangeVal { return v.rng }

// --- Shared containers ---

// BytesObj is the mutable octet buffer backing a Bytes value.
type BytesObj struct {
	mu   sync.Mutex
	Data []byte
}

func NewBytes(n int) Value {
	return Value{kind: KBytes, ptr: &BytesObj{Data: make([]byte, n)}}
}

func BytesFromSlice(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KBytes, ptr: &BytesObj{Data: cp}}
}

func (v Value) Bytes() *BytesObj { return v.ptr.(*BytesObj) }

// ListObj is the mutable ordered sequence backing a List value.
type ListObj struct {
	mu    sync.Mutex
	Items []Value
}

func NewList(items []Value) Value {
	return Value{kind: KList, ptr: &ListObj{Items: items}}
}

func (v Value) List() *ListObj { return v.ptr.(*ListObj) }

// DictObj is the mutable string-keyed map backing a Dict value, preserving
// insertion order for iteration, printing and serialization.
type DictObj struct {
	mu   sync.Mutex
	keys []string
	m    map[string]Value
}

func NewDict() Value {
	return Value{kind: KDict, ptr: &DictObj{m: make(map[string]Value)}}
}

func (v Value) Dict() *DictObj { return v.ptr.(*DictObj) }

func (d *DictObj) Get(key string) (Value, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.m[key]
	return v, ok
}

func (d *DictObj) Set(key string, val Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.m[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.m[key] = val
}

func (d *DictObj) Delete(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.m[key]; !ok {
		return
	}
	delete(d.m, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order.
func (d *DictObj) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func (d *DictObj) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.keys)
}

// DictValueFromPairs builds a Dict preserving the given key order, for
// builtins that assemble result objects.
func DictValueFromPairs(pairs ...[2]interface{}) Value {
	d := NewDict()
	do := d.Dict()
	for _, p := range pairs {
		do.Set(p[0].(string), p[1].(Value))
	}
	return d
}

// Function is a user-defined callable: parameter names, body and the
// captured defining environment (the closure).
type Function struct {
	Name   string
	Params []string
	Rest   string // non-empty if the last parameter is a rest/varargs name; "" otherwise
	Body   []Stmt
	Env    *Environment
}

func FunctionValue(fn *Function) Value {
	return Value{kind: KFunction, ptr: fn}
}

func (v Value) Function() *Function { return v.ptr.(*Function) }

// NativeFunction is a host-provided callable: a name plus a typed Go entry
// point. Only NativeFunction values may cross the thread_spawn boundary
// (spec.md §5) because they do not capture interpreter-internal state.
type NativeFunction struct {
	Name string
	Fn   func(ev *Evaluator, args []Value, sp Span) (Value, error)
}

func NativeFunctionValue(nf *NativeFunction) Value {
	return Value{kind: KNativeFunction, ptr: nf}
}

func (v Value) NativeFunction() *NativeFunction { return v.ptr.(*NativeFunction) }

// Class and Instance model the optional class/object surface.
type Class struct {
	Name    string
	Methods map[string]*Function
	Fields  []string
}

func ClassValue(c *Class) Value { return Value{kind: KClass, ptr: c} }
func (v Value) Class() *Class   { return v.ptr.(*Class) }

type Instance struct {
	mu     sync.Mutex
	Class  *Class
	Fields map[string]Value
}

func NewInstance(c *Class) Value {
	return Value{kind: KInstance, ptr: &Instance{Class: c, Fields: make(map[string]Value)}}
}

func (v Value) Instance() *Instance { return v.ptr.(*Instance) }

func (in *Instance) Get(name string) (Value, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	v, ok := in.Fields[name]
	return v, ok
}

func (in *Instance) Set(name string, val Value) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.Fields[name] = val
}

// Atomic is a shared 64-bit integer supporting lock-free-style add/load/
// store/CAS from any thread. Implemented with a mutex rather than
// sync/atomic.Int64 directly so CAS and the language-visible value share
// one lock consistently with the rest of the container family.
type Atomic struct {
	mu sync.Mutex
	v  int64
}

func NewAtomic(i int64) Value {
	return Value{kind: KAtomic, ptr: &Atomic{v: i}}
}

func (v Value) Atomic() *Atomic { return v.ptr.(*Atomic) }

func (a *Atomic) Load() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}

func (a *Atomic) Add(n int64) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.v += n
	return a.v
}

func (a *Atomic) Store(n int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.v = n
}

func (a *Atomic) CAS(expected, newVal int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.v != expected {
		return false
	}
	a.v = newVal
	return true
}

// Channel is a FIFO queue of Values. Per SPEC_FULL.md §9, capacity 0 is
// treated as unbounded (a plain growable buffer guarded by a condition
// variable) rather than Go-channel rendezvous, so a same-thread
// send-then-recv never deadlocks; a positive capacity still blocks
// chan_send once the buffer is full.
type Channel struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []Value
	capacity int // 0 means unbounded
	closed   bool
}

func NewChannel(capacity int) Value {
	c := &Channel{capacity: capacity}
	c.cond = sync.NewCond(&c.mu)
	return Value{kind: KChannel, ptr: c}
}

func (v Value) Channel() *Channel { return v.ptr.(*Channel) }

func (c *Channel) Send(val Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.capacity > 0 && len(c.buf) >= c.capacity && !c.closed {
		c.cond.Wait()
	}
	c.buf = append(c.buf, val)
	c.cond.Broadcast()
}

func (c *Channel) Recv() (Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.buf) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.buf) == 0 {
		return NilValue(), false
	}
	val := c.buf[0]
	c.buf = c.buf[1:]
	c.cond.Broadcast()
	return val, true
}

// ThreadHandle is a joinable OS-thread (goroutine) handle producing a Value.
type ThreadHandle struct {
	done     chan struct{}
	mu       sync.Mutex
	result   Value
	err      error
	detached bool
}

func newThreadHandle() *ThreadHandle {
	return &ThreadHandle{done: make(chan struct{})}
}

func (v Value) ThreadHandle() *ThreadHandle { return v.ptr.(*ThreadHandle) }

func (t *ThreadHandle) finish(result Value, err error) {
	t.mu.Lock()
	t.result, t.err = result, err
	t.mu.Unlock()
	close(t.done)
}

func (t *ThreadHandle) Join() (Value, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

func (t *ThreadHandle) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detached = true
}

// NativeObject is an opaque host value (e.g. an SRTP context) identified
// only by a to_string name, grounded on the `<native kind>` rendering
// recovered from original_source/tests/tri_module_to_string_coverage.rs.
type NativeObject struct {
	KindName string
	Data     interface{}
}

func NativeObjectValue(kindName string, data interface{}) Value {
	return Value{kind: KNativeObject, ptr: &NativeObject{KindName: kindName, Data: data}}
}

func (v Value) NativeObject() *NativeObject { return v.ptr.(*NativeObject) }

// Truthy implements spec.md §4.3: nae, naething, integer 0, float 0.0 and
// empty string/list/dict/bytes are falsy; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KNil:
		return false
	case KBool:
		return v.b
	case KInt:
		return v.i != 0
	case KFloat:
		return v.f != 0
	case KString:
		return v.s != ""
	case KBytes:
		return len(v.Bytes().Data) > 0
	case KList:
		return len(v.List().Items) > 0
	case KDict:
		return v.Dict().Len() > 0
	default:
		return true
	}
}

// Equal implements deep structural equality for containers; NaN is never
// equal to itself.
func Equal(a, b Value) bool {
	if a.kind == KFloat && math.IsNaN(a.f) {
		return false
	}
	if b.kind == KFloat && math.IsNaN(b.f) {
		return false
	}
	if a.kind == KInt && b.kind == KFloat {
		return float64(a.i) == b.f
	}
	if a.kind == KFloat && b.kind == KInt {
		return a.f == float64(b.i)
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KNil:
		return true
	case KBool:
		return a.b == b.b
	case KInt:
		return a.i == b.i
	case KFloat:
		return a.f == b.f
	case KString:
		return a.s == b.s
	case KRange:
		return a.rng == b.rng
	case KBytes:
		ab, bb := a.Bytes(), b.Bytes()
		if ab == bb {
			return true
		}
		ab.mu.Lock()
		bb.mu.Lock()
		defer ab.mu.Unlock()
		defer bb.mu.Unlock()
		if len(ab.Data) != len(bb.Data) {
			return false
		}
		for i := range ab.Data {
			if ab.Data[i] != bb.Data[i] {
				return false
			}
		}
		return true
	case KList:
		al, bl := a.List(), b.List()
		if al == bl {
			return true
		}
		if len(al.Items) != len(bl.Items) {
			return false
		}
		for i := range al.Items {
			if !Equal(al.Items[i], bl.Items[i]) {
				return false
			}
		}
		return true
	case KDict:
		ad, bd := a.Dict(), b.Dict()
		if ad == bd {
			return true
		}
		ak := ad.Keys()
		bk := bd.Keys()
		if len(ak) != len(bk) {
			return false
		}
		for _, k := range ak {
			av, _ := ad.Get(k)
			bv, ok := bd.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		// reference identity for opaque/shared handles
		return a.ptr == b.ptr
	}
}

// Identical reports whether a and b are the same shared-container handle
// (or the same scalar value); a separate predicate from Equal per
// spec.md's "equality ... dereferences; identity is a separate predicate"
// design note.
func Identical(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KBytes, KList, KDict, KInstance, KAtomic, KChannel, KThreadHandle, KNativeObject, KFunction, KNativeFunction, KClass:
		return a.ptr == b.ptr
	default:
		return Equal(a, b)
	}
}

// Compare orders two values for < <= > >=. NaN comparisons are
// "incomparable" and report ok=false.
func Compare(a, b Value) (cmp int, ok bool) {
	af, aIsNum := numeric(a)
	bf, bIsNum := numeric(b)
	if aIsNum && bIsNum {
		if math.IsNaN(af) || math.IsNaN(bf) {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.kind == KString && b.kind == KString {
		return strings.Compare(a.s, b.s), true
	}
	return 0, false
}

func numeric(v Value) (float64, bool) {
	switch v.kind {
	case KInt:
		return float64(v.i), true
	case KFloat:
		return v.f, true
	}
	return 0, false
}

// String renders v the way blether/print and json_pretty render scalars
// and containers (dicts/lists print recursively with double-quoted string
// elements).
func (v Value) String() string {
	switch v.kind {
	case KNil:
		return "naething"
	case KBool:
		if v.b {
			return "aye"
		}
		return "nae"
	case KInt:
		return strconv.FormatInt(v.i, 10)
	case KFloat:
		return formatFloat(v.f)
	case KString:
		return v.s
	case KBytes:
		b := v.Bytes()
		b.mu.Lock()
		defer b.mu.Unlock()
		return fmt.Sprintf("bytes(%d)", len(b.Data))
	case KList:
		return listToDisplay(v.List(), false)
	case KDict:
		return dictToDisplay(v.Dict(), false)
	case KRange:
		if v.rng.Inclusive {
			return fmt.Sprintf("%d..=%d", v.rng.Lo, v.rng.Hi)
		}
		return fmt.Sprintf("%d..%d", v.rng.Lo, v.rng.Hi)
	case KFunction:
		return fmt.Sprintf("<function %s>", v.Function().Name)
	case KNativeFunction:
		return fmt.Sprintf("<native function %s>", v.NativeFunction().Name)
	case KClass:
		return fmt.Sprintf("<class %s>", v.Class().Name)
	case KInstance:
		return fmt.Sprintf("<instance %s>", v.Instance().Class.Name)
	case KAtomic:
		return fmt.Sprintf("<atomic %d>", v.Atomic().Load())
	case KChannel:
		return "<channel>"
	case KThreadHandle:
		return "<thread>"
	case KNativeObject:
		return fmt.Sprintf("<native %s>", v.NativeObject().KindName)
	}
	return "<unknown>"
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func quoteString(s string) string {
	return strconv.Quote(s)
}

func listToDisplay(l *ListObj, pretty bool) string {
	l.mu.Lock()
	items := make([]Value, len(l.Items))
	copy(items, l.Items)
	l.mu.Unlock()
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = displayElement(it)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func dictToDisplay(d *DictObj, pretty bool) string {
	keys := d.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		v, _ := d.Get(k)
		parts[i] = fmt.Sprintf("%s: %s", quoteString(k), displayElement(v))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func displayElement(v Value) string {
	if v.kind == KString {
		return quoteString(v.s)
	}
	return v.String()
}

// sortStrings is a tiny helper for deterministic key ordering distinct from
// insertion order; the module loader uses it to build an aliased module's
// export dict.
func sortStrings(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	sort.Strings(out)
	return out
}
