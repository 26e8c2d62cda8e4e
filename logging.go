package mdhavers

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Level is a logging severity, ordered from least to most verbose.
type Level int

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = map[string]Level{
	"wheesht": LevelOff,
	"thrawn":  LevelError,
	"sweir":   LevelWarn,
	"mutter":  LevelInfo,
	"yatter":  LevelDebug,
}

func levelFromName(name string) (Level, bool) {
	l, ok := levelNames[name]
	return l, ok
}

// filterSpec is the parsed form of a filter string: a default level plus
// optional per-target overrides, e.g. "mutter,tests.logging=yatter".
type filterSpec struct {
	defaultLevel Level
	perTarget    map[string]Level
}

func defaultFilterSpec() *filterSpec {
	return &filterSpec{defaultLevel: LevelDebug, perTarget: map[string]Level{}}
}

// parseFilter parses the filter grammar spec.md §4.7 requires: a
// comma-separated list of entries, each either a bare level name (sets the
// default) or "target=level" (sets a per-target override). Any unknown
// token is a parse failure.
func parseFilter(s string) (*filterSpec, error) {
	spec := &filterSpec{defaultLevel: LevelDebug, perTarget: map[string]Level{}}
	s = strings.TrimSpace(s)
	if s == "" {
		return spec, nil
	}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if idx := strings.IndexByte(entry, '='); idx >= 0 {
			target := strings.TrimSpace(entry[:idx])
			levelName := strings.TrimSpace(entry[idx+1:])
			if target == "" {
				return nil, fmt.Errorf("invalid log filter entry %q: empty target", entry)
			}
			lvl, ok := levelFromName(levelName)
			if !ok {
				return nil, fmt.Errorf("invalid log filter entry %q: unknown level %q", entry, levelName)
			}
			spec.perTarget[target] = lvl
			continue
		}
		lvl, ok := levelFromName(entry)
		if !ok {
			return nil, fmt.Errorf("invalid log filter entry %q: unknown level", entry)
		}
		spec.defaultLevel = lvl
	}
	return spec, nil
}

func (f *filterSpec) thresholdFor(target string) Level {
	if target != "" {
		if lvl, ok := f.perTarget[target]; ok {
			return lvl
		}
	}
	return f.defaultLevel
}

// logSink is a configured destination for log payloads.
type logSink interface {
	emit(ev *Evaluator, payload Value) error
}

// memorySink is a bounded ring buffer of recent payloads.
type memorySink struct {
	mu  sync.Mutex
	max int
	buf []Value
}

func (m *memorySink) emit(ev *Evaluator, payload Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf = append(m.buf, payload)
	if m.max > 0 && len(m.buf) > m.max {
		m.buf = m.buf[len(m.buf)-m.max:]
	}
	return nil
}

// callbackSink invokes a user-supplied Value (Function or NativeFunction)
// synchronously with the payload dict.
type callbackSink struct {
	fn Value
}

func (c *callbackSink) emit(ev *Evaluator, payload Value) error {
	_, err := ev.Invoke(c.fn, []Value{payload}, Span{})
	return err
}

// Logger is the process-wide logging subsystem configured once per
// interpreter via log_init, with MDH_LOG/MDH_LOG_LEVEL env fallback read
// at construction. Grounded on kati's own glog.Infof call sites (glog.go)
// for the idea of a filter-gated sink, generalized to user-configurable
// sinks since mdhavers' sinks are language-level values, not a fixed
// destination.
type Logger struct {
	mu     sync.Mutex
	filter *filterSpec
	sinks  []logSink
}

// NewLogger builds a Logger, consulting MDH_LOG then MDH_LOG_LEVEL when no
// log_init call has configured a filter yet. Malformed env values are
// tolerated silently (treated as "off"), per spec.md §9, unlike an
// explicit log_init filter string which must be well-formed.
func NewLogger() *Logger {
	l := &Logger{filter: defaultFilterSpec()}
	raw := os.Getenv("MDH_LOG")
	if raw == "" {
		raw = os.Getenv("MDH_LOG_LEVEL")
	}
	if raw != "" {
		if spec, err := parseFilter(raw); err == nil {
			l.filter = spec
		} else {
			l.filter = &filterSpec{defaultLevel: LevelOff, perTarget: map[string]Level{}}
		}
	}
	return l
}

// SetFilter replaces the active filter, rejecting malformed strings.
func (l *Logger) SetFilter(s string) error {
	spec, err := parseFilter(s)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.filter = spec
	l.mu.Unlock()
	return nil
}

// Configure applies a log_init config dict: optional "filter" string and
// "sinks" list of {kind:"memory",max:N} / {kind:"callback",fn:<function>}.
func (l *Logger) Configure(cfg Value, sp Span) error {
	if cfg.Kind() != KDict {
		return newRuntimeError(sp, "log_init: argument must be a dict")
	}
	d := cfg.Dict()
	if filterV, ok := d.Get("filter"); ok {
		if filterV.Kind() != KString {
			return newRuntimeError(sp, "log_init: filter must be a string")
		}
		if err := l.SetFilter(filterV.AsString()); err != nil {
			return newRuntimeError(sp, "log_init: %s", err)
		}
	}
	if sinksV, ok := d.Get("sinks"); ok {
		if sinksV.Kind() != KList {
			return newRuntimeError(sp, "log_init: sinks must be a list")
		}
		var sinks []logSink
		for _, sv := range sinksV.List().Items {
			sink, err := buildSink(sv, sp)
			if err != nil {
				return err
			}
			sinks = append(sinks, sink)
		}
		l.mu.Lock()
		l.sinks = sinks
		l.mu.Unlock()
	}
	return nil
}

func buildSink(v Value, sp Span) (logSink, error) {
	if v.Kind() != KDict {
		return nil, newRuntimeError(sp, "log_init: each sink must be a dict")
	}
	d := v.Dict()
	kindV, ok := d.Get("kind")
	if !ok || kindV.Kind() != KString {
		return nil, newRuntimeError(sp, "log_init: sink.kind must be a string")
	}
	switch kindV.AsString() {
	case "memory":
		max := 0
		if maxV, ok := d.Get("max"); ok {
			if maxV.Kind() != KInt {
				return nil, newRuntimeError(sp, "log_init: sink.max must be an integer")
			}
			max = int(maxV.AsInt())
		}
		return &memorySink{max: max}, nil
	case "callback":
		fnV, ok := d.Get("fn")
		if !ok || (fnV.Kind() != KFunction && fnV.Kind() != KNativeFunction) {
			return nil, newRuntimeError(sp, "log_init: sink.fn must be a function")
		}
		return &callbackSink{fn: fnV}, nil
	}
	return nil, newRuntimeError(sp, "log_init: unknown sink kind %q", kindV.AsString())
}

// Blether evaluates and fans out one log_blether call, per spec.md §4.7's
// emission contract. When extras is a bare String (not a Dict) and no
// explicit target was given, it is itself the target, matching the
// "String (explicit target)" half of spec.md §4.6's extras rule.
func (l *Logger) Blether(ev *Evaluator, message, extras Value, hasExtras bool, target string, hasTarget bool, sp Span) error {
	if hasExtras && extras.Kind() == KString && !hasTarget {
		target = extras.AsString()
		hasExtras = false
	}

	l.mu.Lock()
	threshold := l.filter.thresholdFor(target)
	sinks := append([]logSink{}, l.sinks...)
	l.mu.Unlock()

	if threshold < LevelInfo {
		return nil
	}

	payload := NewDict()
	pd := payload.Dict()
	pd.Set("level", StringValue("mutter"))
	pd.Set("target", StringValue(target))
	pd.Set("message", message)
	if hasExtras && extras.Kind() == KDict {
		for _, k := range extras.Dict().Keys() {
			v, _ := extras.Dict().Get(k)
			pd.Set(k, v)
		}
	}

	for _, sink := range sinks {
		if err := sink.emit(ev, payload); err != nil {
			return err
		}
	}
	return nil
}

func registerLoggingBuiltins(env *Environment) {
	native(env, "log_init", builtinLogInit)
}

func builtinLogInit(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "log_init", args, 1); err != nil {
		return Value{}, err
	}
	if ev.logger == nil {
		ev.logger = NewLogger()
	}
	if err := ev.logger.Configure(args[0], sp); err != nil {
		return Value{}, err
	}
	return NilValue(), nil
}
