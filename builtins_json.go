package mdhavers

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// registerJSONBuiltins wires json_parse/json_pretty. No JSON library
// appears anywhere in the example corpus, and the numeric-rejection rule
// spec.md §4.6 requires ("1e", "-" are invalid numbers, not just short
// reads) doesn't match encoding/json's own tokenizer closely enough to
// reuse directly, so this is a small hand-written recursive-descent parser
// in the same style as lexer.go's lexNumber.
func registerJSONBuiltins(env *Environment) {
	native(env, "json_parse", builtinJSONParse)
	native(env, "json_pretty", builtinJSONPretty)
}

func builtinJSONParse(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "json_parse", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString {
		return Value{}, newRuntimeError(sp, "json_parse: argument must be a string")
	}
	jp := &jsonParser{src: args[0].AsString()}
	jp.skipSpace()
	v, err := jp.parseValue(sp)
	if err != nil {
		return Value{}, err
	}
	jp.skipSpace()
	if jp.pos != len(jp.src) {
		return Value{}, newRuntimeError(sp, "json_parse: trailing data after value")
	}
	return v, nil
}

func builtinJSONPretty(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "json_pretty", args, 1); err != nil {
		return Value{}, err
	}
	return StringValue(jsonPretty(args[0], 0)), nil
}

type jsonParser struct {
	src string
	pos int
}

func (p *jsonParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *jsonParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) parseValue(sp Span) (Value, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return Value{}, newRuntimeError(sp, "json_parse: unexpected end of input")
	}
	switch c := p.peek(); {
	case c == '{':
		return p.parseObject(sp)
	case c == '[':
		return p.parseArray(sp)
	case c == '"':
		s, err := p.parseString(sp)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case c == 't':
		return p.parseLiteral("true", BoolValue(true), sp)
	case c == 'f':
		return p.parseLiteral("false", BoolValue(false), sp)
	case c == 'n':
		return p.parseLiteral("null", NilValue(), sp)
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber(sp)
	}
	return Value{}, newRuntimeError(sp, "json_parse: unexpected character %q", p.peek())
}

func (p *jsonParser) parseLiteral(lit string, v Value, sp Span) (Value, error) {
	if p.pos+len(lit) > len(p.src) || p.src[p.pos:p.pos+len(lit)] != lit {
		return Value{}, newRuntimeError(sp, "json_parse: invalid literal near %q", p.src[p.pos:])
	}
	p.pos += len(lit)
	return v, nil
}

// parseNumber rejects bare signs and trailing exponent markers with no
// digits ("1e", "-"), per spec.md §4.6.
func (p *jsonParser) parseNumber(sp Span) (Value, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	digitsStart := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == digitsStart {
		return Value{}, newRuntimeError(sp, "json_parse: invalid number %q", p.src[start:p.pos])
	}
	isFloat := false
	if p.peek() == '.' {
		isFloat = true
		p.pos++
		fracStart := p.pos
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		if p.pos == fracStart {
			return Value{}, newRuntimeError(sp, "json_parse: invalid number %q", p.src[start:p.pos])
		}
	}
	if p.peek() == 'e' || p.peek() == 'E' {
		isFloat = true
		p.pos++
		if p.peek() == '+' || p.peek() == '-' {
			p.pos++
		}
		expStart := p.pos
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		if p.pos == expStart {
			return Value{}, newRuntimeError(sp, "json_parse: invalid number %q", p.src[start:p.pos])
		}
	}
	lit := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return Value{}, newRuntimeError(sp, "json_parse: invalid number %q", lit)
		}
		return FloatValue(f), nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return Value{}, newRuntimeError(sp, "json_parse: invalid number %q", lit)
	}
	return IntValue(i), nil
}

func (p *jsonParser) parseString(sp Span) (string, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", newRuntimeError(sp, "json_parse: unterminated string")
		}
		c := p.src[p.pos]
		if c == '"' {
			p.pos++
			return sb.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.src) {
				return "", newRuntimeError(sp, "json_parse: unterminated string")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case '/':
				sb.WriteByte('/')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'u':
				if p.pos+4 > len(p.src) {
					return "", newRuntimeError(sp, "json_parse: invalid unicode escape")
				}
				code, err := strconv.ParseInt(p.src[p.pos:p.pos+4], 16, 32)
				if err != nil {
					return "", newRuntimeError(sp, "json_parse: invalid unicode escape")
				}
				p.pos += 4
				var buf [utf8.UTFMax]byte
				n := utf8.EncodeRune(buf[:], rune(code))
				sb.Write(buf[:n])
			default:
				return "", newRuntimeError(sp, "json_parse: invalid escape '\\%c'", esc)
			}
			continue
		}
		sb.WriteByte(c)
		p.pos++
	}
}

func (p *jsonParser) parseArray(sp Span) (Value, error) {
	p.pos++ // [
	var items []Value
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return NewList(items), nil
	}
	for {
		v, err := p.parseValue(sp)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if p.peek() == ']' {
			p.pos++
			return NewList(items), nil
		}
		return Value{}, newRuntimeError(sp, "json_parse: expected ',' or ']' in array")
	}
}

func (p *jsonParser) parseObject(sp Span) (Value, error) {
	p.pos++ // {
	d := NewDict()
	do := d.Dict()
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return d, nil
	}
	for {
		p.skipSpace()
		if p.peek() != '"' {
			return Value{}, newRuntimeError(sp, "json_parse: expected string key")
		}
		key, err := p.parseString(sp)
		if err != nil {
			return Value{}, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return Value{}, newRuntimeError(sp, "json_parse: expected ':' after key")
		}
		p.pos++
		v, err := p.parseValue(sp)
		if err != nil {
			return Value{}, err
		}
		do.Set(key, v)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if p.peek() == '}' {
			p.pos++
			return d, nil
		}
		return Value{}, newRuntimeError(sp, "json_parse: expected ',' or '}' in object")
	}
}

// jsonPretty renders v with two-space indentation, one element per line
// for non-empty lists/dicts, per spec.md §4.6.
func jsonPretty(v Value, depth int) string {
	pad := strings.Repeat("  ", depth)
	childPad := strings.Repeat("  ", depth+1)
	switch v.Kind() {
	case KList:
		items := v.List().Items
		if len(items) == 0 {
			return "[]"
		}
		var sb strings.Builder
		sb.WriteString("[\n")
		for i, it := range items {
			sb.WriteString(childPad)
			sb.WriteString(jsonPretty(it, depth+1))
			if i != len(items)-1 {
				sb.WriteByte(',')
			}
			sb.WriteByte('\n')
		}
		sb.WriteString(pad)
		sb.WriteByte(']')
		return sb.String()
	case KDict:
		keys := v.Dict().Keys()
		if len(keys) == 0 {
			return "{}"
		}
		var sb strings.Builder
		sb.WriteString("{\n")
		for i, k := range keys {
			val, _ := v.Dict().Get(k)
			sb.WriteString(childPad)
			sb.WriteString(quoteString(k))
			sb.WriteString(": ")
			sb.WriteString(jsonPretty(val, depth+1))
			if i != len(keys)-1 {
				sb.WriteByte(',')
			}
			sb.WriteByte('\n')
		}
		sb.WriteString(pad)
		sb.WriteByte('}')
		return sb.String()
	case KString:
		return quoteString(v.AsString())
	default:
		return v.String()
	}
}
