package value

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// JSON serializes v to canonical, compact JSON text. Object member order
// matches insertion order.
func (v JV) JSON() string {
	var sb strings.Builder
	v.writeJSON(&sb)
	return sb.String()
}

// PrettyJSON indents v's JSON representation using tidwall/pretty; it backs
// template.Description.JSON.
func (v JV) PrettyJSON() string {
	return string(pretty.Pretty([]byte(v.JSON())))
}

func (v JV) writeJSON(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindUInt:
		sb.WriteString(strconv.FormatUint(v.u, 10))
	case KindFloat:
		sb.WriteString(formatFloat(v.f))
	case KindString:
		writeJSONString(sb, v.s)
	case KindArray:
		sb.WriteByte('[')
		for i, elem := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			elem.writeJSON(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		i := 0
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeJSONString(sb, pair.Key)
			sb.WriteByte(':')
			pair.Value.writeJSON(sb)
			i++
		}
		sb.WriteByte('}')
	}
}

func writeJSONString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
}

// Parse decodes a JSON document into a JV tree using gjson, preserving
// object member order (gjson.ForEach visits object keys in source order)
// and distinguishing integers, unsigned integers, and floats by inspecting
// each number's raw token text rather than collapsing everything to
// float64 the way encoding/json's generic decoding does.
func Parse(source string) (JV, error) {
	result := gjson.Parse(source)
	if !result.Exists() && strings.TrimSpace(source) != "null" {
		return Null(), &ParseJSONError{Source: source}
	}
	return fromGJSON(result), nil
}

// ParseJSONError reports that a data string was not valid JSON.
type ParseJSONError struct {
	Source string
}

func (e *ParseJSONError) Error() string {
	return "invalid JSON data"
}

func fromGJSON(r gjson.Result) JV {
	switch r.Type {
	case gjson.Null:
		return Null()
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.String:
		return String(r.String())
	case gjson.Number:
		return numberFromRaw(r.Raw)
	case gjson.JSON:
		if r.IsArray() {
			var arr []JV
			r.ForEach(func(_, value gjson.Result) bool {
				arr = append(arr, fromGJSON(value))
				return true
			})
			return Array(arr)
		}
		obj := NewObject()
		r.ForEach(func(key, value gjson.Result) bool {
			obj.Set(key.String(), fromGJSON(value))
			return true
		})
		return ObjectValue(obj)
	}
	return Null()
}

// ParseNumber classifies a lexer Number token's raw text the same way a
// JSON document's number literals are classified, for the parser's Literal
// construction.
func ParseNumber(raw string) JV { return numberFromRaw(raw) }

// numberFromRaw classifies a raw JSON number token as Int, UInt, or Float:
// any '.' or exponent marker means Float; a leading '-' means Int; otherwise
// the token is non-negative and fits UInt unless it overflows, in which case
// it falls back to Float.
func numberFromRaw(raw string) JV {
	if strings.ContainsAny(raw, ".eE") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Float(0)
		}
		return Float(f)
	}
	if strings.HasPrefix(raw, "-") {
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			f, _ := strconv.ParseFloat(raw, 64)
			return Float(f)
		}
		return Int(i)
	}
	u, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(raw, 64)
		return Float(f)
	}
	return UInt(u)
}
