package formatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// specParts is a parsed bracket-style format spec:
//
//	[[fill]align][sign][#][0][width][,_][.precision][type]
//
// Supported type characters are b, d, o, x, X for integers, e, E, f, F,
// g, G, % for floats, and s for strings. A missing type selects d, g, or
// s based on the value.
type specParts struct {
	fill  byte
	align byte // '<', '>', '^', '=', or 0
	sign  byte // '+', '-', ' ', or 0
	alt   bool // '#': base prefix for b/o/x/X
	group byte // ',' or '_' thousands separator, or 0
	width int
	prec  int // -1 when absent
	verb  byte
}

func isAlign(c byte) bool {
	return c == '<' || c == '>' || c == '^' || c == '='
}

// parseSpec parses and validates a format spec. It is called once per
// field at template-parse time; render only applies the parsed result.
func parseSpec(spec string) (specParts, error) {
	sp := specParts{prec: -1}
	s := spec

	if len(s) >= 2 && isAlign(s[1]) && s[0] != '{' && s[0] != '}' {
		sp.fill, sp.align = s[0], s[1]
		s = s[2:]
	} else if len(s) >= 1 && isAlign(s[0]) {
		sp.align = s[0]
		s = s[1:]
	}

	if len(s) > 0 && (s[0] == '+' || s[0] == '-' || s[0] == ' ') {
		sp.sign = s[0]
		s = s[1:]
	}
	if len(s) > 0 && s[0] == '#' {
		sp.alt = true
		s = s[1:]
	}
	if len(s) > 0 && s[0] == '0' {
		if sp.fill == 0 {
			sp.fill = '0'
		}
		if sp.align == 0 {
			sp.align = '='
		}
		s = s[1:]
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 {
		sp.width, _ = strconv.Atoi(s[:i])
		s = s[i:]
	}

	if len(s) > 0 && (s[0] == ',' || s[0] == '_') {
		sp.group = s[0]
		s = s[1:]
	}

	if len(s) > 0 && s[0] == '.' {
		s = s[1:]
		j := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j == 0 {
			return sp, fmt.Errorf("missing precision digits in %q", spec)
		}
		sp.prec, _ = strconv.Atoi(s[:j])
		s = s[j:]
	}

	if len(s) > 0 {
		verb := s[0]
		if len(s) > 1 {
			return sp, fmt.Errorf("bad specifier %q", spec)
		}
		if !strings.ContainsRune("bdoxXeEfFgG%s", rune(verb)) {
			return sp, fmt.Errorf("unknown type %q in %q", verb, spec)
		}
		sp.verb = verb
	}

	return sp, nil
}

// renderValue produces the final text of a resolved field value: date
// formatting for time values, then the conversion, then the format spec.
func renderValue(v interface{}, conv byte, sp specParts, dateFormat string) (string, error) {
	if t, ok := v.(time.Time); ok {
		v = t.Format(dateFormat)
	}

	switch conv {
	case 'r':
		if s, ok := v.(string); ok {
			v = strconv.Quote(s)
		} else {
			v = stringify(v)
		}
	case 'a':
		if s, ok := v.(string); ok {
			v = strconv.QuoteToASCII(s)
		} else {
			v = stringify(v)
		}
	case 's':
		v = stringify(v)
	}

	return applySpec(v, sp)
}

// applySpec formats v per the parsed spec.
func applySpec(v interface{}, sp specParts) (string, error) {
	switch sp.verb {
	case 'b', 'd', 'o', 'x', 'X':
		n, ok := asInt(v)
		if !ok {
			return "", fmt.Errorf("format type %q requires an integer value, got %T", sp.verb, v)
		}
		return formatInt(n, sp)
	case 'e', 'E', 'f', 'F', 'g', 'G', '%':
		f, ok := asFloat(v)
		if !ok {
			return "", fmt.Errorf("format type %q requires a numeric value, got %T", sp.verb, v)
		}
		return formatFloat(f, sp), nil
	case 's':
		return formatString(stringify(v), sp)
	default:
		// no type: pick by value
		if n, ok := asInt(v); ok {
			d := sp
			d.verb = 'd'
			return formatInt(n, d)
		}
		if f, ok := asFloat(v); ok {
			g := sp
			g.verb = 'g'
			return formatFloat(f, g), nil
		}
		return formatString(stringify(v), sp)
	}
}

func formatInt(n int64, sp specParts) (string, error) {
	if sp.prec >= 0 {
		return "", fmt.Errorf("precision not allowed with integer format type %q", sp.verb)
	}

	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}

	var base int
	var prefix string
	switch sp.verb {
	case 'b':
		base, prefix = 2, "0b"
	case 'o':
		base, prefix = 8, "0o"
	case 'x', 'X':
		base, prefix = 16, "0x"
	default:
		base = 10
	}
	digits := strconv.FormatUint(u, base)
	if sp.verb == 'X' {
		digits = strings.ToUpper(digits)
		prefix = "0X"
	}
	if sp.group != 0 && sp.verb == 'd' {
		digits = groupDigits(digits, sp.group)
	}

	body := digits
	if sp.alt && prefix != "" {
		body = prefix + digits
	}
	return padNumber(body, numberSign(neg, sp.sign), sp, '>'), nil
}

func formatFloat(f float64, sp specParts) string {
	prec := sp.prec
	var body string
	switch sp.verb {
	case 'e', 'E':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(math.Abs(f), byte(sp.verb), prec, 64)
	case 'f', 'F':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(math.Abs(f), 'f', prec, 64)
	case '%':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(math.Abs(f)*100, 'f', prec, 64) + "%"
	default: // g, G
		if prec < 0 {
			prec = -1
		}
		body = strconv.FormatFloat(math.Abs(f), byte(sp.verb|0x20), prec, 64)
		if sp.verb == 'G' {
			body = strings.ToUpper(body)
		}
	}
	if sp.group != 0 {
		if dot := strings.IndexByte(body, '.'); dot >= 0 {
			body = groupDigits(body[:dot], sp.group) + body[dot:]
		} else {
			body = groupDigits(body, sp.group)
		}
	}
	return padNumber(body, numberSign(math.Signbit(f), sp.sign), sp, '>')
}

func formatString(s string, sp specParts) (string, error) {
	if sp.sign != 0 {
		return "", fmt.Errorf("sign not allowed in string format spec")
	}
	if sp.align == '=' {
		return "", fmt.Errorf("'=' alignment not allowed in string format spec")
	}
	if sp.prec >= 0 {
		r := []rune(s)
		if len(r) > sp.prec {
			s = string(r[:sp.prec])
		}
	}
	return pad(s, sp, '<'), nil
}

// numberSign returns the sign prefix for a number given the sign option.
func numberSign(neg bool, sign byte) string {
	switch {
	case neg:
		return "-"
	case sign == '+':
		return "+"
	case sign == ' ':
		return " "
	default:
		return ""
	}
}

// padNumber joins sign and body and pads to width. '=' alignment inserts
// the fill between sign and digits.
func padNumber(body, sign string, sp specParts, defAlign byte) string {
	if sp.align == '=' {
		fill := sp.fill
		if fill == 0 {
			fill = ' '
		}
		if n := sp.width - len(sign) - len([]rune(body)); n > 0 {
			return sign + strings.Repeat(string(fill), n) + body
		}
		return sign + body
	}
	return pad(sign+body, sp, defAlign)
}

// pad aligns s within sp.width using the fill rune.
func pad(s string, sp specParts, defAlign byte) string {
	n := sp.width - len([]rune(s))
	if n <= 0 {
		return s
	}
	fill := sp.fill
	if fill == 0 {
		fill = ' '
	}
	align := sp.align
	if align == 0 {
		align = defAlign
	}
	switch align {
	case '>':
		return strings.Repeat(string(fill), n) + s
	case '^':
		left := n / 2
		return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), n-left)
	default:
		return s + strings.Repeat(string(fill), n)
	}
}

// groupDigits inserts a thousands separator into a digit run.
func groupDigits(digits string, sep byte) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	default:
		if n, ok := asInt(v); ok {
			return float64(n), true
		}
		return 0, false
	}
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case time.Duration:
		return s.String()
	case error:
		return s.Error()
	case fmt.Stringer:
		return s.String()
	case nil:
		return "<nil>"
	default:
		if n, ok := asInt(v); ok {
			return strconv.FormatInt(n, 10)
		}
		if f, ok := asFloat(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprintf("%v", v)
	}
}
