package liquid

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sschuldenzucker/liquidjs/value"
)

func registerDefaultFilters(env *Environment) {
	// String filters
	env.AddFilter("upcase", FilterUpcase)
	env.AddFilter("downcase", FilterDowncase)
	env.AddFilter("capitalize", FilterCapitalize)
	env.AddFilter("strip", FilterStrip)
	env.AddFilter("strip_newlines", FilterStripNewlines)
	env.AddFilter("newline_to_br", FilterNewlineToBr)
	env.AddFilter("append", FilterAppend)
	env.AddFilter("prepend", FilterPrepend)
	env.AddFilter("replace", FilterReplace)
	env.AddFilter("remove", FilterRemove)
	env.AddFilter("split", FilterSplit)
	env.AddFilter("truncate", FilterTruncate)
	env.AddFilter("escape", FilterEscape)

	// Collection filters
	env.AddFilter("join", FilterJoin)
	env.AddFilter("first", FilterFirst)
	env.AddFilter("last", FilterLast)
	env.AddFilter("size", FilterSize)
	env.AddFilter("reverse", FilterReverse)
	env.AddFilter("sort", FilterSort)
	env.AddFilter("uniq", FilterUniq)

	// Numeric filters
	env.AddFilter("plus", FilterPlus)
	env.AddFilter("minus", FilterMinus)
	env.AddFilter("times", FilterTimes)
	env.AddFilter("divided_by", FilterDividedBy)
	env.AddFilter("modulo", FilterModulo)
	env.AddFilter("abs", FilterAbs)

	// Other filters
	env.AddFilter("default", FilterDefault)
	env.AddFilter("date", FilterDate)
}

func FilterUpcase(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	return value.FromString(strings.ToUpper(val.String())), nil
}

func FilterDowncase(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	return value.FromString(strings.ToLower(val.String())), nil
}

func FilterCapitalize(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	s := val.String()
	if s == "" {
		return value.FromString(""), nil
	}
	return value.FromString(strings.ToUpper(s[:1]) + strings.ToLower(s[1:])), nil
}

func FilterStrip(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	return value.FromString(strings.TrimSpace(val.String())), nil
}

func FilterStripNewlines(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	s := strings.ReplaceAll(val.String(), "\r\n", "")
	return value.FromString(strings.ReplaceAll(s, "\n", "")), nil
}

func FilterNewlineToBr(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	return value.FromString(strings.ReplaceAll(val.String(), "\n", "<br />\n")), nil
}

func FilterAppend(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("append expects one argument")
	}
	return value.FromString(val.String() + args[0].String()), nil
}

func FilterPrepend(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("prepend expects one argument")
	}
	return value.FromString(args[0].String() + val.String()), nil
}

func FilterReplace(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Undefined(), fmt.Errorf("replace expects two arguments")
	}
	return value.FromString(strings.ReplaceAll(val.String(), args[0].String(), args[1].String())), nil
}

func FilterRemove(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("remove expects one argument")
	}
	return value.FromString(strings.ReplaceAll(val.String(), args[0].String(), "")), nil
}

func FilterSplit(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("split expects one argument")
	}
	parts := strings.Split(val.String(), args[0].String())
	items := make([]value.Value, len(parts))
	for i, p := range parts {
		items[i] = value.FromString(p)
	}
	return value.FromSlice(items), nil
}

func FilterTruncate(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return val, nil
	}
	n, ok := args[0].AsInt()
	if !ok || n < 0 {
		return value.Undefined(), fmt.Errorf("truncate expects a non-negative length")
	}
	ellipsis := "..."
	if len(args) > 1 {
		ellipsis = args[1].String()
	}
	s := val.String()
	if int64(len(s)) <= n {
		return value.FromString(s), nil
	}
	cut := n - int64(len(ellipsis))
	if cut < 0 {
		cut = 0
	}
	return value.FromString(s[:cut] + ellipsis), nil
}

func FilterEscape(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	return value.FromString(html.EscapeString(val.String())), nil
}

func FilterJoin(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	sep := " "
	if len(args) > 0 {
		sep = args[0].String()
	}
	items, ok := val.AsSlice()
	if !ok {
		return val, nil
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return value.FromString(strings.Join(parts, sep)), nil
}

func FilterFirst(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	return val.GetAttr("first"), nil
}

func FilterLast(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	return val.GetAttr("last"), nil
}

func FilterSize(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	n, ok := val.Len()
	if !ok {
		return value.FromInt(0), nil
	}
	return value.FromInt(int64(n)), nil
}

func FilterReverse(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	items, ok := val.AsSlice()
	if !ok {
		return val, nil
	}
	rev := make([]value.Value, len(items))
	for i, item := range items {
		rev[len(items)-1-i] = item
	}
	return value.FromSlice(rev), nil
}

func FilterSort(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	items, ok := val.AsSlice()
	if !ok {
		return val, nil
	}
	sorted := make([]value.Value, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		c, ok := sorted[i].Compare(sorted[j])
		return ok && c < 0
	})
	return value.FromSlice(sorted), nil
}

func FilterUniq(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	items, ok := val.AsSlice()
	if !ok {
		return val, nil
	}
	var uniq []value.Value
	for _, item := range items {
		seen := false
		for _, u := range uniq {
			if u.Equal(item) {
				seen = true
				break
			}
		}
		if !seen {
			uniq = append(uniq, item)
		}
	}
	return value.FromSlice(uniq), nil
}

func FilterPlus(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("plus expects one argument")
	}
	return val.Add(args[0]), nil
}

func FilterMinus(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("minus expects one argument")
	}
	return val.Sub(args[0]), nil
}

func FilterTimes(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("times expects one argument")
	}
	return val.Mul(args[0]), nil
}

func FilterDividedBy(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("divided_by expects one argument")
	}
	// Two integer operands divide integrally, like Liquid; a float on
	// either side makes the division a float one.
	if ai, aok := val.Raw().(int64); aok {
		if bi, bok := args[0].Raw().(int64); bok {
			if bi == 0 {
				return value.Undefined(), fmt.Errorf("divided_by expects a non-zero divisor")
			}
			return value.FromInt(ai / bi), nil
		}
	}
	af, _ := val.AsFloat()
	bf, ok := args[0].AsFloat()
	if !ok || bf == 0 {
		return value.Undefined(), fmt.Errorf("divided_by expects a non-zero divisor")
	}
	return value.FromFloat(af / bf), nil
}

func FilterModulo(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("modulo expects one argument")
	}
	ai, aok := val.AsInt()
	bi, bok := args[0].AsInt()
	if !aok || !bok || bi == 0 {
		return value.Undefined(), fmt.Errorf("modulo expects non-zero integer operands")
	}
	return value.FromInt(ai % bi), nil
}

func FilterAbs(_ *Context, val value.Value, _ []value.Value) (value.Value, error) {
	if i, ok := val.AsInt(); ok {
		if i < 0 {
			i = -i
		}
		return value.FromInt(i), nil
	}
	if f, ok := val.AsFloat(); ok {
		return value.FromFloat(math.Abs(f)), nil
	}
	return value.FromInt(0), nil
}

// FilterDefault substitutes its argument for falsy or empty input.
func FilterDefault(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("default expects one argument")
	}
	if !val.IsTrue() {
		return args[0], nil
	}
	if s, ok := val.AsString(); ok && s == "" {
		return args[0], nil
	}
	return val, nil
}

// FilterDate formats a date with a strftime-style format string. String
// inputs are parsed with dateparse; "now" and "today" give the current
// time; integer inputs are Unix timestamps.
func FilterDate(_ *Context, val value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("date expects a format argument")
	}

	var t time.Time
	switch {
	case val.Kind() == value.KindNumber:
		ts, _ := val.AsInt()
		t = time.Unix(ts, 0).UTC()
	default:
		s := val.String()
		if s == "now" || s == "today" {
			t = time.Now()
		} else {
			var err error
			t, err = dateparse.ParseAny(s)
			if err != nil {
				return value.Undefined(), fmt.Errorf("cannot parse date %q: %w", s, err)
			}
		}
	}
	return value.FromString(strftime(t, args[0].String())), nil
}

// strftime implements the subset of C strftime directives Liquid
// templates commonly use.
func strftime(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			b.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'e':
			fmt.Fprintf(&b, "%2d", t.Day())
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		case 'I':
			h := t.Hour() % 12
			if h == 0 {
				h = 12
			}
			fmt.Fprintf(&b, "%02d", h)
		case 'M':
			fmt.Fprintf(&b, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&b, "%02d", t.Second())
		case 'p':
			if t.Hour() < 12 {
				b.WriteString("AM")
			} else {
				b.WriteString("PM")
			}
		case 'a':
			b.WriteString(t.Format("Mon"))
		case 'A':
			b.WriteString(t.Format("Monday"))
		case 'b':
			b.WriteString(t.Format("Jan"))
		case 'B':
			b.WriteString(t.Format("January"))
		case 'j':
			fmt.Fprintf(&b, "%03d", t.YearDay())
		case 's':
			fmt.Fprintf(&b, "%d", t.Unix())
		case 'Z':
			b.WriteString(t.Format("MST"))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
