package value

import "strings"

// Equal reports loose equality between two values. Numbers compare
// numerically across int/float; undefined and nil compare equal to each
// other, matching Liquid's nil semantics.
func (v Value) Equal(other Value) bool {
	ak, bk := v.Kind(), other.Kind()
	if ak == KindUndefined || ak == KindNil {
		return bk == KindUndefined || bk == KindNil
	}
	if ak == KindNumber && bk == KindNumber {
		af, _ := v.AsFloat()
		bf, _ := other.AsFloat()
		return af == bf
	}
	if ak != bk {
		return false
	}
	switch ak {
	case KindBool:
		ab, _ := v.AsBool()
		bb, _ := other.AsBool()
		return ab == bb
	case KindString:
		as, _ := v.AsString()
		bs, _ := other.AsString()
		return as == bs
	case KindSeq:
		as, _ := v.AsSlice()
		bs, _ := other.AsSlice()
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !as[i].Equal(bs[i]) {
				return false
			}
		}
		return true
	case KindMap:
		am, _ := v.AsMap()
		bm, _ := other.AsMap()
		if len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two values. It returns -1, 0 or 1 and whether the pair
// is comparable: numbers with numbers, strings with strings.
func (v Value) Compare(other Value) (int, bool) {
	if v.Kind() == KindNumber && other.Kind() == KindNumber {
		af, _ := v.AsFloat()
		bf, _ := other.AsFloat()
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	as, aok := v.AsString()
	bs, bok := other.AsString()
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

// Contains implements the Liquid "contains" operator: substring match for
// strings, element match for sequences.
func (v Value) Contains(item Value) bool {
	if s, ok := v.AsString(); ok {
		return strings.Contains(s, item.String())
	}
	if seq, ok := v.AsSlice(); ok {
		for _, el := range seq {
			if el.Equal(item) {
				return true
			}
		}
	}
	return false
}

// Add implements numeric addition; operands that fail to coerce count as 0.
func (v Value) Add(other Value) Value {
	return numericOp(v, other, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
}

// Sub implements numeric subtraction.
func (v Value) Sub(other Value) Value {
	return numericOp(v, other, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
}

// Mul implements numeric multiplication.
func (v Value) Mul(other Value) Value {
	return numericOp(v, other, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
}

func numericOp(a, b Value, ints func(int64, int64) int64, floats func(float64, float64) float64) Value {
	ai, aok := a.AsInt()
	bi, bok := b.AsInt()
	if aok && bok && a.isInt() && b.isInt() {
		return FromInt(ints(ai, bi))
	}
	af := coerceFloat(a)
	bf := coerceFloat(b)
	return FromFloat(floats(af, bf))
}

func (v Value) isInt() bool {
	_, ok := v.data.(int64)
	return ok
}

func coerceFloat(v Value) float64 {
	if f, ok := v.AsFloat(); ok {
		return f
	}
	return 0
}
