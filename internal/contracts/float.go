package contracts

// Float is an indicator value that may be undefined when there is not
// enough history to compute it. The zero value is undefined.
//
// Indicators never signal "not enough data" through errors; they return
// an undefined Float and callers decide on a fallback.
type Float struct {
	Val   float64
	Valid bool
}

// F returns a defined Float.
func F(v float64) Float {
	return Float{Val: v, Valid: true}
}

// Undefined returns an undefined Float.
func Undefined() Float {
	return Float{}
}

// Or returns the value, or fallback when undefined.
func (f Float) Or(fallback float64) float64 {
	if f.Valid {
		return f.Val
	}
	return fallback
}

// GreaterThan reports whether the value is defined and greater than x.
func (f Float) GreaterThan(x float64) bool {
	return f.Valid && f.Val > x
}

// LessThan reports whether the value is defined and less than x.
func (f Float) LessThan(x float64) bool {
	return f.Valid && f.Val < x
}
