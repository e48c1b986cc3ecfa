package contracts

import "testing"

func TestFloatOr(t *testing.T) {
	if got := F(1.5).Or(9); got != 1.5 {
		t.Errorf("expected 1.5, got %v", got)
	}
	if got := Undefined().Or(9); got != 9 {
		t.Errorf("expected fallback 9, got %v", got)
	}
}

func TestFloatComparisons(t *testing.T) {
	if !F(2).GreaterThan(1) {
		t.Error("2 should be greater than 1")
	}
	if F(2).GreaterThan(2) {
		t.Error("comparison is strict")
	}
	if Undefined().GreaterThan(-1e18) {
		t.Error("undefined never compares greater")
	}
	if !F(1).LessThan(2) {
		t.Error("1 should be less than 2")
	}
	if Undefined().LessThan(1e18) {
		t.Error("undefined never compares less")
	}
}

func TestZeroValueIsUndefined(t *testing.T) {
	var f Float
	if f.Valid {
		t.Error("zero value must be undefined")
	}
}
