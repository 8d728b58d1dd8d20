package RuleEngine

import (
	"errors"
	"testing"

	"Tracker/Models"
)

func TestCoerceValue(t *testing.T) {
	cases := []struct {
		inputType string
		raw       interface{}
		want      float64
	}{
		{Models.InputDecimal, 2.5, 2.5},
		{Models.InputInteger, 3.0, 3},
		{Models.InputInteger, 2.9, 2},
		{Models.InputInteger, 7, 7},
		{Models.InputBoolean, true, 1},
		{Models.InputBoolean, false, 0},
		{Models.InputBoolean, 1.0, 1},
		{Models.InputBoolean, 0.0, 0},
	}
	for _, tc := range cases {
		got, err := CoerceValue(tc.inputType, tc.raw)
		if err != nil {
			t.Fatalf("CoerceValue(%s, %v) returned error: %v", tc.inputType, tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("CoerceValue(%s, %v) = %v, want %v", tc.inputType, tc.raw, got, tc.want)
		}
	}
}

func TestCoerceValue_Mismatches(t *testing.T) {
	cases := []struct {
		inputType string
		raw       interface{}
	}{
		{Models.InputInteger, true},
		{Models.InputDecimal, false},
		{Models.InputBoolean, 2.0},
		{Models.InputDecimal, "3"},
		{Models.InputInteger, nil},
		{"unknown", 1.0},
	}
	for _, tc := range cases {
		if _, err := CoerceValue(tc.inputType, tc.raw); !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("CoerceValue(%s, %v) = %v, want ErrTypeMismatch", tc.inputType, tc.raw, err)
		}
	}
}
