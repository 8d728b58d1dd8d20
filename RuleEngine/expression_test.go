package RuleEngine

import (
	"errors"
	"testing"
)

func TestEvaluateCompletionRule_Comparisons(t *testing.T) {
	cases := []struct {
		rule  string
		value float64
		want  bool
	}{
		{"value >= 2", 2, true},
		{"value >= 2", 1.9, false},
		{"value >= 2", 3, true},
		{"value <= 2", 2, true},
		{"value <= 2", 2.1, false},
		{"value > 0", 0.1, true},
		{"value > 0", 0, false},
		{"value < 5", 4, true},
		{"value < 5", 5, false},
		{"value == 3", 3, true},
		{"value == 3", 2, false},
		{"value != 0", 1, true},
		{"value != 0", 0, false},
		{"value >= 2.5", 2.5, true},
		{"value >= 2.5", 2.4, false},
		{"value > -1", 0, true},
		{"value > -1", -2, false},
	}
	for _, tc := range cases {
		got, err := EvaluateCompletionRule(tc.value, tc.rule)
		if err != nil {
			t.Fatalf("EvaluateCompletionRule(%v, %q) returned error: %v", tc.value, tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("EvaluateCompletionRule(%v, %q) = %v, want %v", tc.value, tc.rule, got, tc.want)
		}
	}
}

func TestEvaluateCompletionRule_Conjunctions(t *testing.T) {
	cases := []struct {
		rule  string
		value float64
		want  bool
	}{
		{"value >= 1 && value <= 3", 2, true},
		{"value >= 1 && value <= 3", 0, false},
		{"value >= 1 && value <= 3", 4, false},
		{"(value >= 1) && (value <= 3)", 3, true},
		{"value >= 0 && value <= 10 && value != 5", 5, false},
		{"value >= 0 && value <= 10 && value != 5", 6, true},
	}
	for _, tc := range cases {
		got, err := EvaluateCompletionRule(tc.value, tc.rule)
		if err != nil {
			t.Fatalf("EvaluateCompletionRule(%v, %q) returned error: %v", tc.value, tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("EvaluateCompletionRule(%v, %q) = %v, want %v", tc.value, tc.rule, got, tc.want)
		}
	}
}

func TestEvaluateCompletionRule_BooleanLiterals(t *testing.T) {
	// Boolean inputs are stored as 0/1; true/false literals coerce the
	// same way.
	got, err := EvaluateCompletionRule(1, "value == true")
	if err != nil || !got {
		t.Fatalf("expected 1 == true, got %v (err %v)", got, err)
	}
	got, err = EvaluateCompletionRule(0, "value == true")
	if err != nil || got {
		t.Fatalf("expected 0 != true, got %v (err %v)", got, err)
	}
	got, err = EvaluateCompletionRule(1, "value != false")
	if err != nil || !got {
		t.Fatalf("expected 1 != false, got %v (err %v)", got, err)
	}
}

func TestParseRule_InvalidSyntax(t *testing.T) {
	rules := []string{
		"",
		"   ",
		"value >",
		"value >= ",
		"2 >= value",
		"hours >= 1",
		"value => 1",
		"value = 1",
		"value >= 1 &&",
		"value >= 1 value <= 3",
		"value & 1",
		"value >= 1 || value <= 3",
		"(value >= 1",
		"value == 'unterminated",
		"value >= 1.2.3",
		"value >= true()",
	}
	for _, rule := range rules {
		if _, err := ParseRule(rule); !errors.Is(err, ErrInvalidRuleSyntax) {
			t.Fatalf("ParseRule(%q) = %v, want ErrInvalidRuleSyntax", rule, err)
		}
	}
}

func TestEval_StringLiteralIsTypeMismatch(t *testing.T) {
	rule, err := ParseRule("value == 'done'")
	if err != nil {
		t.Fatalf("string literals should parse, got %v", err)
	}
	if _, err := rule.Eval(1); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("comparing a number with a string should be ErrTypeMismatch, got %v", err)
	}
}

func TestValidateRule(t *testing.T) {
	if err := ValidateRule("value >= 2"); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
	if err := ValidateRule("value >= "); !errors.Is(err, ErrInvalidRuleSyntax) {
		t.Fatalf("invalid rule accepted: %v", err)
	}
}

func TestRule_String(t *testing.T) {
	rule, err := ParseRule("value >= 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.String() != "value >= 2" {
		t.Fatalf("String() = %q", rule.String())
	}
}
