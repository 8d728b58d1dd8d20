package RuleEngine

import (
	"testing"

	"Tracker/Models"
)

func TestEffectiveRule(t *testing.T) {
	taskType := Models.TaskType{
		CompletionRule:           "value >= 2",
		SpecialDayCompletionRule: "value >= 1",
	}

	if got := EffectiveRule(taskType, false); got != "value >= 2" {
		t.Fatalf("ordinary day: got %q", got)
	}
	if got := EffectiveRule(taskType, true); got != "value >= 1" {
		t.Fatalf("special day: got %q", got)
	}

	taskType.SpecialDayCompletionRule = ""
	if got := EffectiveRule(taskType, true); got != "value >= 2" {
		t.Fatalf("special day without override: got %q", got)
	}
}

func TestEvaluateTask_SpecialDayOverride(t *testing.T) {
	taskType := Models.TaskType{
		Key:                      "study_hours",
		CompletionRule:           "value >= 1",
		SpecialDayCompletionRule: "value >= 0",
	}

	// value 0 passes the special rule but fails the normal one.
	completed, err := EvaluateTask(0, taskType, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !completed {
		t.Fatalf("value 0 on a special day should be completed")
	}

	completed, err = EvaluateTask(0, taskType, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed {
		t.Fatalf("value 0 on an ordinary day should be failed")
	}
}

func TestEvaluateTask_MalformedRuleSurfacesAtEvaluation(t *testing.T) {
	taskType := Models.TaskType{CompletionRule: "value >="}
	if _, err := EvaluateTask(1, taskType, false); err == nil {
		t.Fatalf("expected an error for a malformed rule")
	}
}
