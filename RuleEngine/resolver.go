package RuleEngine

import (
	"Tracker/Models"
)

// EffectiveRule picks the rule that applies on the given kind of day:
// the special-day override when the day is special and the override is
// set, the normal completion rule otherwise. Malformed rule strings are
// caught at evaluation time, not here.
func EffectiveRule(taskType Models.TaskType, specialDay bool) string {
	if specialDay && taskType.SpecialDayCompletionRule != "" {
		return taskType.SpecialDayCompletionRule
	}
	return taskType.CompletionRule
}

// EvaluateTask applies the effective completion rule to a recorded value.
// Stamping MarkedAt is the caller's job.
func EvaluateTask(value float64, taskType Models.TaskType, specialDay bool) (bool, error) {
	return EvaluateCompletionRule(value, EffectiveRule(taskType, specialDay))
}
