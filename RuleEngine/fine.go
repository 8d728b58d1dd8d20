package RuleEngine

import (
	"strconv"

	"Tracker/Models"
)

const (
	// FinePerFailedTask is the flat charge per failed task.
	FinePerFailedTask = 100.0
	// MaxDailyFine caps a day's total no matter how many tasks fail.
	MaxDailyFine = 200.0
)

// EvaluatedTask is one task's completion verdict, ready for aggregation.
type EvaluatedTask struct {
	Key       string
	Completed bool
}

// FineResult is the aggregate outcome for one user-day.
type FineResult struct {
	Fine           float64  `json:"fine"`
	FailedTaskKeys []string `json:"failed_task_keys"`
	FailedCount    int      `json:"failed_count"`
}

// CalculateFine totals a day's fine: 100 per failed task, capped at 200.
// Failed keys are listed in input order.
func CalculateFine(tasks []EvaluatedTask) FineResult {
	result := FineResult{FailedTaskKeys: []string{}}
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		result.FailedCount++
		result.FailedTaskKeys = append(result.FailedTaskKeys, task.Key)
	}
	fine := float64(result.FailedCount) * FinePerFailedTask
	if fine > MaxDailyFine {
		fine = MaxDailyFine
	}
	result.Fine = fine
	return result
}

// taskKey is the stable identifier recorded for a failed task, falling
// back to the numeric id when no key is set.
func taskKey(taskType *Models.TaskType) string {
	if taskType.Key != "" {
		return taskType.Key
	}
	return strconv.FormatUint(uint64(taskType.ID), 10)
}
