package RuleEngine

import (
	"fmt"
	"math"

	"Tracker/Models"
)

// CoerceValue normalizes a raw JSON value according to the task type's
// input type. Booleans are stored as 0/1; integers are truncated.
func CoerceValue(inputType string, raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case bool:
		if inputType != Models.InputBoolean {
			return 0, fmt.Errorf("%s task cannot take a boolean value: %w", inputType, ErrTypeMismatch)
		}
		if v {
			return 1, nil
		}
		return 0, nil
	case float64:
		switch inputType {
		case Models.InputInteger:
			return math.Trunc(v), nil
		case Models.InputDecimal:
			return v, nil
		case Models.InputBoolean:
			if v == 0 || v == 1 {
				return v, nil
			}
			return 0, fmt.Errorf("boolean task value must be 0 or 1, got %v: %w", v, ErrTypeMismatch)
		}
		return 0, fmt.Errorf("unknown input type %q: %w", inputType, ErrTypeMismatch)
	case int:
		return CoerceValue(inputType, float64(v))
	case int64:
		return CoerceValue(inputType, float64(v))
	}
	return 0, fmt.Errorf("unsupported value type %T: %w", raw, ErrTypeMismatch)
}
