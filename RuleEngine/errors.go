package RuleEngine

import "errors"

var (
	// ErrInvalidRuleSyntax marks a completion rule that does not match the
	// comparison grammar. Surfaced to the administrator who edits task types.
	ErrInvalidRuleSyntax = errors.New("invalid rule syntax")

	// ErrTypeMismatch marks a value whose runtime type is incompatible with
	// the rule's literal or the task type's declared input type.
	ErrTypeMismatch = errors.New("type mismatch")

	ErrEntryNotFound    = errors.New("daily entry not found")
	ErrTaskTypeNotFound = errors.New("task type not found")
)
