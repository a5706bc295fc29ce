package reminder

import "errors"

var (
	// ErrNotFound is returned when a task id does not exist for the owner,
	// or when an operation is rejected because the task is already completed.
	ErrNotFound = errors.New("task not found")

	// ErrNoTimeExpression is returned by Submit when the text matched no
	// recognized time expression. No task is created.
	ErrNoTimeExpression = errors.New("no time expression recognized")
)
