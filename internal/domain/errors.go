package domain

import "errors"

// Domain-rule violations. They are detected before any write.
var (
	ErrInvalidRate       = errors.New("invalid growth rate")
	ErrNoPriorBudget     = errors.New("no budget recorded for the current period")
	ErrUnreachableTarget = errors.New("target budget is not reachable by growth")
	ErrRollbackAtFloor   = errors.New("cannot roll back past the first period")
	ErrInvalidPauseDate  = errors.New("resume date is earlier than today")
	ErrInvalidTransition = errors.New("invalid status transition")
)
