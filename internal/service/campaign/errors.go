package campaign

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/budget-escalator/internal/domain"
)

// Sentinel errors returned by repositories and the service layer.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateRecord = errors.New("period record already exists")
	ErrStaleRate       = errors.New("growth rate changed concurrently")
	ErrConfirmation    = errors.New("confirmation required")
	ErrBulkInProgress  = errors.New("a bulk operation is already running")
	ErrInvalidInput    = errors.New("invalid input")
	ErrStaleRecords    = errors.New("next period holds records from an unfinished advance")
)

// Kind classifies an engine error.
type Kind string

const (
	KindInvalidRate          Kind = "invalid_rate"
	KindNoPriorBudget        Kind = "no_prior_budget"
	KindUnreachableTarget    Kind = "unreachable_target"
	KindRollbackAtFloor      Kind = "rollback_at_floor"
	KindInvalidPauseDate     Kind = "invalid_pause_date"
	KindNotFound             Kind = "not_found"
	KindPersistence          Kind = "persistence_failure"
	KindInvalidInput         Kind = "invalid_input"
	KindInvalidTransition    Kind = "invalid_transition"
	KindConfirmationRequired Kind = "confirmation_required"
	KindConflict             Kind = "conflict"
)

// Error is the structured error every engine operation returns.
type Error struct {
	Kind Kind
	// Op is the engine operation, e.g. "advance".
	Op string
	// Step names the persistence step that failed, if any.
	Step    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 4)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Step != "" {
		parts = append(parts, e.Step)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil && !strings.Contains(e.Message, e.Err.Error()) {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or "" for errors not produced by the engine.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return kindFor(err)
}

func kindFor(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidRate):
		return KindInvalidRate
	case errors.Is(err, domain.ErrNoPriorBudget):
		return KindNoPriorBudget
	case errors.Is(err, domain.ErrUnreachableTarget):
		return KindUnreachableTarget
	case errors.Is(err, domain.ErrRollbackAtFloor):
		return KindRollbackAtFloor
	case errors.Is(err, domain.ErrInvalidPauseDate):
		return KindInvalidPauseDate
	case errors.Is(err, domain.ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConfirmation):
		return KindConfirmationRequired
	case errors.Is(err, ErrBulkInProgress), errors.Is(err, ErrStaleRate),
		errors.Is(err, ErrDuplicateRecord), errors.Is(err, ErrStaleRecords):
		return KindConflict
	}
	return ""
}

// ruleErr wraps a domain-rule violation detected before any write.
func ruleErr(op string, err error) *Error {
	return &Error{Kind: kindFor(err), Op: op, Message: err.Error(), Err: err}
}

// invalid builds an invalid_input error.
func invalid(op, format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrInvalidInput,
	}
}

// storeErr wraps a repository failure at step. Not-found and conflict
// sentinels keep their own kind; everything else is a persistence failure.
func storeErr(op, step string, err error) *Error {
	kind := kindFor(err)
	if kind == "" {
		kind = KindPersistence
	}
	return &Error{Kind: kind, Op: op, Step: step, Message: err.Error(), Err: err}
}

// partialErr reports a multi-step operation that stopped after an earlier
// step was already persisted.
func partialErr(op, step, message string, err error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Step: step, Message: message, Err: err}
}
