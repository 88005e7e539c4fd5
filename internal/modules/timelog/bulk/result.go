package bulk

import (
	"errors"

	"github.com/yungbote/wellness-backend/internal/domain/tracking"
)

var (
	// ErrInfrastructure tags store failures and timeouts. Callers should
	// report them as retryable, never as bad input.
	ErrInfrastructure = errors.New("bulk: infrastructure failure")
	ErrInvalidRule    = errors.New("bulk: invalid validation rule")
)

type Kind string

const (
	KindOK               Kind = "ok"
	KindValidationFailed Kind = "validation_failed"
	KindGuardrailFailed  Kind = "guardrail_failed"
	KindInsertFailed     Kind = "insert_failed"
)

type EntryError struct {
	Entry  int      `json:"entry"`
	Errors []string `json:"errors"`
}

type Warning struct {
	Entry   int    `json:"entry"`
	Warning string `json:"warning"`
}

// Result describes the outcome of one Insert call. Only KindInsertFailed can
// carry a partial commit; Committed then counts the rows of every page that
// succeeded before Failure.
type Result struct {
	Kind            Kind
	Total           int
	Processed       int
	EntryErrors     []EntryError
	GuardrailErrors []string
	Warnings        []Warning
	Committed       int
	Failure         error
	Rows            []*tracking.Activity
}

func (r *Result) OK() bool { return r != nil && r.Kind == KindOK }
