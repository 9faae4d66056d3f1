package util

import (
	"errors"
	"fmt"
)

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
	ErrDocumentTooShort  = errors.New("document text too short to summarize")
)

// Kind classifies a pipeline failure. Callers branch on the kind rather than
// on message text.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindTransient       Kind = "transient_network"
	KindExtractionEmpty Kind = "extraction_empty"
	KindParse           Kind = "parse"
	KindPersistence     Kind = "persistence"
)

// Error carries a Kind and a message that is safe to show to end users.
// Err holds the internal cause and is only ever logged.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether another attempt could plausibly succeed.
// Untyped errors (network failures, SDK errors) are retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindValidation, KindExtractionEmpty:
		return false
	}
	return true
}

const genericUserMessage = "Something went wrong while processing the document. Please try again later."

// UserMessage returns the user-facing text for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return genericUserMessage
}
