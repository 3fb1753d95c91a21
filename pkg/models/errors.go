package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches *InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDomain matches *DomainError.
	ErrDomain = errors.New("domain invariant violated")
	// ErrNoCandidates matches *NoCandidatesError.
	ErrNoCandidates = errors.New("no tariff candidates")
)

// InvalidInputError reports structurally missing raw input.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// DomainError reports a broken invariant that normalization should have
// guaranteed. It indicates a defect, not bad user input.
type DomainError struct {
	Op     string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: domain invariant violated: %s", e.Op, e.Reason)
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// NoCandidatesError reports an empty tariff catalogue.
type NoCandidatesError struct{}

func (e *NoCandidatesError) Error() string {
	return "no tariff candidates to simulate"
}

func (e *NoCandidatesError) Is(target error) bool { return target == ErrNoCandidates }
