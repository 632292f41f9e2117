package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for failure modes that carry no extra detail. Business-rule
// rejections are deterministic: retrying with the same arguments fails again.
var (
	ErrNotFound          = errors.New("not found")
	ErrLedgerUnavailable = errors.New("ledger unavailable") // retryable by the caller with backoff
	ErrCampaignInactive  = errors.New("campaign inactive")
	ErrAlreadyClaimed    = errors.New("bonus already claimed")
	ErrPoolExhausted     = errors.New("campaign bonus pool exhausted")
)

// ValidationError marks malformed caller input. Never retryable.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Detail
}

// InsufficientProgressError rejects a claim whose supplied content does not
// meet the campaign target, naming exactly what fell short.
type InsufficientProgressError struct {
	Need           int      // how many more qualifying items are required
	Supplied       int      // how many the caller provided
	BelowThreshold []string // content ids whose stored trust score missed the minimum
}

func (e *InsufficientProgressError) Error() string {
	if len(e.BelowThreshold) > 0 {
		return fmt.Sprintf("insufficient progress: content below trust threshold: %s",
			strings.Join(e.BelowThreshold, ", "))
	}
	return fmt.Sprintf("insufficient progress: need %d more qualifying recommendations (got %d)",
		e.Need, e.Supplied)
}

// DataIntegrityError flags a ledger/local disagreement no corrective action
// covers, e.g. the ledger reports a claim the local store has no record of.
// Surfaced rather than silently resolved. Cause, when set, carries the
// business outcome the ledger state implies (the ledger remains
// authoritative even when local state is inconsistent with it).
type DataIntegrityError struct {
	Detail string
	Cause  error
}

func (e *DataIntegrityError) Error() string {
	return "data integrity: " + e.Detail
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Cause
}
