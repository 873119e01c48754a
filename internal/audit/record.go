// Package audit persists one record per validation decision so operators can
// reconstruct why a transaction was allowed or blocked after the fact.
package audit

import (
	xerrors "ChainGate/internal/errors"
)

// Record is the stored form of a decision.
type Record struct {
	ID           string `json:"id"`
	ValidationID string `json:"validation_id,omitempty"`
	From         string `json:"from"`
	To           string `json:"to"`
	ChainID      int64  `json:"chain_id"`
	Verdict      string `json:"verdict,omitempty"`
	Allowed      bool   `json:"allowed"`
	ErrorCode    string `json:"error_code,omitempty"`
	Message      string `json:"message"`
	CreatedAt    int64  `json:"created_at"`
}

// ListOptions filters and bounds a listing. Zero values mean "no filter".
type ListOptions struct {
	Limit   int
	Offset  int
	Allowed *bool
	Verdict string
}

func (o *ListOptions) applyDefaults() {
	if o.Limit <= 0 {
		o.Limit = 50
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// Stats aggregates decisions for dashboards.
type Stats struct {
	Total   int64 `json:"total"`
	Allowed int64 `json:"allowed"`
	Blocked int64 `json:"blocked"`
	Errored int64 `json:"errored"`
}

var (
	// ErrRecordNotFound marks a lookup for an unknown decision id.
	ErrRecordNotFound = xerrors.New(xerrors.CodeNotFound, "decision record not found")
	// ErrRecordConflict marks an insert with a duplicate decision id.
	ErrRecordConflict = xerrors.New(CodeRecordConflict, "decision record already exists")
)

// CodeRecordConflict is registered so conflicts carry their own code.
const CodeRecordConflict xerrors.Code = "AUDIT_RECORD_CONFLICT"

func init() {
	xerrors.Register(CodeRecordConflict, xerrors.Attributes{
		Message:   "decision record already exists",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
}
