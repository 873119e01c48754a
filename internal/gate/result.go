package gate

import (
	"encoding/json"

	xerrors "ChainGate/internal/errors"
)

// Verdict is the validation service's classification of a transaction.
type Verdict string

const (
	VerdictPass    Verdict = "PASS"
	VerdictFail    Verdict = "FAIL"
	VerdictPending Verdict = "PENDING"
)

// CheckSeverity labels the weight of an individual sub-check.
type CheckSeverity string

const (
	CheckSeverityInfo     CheckSeverity = "info"
	CheckSeverityWarning  CheckSeverity = "warning"
	CheckSeverityCritical CheckSeverity = "critical"
)

// Check is one named sub-check the service evaluated.
type Check struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Details  string        `json:"details,omitempty"`
	Severity CheckSeverity `json:"severity,omitempty"`
}

// Result is the service's verdict for one validation request. Safe is always
// derived locally from the verdict; the wire payload carries its own safe
// field but an upstream that contradicts itself must not be trusted.
type Result struct {
	ValidationID  string  `json:"validationId"`
	Verdict       Verdict `json:"result"`
	Reason        string  `json:"reason"`
	EvidenceURI   string  `json:"evidenceUri"`
	Safe          bool    `json:"safe"`
	Checks        []Check `json:"checks,omitempty"`
	Authenticated bool    `json:"authenticated"`
	Tier          string  `json:"tier"`
}

// wireResult mirrors Result with pointer fields so absent keys can be told
// apart from zero values.
type wireResult struct {
	ValidationID  *string `json:"validationId"`
	Verdict       *string `json:"result"`
	Reason        *string `json:"reason"`
	EvidenceURI   *string `json:"evidenceUri"`
	Safe          *bool   `json:"safe"`
	Checks        []Check `json:"checks"`
	Authenticated *bool   `json:"authenticated"`
	Tier          *string `json:"tier"`
}

// parseResult decodes a success body, rejecting payloads that omit required
// fields or carry an unknown verdict.
func parseResult(body []byte) (*Result, error) {
	var wire wireResult
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, xerrors.Wrap(CodeClientMalformedResponse, err, "decode validation response")
	}

	switch {
	case wire.ValidationID == nil:
		return nil, xerrors.New(CodeClientMalformedResponse, "response is missing validationId")
	case wire.Verdict == nil:
		return nil, xerrors.New(CodeClientMalformedResponse, "response is missing result")
	case wire.Reason == nil:
		return nil, xerrors.New(CodeClientMalformedResponse, "response is missing reason")
	case wire.EvidenceURI == nil:
		return nil, xerrors.New(CodeClientMalformedResponse, "response is missing evidenceUri")
	case wire.Authenticated == nil:
		return nil, xerrors.New(CodeClientMalformedResponse, "response is missing authenticated")
	case wire.Tier == nil:
		return nil, xerrors.New(CodeClientMalformedResponse, "response is missing tier")
	}

	verdict := Verdict(*wire.Verdict)
	switch verdict {
	case VerdictPass, VerdictFail, VerdictPending:
	default:
		return nil, xerrors.New(CodeClientMalformedResponse,
			"response carries unknown result "+*wire.Verdict)
	}

	return &Result{
		ValidationID:  *wire.ValidationID,
		Verdict:       verdict,
		Reason:        *wire.Reason,
		EvidenceURI:   *wire.EvidenceURI,
		Safe:          verdict == VerdictPass,
		Checks:        wire.Checks,
		Authenticated: *wire.Authenticated,
		Tier:          *wire.Tier,
	}, nil
}
