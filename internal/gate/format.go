package gate

import (
	"fmt"
	"strings"

	xerrors "ChainGate/internal/errors"
)

// FormatDecision renders a decision for display to the end user. It is pure:
// the same decision always yields the same text, and wording never feeds back
// into the allow/deny outcome. Three shapes exist: approved, blocked, error.
func FormatDecision(d Decision) string {
	if d.Err != nil {
		return "Validation error: " + xerrors.MessageOf(d.Err) + ". Transaction blocked."
	}
	if d.Result == nil {
		return "Validation error: no verdict was obtained. Transaction blocked."
	}

	result := d.Result
	var b strings.Builder
	if d.Allowed {
		b.WriteString("Approved: ")
	} else {
		b.WriteString("Blocked: ")
	}
	b.WriteString(result.Reason)
	fmt.Fprintf(&b, " [validation %s]", result.ValidationID)
	if d.Allowed && result.Verdict != VerdictPass {
		fmt.Fprintf(&b, " (guardrail verdict %s, auto-block disabled)", result.Verdict)
	}
	if result.EvidenceURI != "" {
		b.WriteString(" evidence: ")
		b.WriteString(result.EvidenceURI)
	}
	if failed := failedChecks(result.Checks); failed != "" {
		b.WriteString(" failed checks: ")
		b.WriteString(failed)
	}
	return b.String()
}

func failedChecks(checks []Check) string {
	names := make([]string, 0, len(checks))
	for _, check := range checks {
		if !check.Passed {
			names = append(names, check.Name)
		}
	}
	return strings.Join(names, ", ")
}
