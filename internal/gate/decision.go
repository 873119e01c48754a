package gate

import (
	xerrors "ChainGate/internal/errors"
)

// Decision is the gate's own output. Allowed reports whether execution may
// proceed; Result holds the verdict when one was obtained; Err holds the
// local failure when the request never reached a verdict. Exactly one of
// Result and Err is set.
type Decision struct {
	Allowed bool
	Result  *Result
	Err     error
}

// Evaluate classifies one already-obtained outcome into the final decision.
//
//   - PASS is always allowed; a pass is never blocked by local policy.
//   - FAIL and PENDING are allowed only when auto-block is disabled; the full
//     result (Safe=false included) is still returned so a caller override is
//     explicit and auditable, never implicit.
//   - Any error denies unconditionally. Auto-block does not apply to the
//     error path: there is no verdict to opt out of trusting.
func Evaluate(autoBlock bool, result *Result, err error) Decision {
	if err != nil {
		return Decision{Allowed: false, Err: err}
	}
	if result == nil {
		return Decision{
			Allowed: false,
			Err:     xerrors.New(CodeClientMalformedResponse, "no verdict was obtained"),
		}
	}
	if result.Verdict == VerdictPass {
		return Decision{Allowed: true, Result: result}
	}
	return Decision{Allowed: !autoBlock, Result: result}
}
