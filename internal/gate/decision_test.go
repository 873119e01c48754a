package gate

import (
	"strings"
	"testing"

	xerrors "ChainGate/internal/errors"
)

func TestEvaluate(t *testing.T) {
	pass := &Result{ValidationID: "val_1", Verdict: VerdictPass, Reason: "No risk indicators found", Safe: true}
	fail := &Result{ValidationID: "val_2", Verdict: VerdictFail, Reason: "Recipient is a known drainer contract"}
	pending := &Result{ValidationID: "val_3", Verdict: VerdictPending, Reason: "Manual review required"}

	cases := []struct {
		name      string
		autoBlock bool
		result    *Result
		err       error
		allowed   bool
	}{
		{"pass with auto-block", true, pass, nil, true},
		{"pass without auto-block", false, pass, nil, true},
		{"fail with auto-block", true, fail, nil, false},
		{"fail without auto-block", false, fail, nil, true},
		{"pending with auto-block", true, pending, nil, false},
		{"pending without auto-block", false, pending, nil, true},
		{"error with auto-block", true, nil, xerrors.New(CodeClientTransport, "boom"), false},
		{"error without auto-block", false, nil, xerrors.New(CodeClientTransport, "boom"), false},
		{"no result no error", false, nil, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(tc.autoBlock, tc.result, tc.err)
			if d.Allowed != tc.allowed {
				t.Fatalf("expected allowed=%v, got %v", tc.allowed, d.Allowed)
			}
			if d.Allowed && d.Err != nil {
				t.Fatalf("allowed decision must not carry an error: %v", d.Err)
			}
			if tc.result == nil && d.Err == nil {
				t.Fatal("decision without a result must carry an error")
			}
		})
	}
}

func TestEvaluateOverriddenFailKeepsResult(t *testing.T) {
	fail := &Result{ValidationID: "val_9", Verdict: VerdictFail, Reason: "High risk"}
	d := Evaluate(false, fail, nil)
	if !d.Allowed {
		t.Fatal("fail must be allowed when auto-block is disabled")
	}
	if d.Result == nil || d.Result.Safe {
		t.Fatalf("overridden fail must keep the unsafe result: %+v", d.Result)
	}
}

func TestFormatDecision(t *testing.T) {
	cases := []struct {
		name     string
		decision Decision
		want     []string
	}{
		{
			"approved pass",
			Decision{Allowed: true, Result: &Result{
				ValidationID: "val_123",
				Verdict:      VerdictPass,
				Reason:       "No risk indicators found",
				EvidenceURI:  "https://evidence.chaingate.dev/val_123",
				Safe:         true,
			}},
			[]string{"Approved: No risk indicators found", "[validation val_123]", "evidence: https://evidence.chaingate.dev/val_123"},
		},
		{
			"blocked fail",
			Decision{Allowed: false, Result: &Result{
				ValidationID: "val_124",
				Verdict:      VerdictFail,
				Reason:       "Recipient is a known drainer contract",
				Checks: []Check{
					{Name: "address_reputation", Passed: false, Severity: CheckSeverityCritical},
					{Name: "simulation", Passed: true},
				},
			}},
			[]string{"Blocked: Recipient is a known drainer contract", "[validation val_124]", "failed checks: address_reputation"},
		},
		{
			"allowed despite fail",
			Decision{Allowed: true, Result: &Result{
				ValidationID: "val_125",
				Verdict:      VerdictFail,
				Reason:       "High risk",
			}},
			[]string{"Approved: High risk", "(guardrail verdict FAIL, auto-block disabled)"},
		},
		{
			"error",
			Decision{Allowed: false, Err: xerrors.New(CodeClientTransport, "validation service unreachable")},
			[]string{"Validation error: validation service unreachable. Transaction blocked."},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := FormatDecision(tc.decision)
			for _, want := range tc.want {
				if !strings.Contains(text, want) {
					t.Fatalf("expected %q in %q", want, text)
				}
			}
			if again := FormatDecision(tc.decision); again != text {
				t.Fatalf("formatting is not stable: %q vs %q", text, again)
			}
		})
	}
}

func TestFormatDecisionPassingChecksOmitted(t *testing.T) {
	d := Decision{Allowed: true, Result: &Result{
		ValidationID: "val_1",
		Verdict:      VerdictPass,
		Reason:       "ok",
		Checks:       []Check{{Name: "simulation", Passed: true}},
	}}
	if text := FormatDecision(d); strings.Contains(text, "failed checks") {
		t.Fatalf("passing checks must not be listed: %q", text)
	}
}
