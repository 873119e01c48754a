package gate

import (
	xerrors "ChainGate/internal/errors"
)

// Error codes raised by the gate. Config codes are fatal at initialisation,
// build codes are recovered locally without touching the network, and client
// codes map transport/HTTP failures from the validation service. All of them
// lead to a denied decision.
const (
	CodeConfigMissingCredential Code = "CONFIG_MISSING_CREDENTIAL"
	CodeConfigInvalidCredential Code = "CONFIG_INVALID_CREDENTIAL"
	CodeConfigInvalidURL        Code = "CONFIG_INVALID_URL"
	CodeConfigInvalidChainID    Code = "CONFIG_INVALID_CHAIN_ID"
	CodeConfigInvalidBoolean    Code = "CONFIG_INVALID_BOOLEAN"

	CodeBuildIncompleteTransaction Code = "BUILD_INCOMPLETE_TRANSACTION"
	CodeBuildInvalidTransaction    Code = "BUILD_INVALID_TRANSACTION"

	CodeClientTransport         Code = "CLIENT_TRANSPORT"
	CodeClientUpstream          Code = "CLIENT_UPSTREAM"
	CodeClientMalformedResponse Code = "CLIENT_MALFORMED_RESPONSE"
)

// Code aliases the shared error code type for local constants.
type Code = xerrors.Code

func init() {
	xerrors.Register(CodeConfigMissingCredential, xerrors.Attributes{
		Message:   "api key is not configured",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeConfigInvalidCredential, xerrors.Attributes{
		Message:   "api key format is not recognised",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeConfigInvalidURL, xerrors.Attributes{
		Message:   "endpoint is not a valid url",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeConfigInvalidChainID, xerrors.Attributes{
		Message:   "chain id must be a positive integer",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeConfigInvalidBoolean, xerrors.Attributes{
		Message:   "boolean setting must be \"true\" or \"false\"",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeBuildIncompleteTransaction, xerrors.Attributes{
		Message:   "transaction details are incomplete",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeBuildInvalidTransaction, xerrors.Attributes{
		Message:   "transaction fields are malformed",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeClientTransport, xerrors.Attributes{
		Message:   "validation service unreachable",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     true,
	})
	xerrors.Register(CodeClientUpstream, xerrors.Attributes{
		Message:   "validation service rejected the request",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeClientMalformedResponse, xerrors.Attributes{
		Message:   "validation service returned an unusable response",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
}
