package gate

import (
	"math/big"
	"strings"

	xerrors "ChainGate/internal/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Transaction is the caller-supplied intent the gate validates. Value, chain
// and guardrail are optional; everything else must be present and well formed
// before any network call is made.
type Transaction struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Data        string `json:"data"`
	Value       string `json:"value,omitempty"`
	ChainID     int64  `json:"chainId,omitempty"`
	GuardrailID string `json:"guardrailId,omitempty"`
}

// ValidationRequest is the wire payload sent to the validation service.
type ValidationRequest struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Data        string `json:"data"`
	Value       string `json:"value"`
	GuardrailID string `json:"guardrailId,omitempty"`
	ChainID     int64  `json:"chainId"`
}

// BuildRequest assembles a ValidationRequest from a transaction and the gate
// configuration. It fails locally with a BUILD_* code before the service is
// ever contacted; a wasted upstream call burns quota and cannot succeed on a
// malformed request anyway.
func BuildRequest(cfg *Config, tx Transaction) (ValidationRequest, error) {
	if cfg == nil {
		return ValidationRequest{}, xerrors.New(xerrors.CodeInitializationFailure, "gate config is nil")
	}

	from := strings.TrimSpace(tx.From)
	to := strings.TrimSpace(tx.To)
	data := strings.TrimSpace(tx.Data)
	if from == "" || to == "" || data == "" {
		return ValidationRequest{}, xerrors.New(CodeBuildIncompleteTransaction,
			"missing transaction details: from, to and data are all required")
	}

	if !common.IsHexAddress(from) {
		return ValidationRequest{}, xerrors.New(CodeBuildInvalidTransaction,
			"from is not a valid address: "+from)
	}
	if !common.IsHexAddress(to) {
		return ValidationRequest{}, xerrors.New(CodeBuildInvalidTransaction,
			"to is not a valid address: "+to)
	}
	// "0x" alone is a valid no-op payload.
	if _, err := hexutil.Decode(data); err != nil {
		return ValidationRequest{}, xerrors.Wrap(CodeBuildInvalidTransaction, err,
			"data is not valid call data hex")
	}

	value := strings.TrimSpace(tx.Value)
	if value == "" {
		value = "0"
	}
	if amount, ok := new(big.Int).SetString(value, 10); !ok || amount.Sign() < 0 {
		return ValidationRequest{}, xerrors.New(CodeBuildInvalidTransaction,
			"value must be a non-negative decimal string: "+value)
	}

	chainID := cfg.ChainID
	if tx.ChainID > 0 {
		chainID = tx.ChainID
	}
	guardrailID := cfg.GuardrailID
	if override := strings.TrimSpace(tx.GuardrailID); override != "" {
		guardrailID = override
	}

	return ValidationRequest{
		From:        from,
		To:          to,
		Data:        data,
		Value:       value,
		GuardrailID: guardrailID,
		ChainID:     chainID,
	}, nil
}
