package gate

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	xerrors "ChainGate/internal/errors"
)

const (
	// DefaultEndpoint is the canonical production URL of the validation
	// service, used when no override is configured.
	DefaultEndpoint = "https://api.chaingate.dev"

	// DefaultChainID is assumed when neither the configuration nor the
	// individual transaction names a chain.
	DefaultChainID int64 = 1

	// credentialPrefix is the issued key format of the validation service.
	credentialPrefix = "cg_"
)

// Settings carries the raw, possibly absent string values the gate is
// configured from. The host environment is one source (see SettingsFromEnv);
// test code constructs it directly.
type Settings struct {
	APIKey      string
	APIURL      string
	GuardrailID string
	ChainID     string
	AutoBlock   string
	Debug       string
}

// Config is the resolved gate configuration. It is immutable after
// ResolveConfig and safe to share across concurrent validation calls.
type Config struct {
	APIKey      string
	Endpoint    *url.URL
	GuardrailID string
	ChainID     int64
	AutoBlock   bool
	Debug       bool
}

// SettingsFromEnv collects the gate settings from the process environment.
func SettingsFromEnv() Settings {
	return Settings{
		APIKey:      os.Getenv("CHAINGATE_API_KEY"),
		APIURL:      os.Getenv("CHAINGATE_API_URL"),
		GuardrailID: os.Getenv("CHAINGATE_GUARDRAIL_ID"),
		ChainID:     os.Getenv("CHAINGATE_CHAIN_ID"),
		AutoBlock:   os.Getenv("CHAINGATE_AUTO_BLOCK"),
		Debug:       os.Getenv("CHAINGATE_DEBUG"),
	}
}

// ResolveConfig validates and defaults the raw settings into a Config. It is
// a pure function of its input; errors are fatal at initialisation and carry
// CONFIG_* codes.
func ResolveConfig(settings Settings) (*Config, error) {
	apiKey := strings.TrimSpace(settings.APIKey)
	if apiKey == "" {
		return nil, xerrors.New(CodeConfigMissingCredential,
			"CHAINGATE_API_KEY is required")
	}
	if !strings.HasPrefix(apiKey, credentialPrefix) {
		return nil, xerrors.New(CodeConfigInvalidCredential,
			"api key must start with \""+credentialPrefix+"\"")
	}

	rawURL := strings.TrimSpace(settings.APIURL)
	if rawURL == "" {
		rawURL = DefaultEndpoint
	}
	endpoint, err := url.Parse(rawURL)
	if err != nil || endpoint.Host == "" || (endpoint.Scheme != "http" && endpoint.Scheme != "https") {
		return nil, xerrors.New(CodeConfigInvalidURL,
			"endpoint is not a valid http(s) url: "+rawURL)
	}

	chainID := DefaultChainID
	if raw := strings.TrimSpace(settings.ChainID); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, xerrors.New(CodeConfigInvalidChainID,
				"chain id must be a positive integer, got "+raw)
		}
		chainID = parsed
	}

	autoBlock, err := parseBool(settings.AutoBlock, true)
	if err != nil {
		return nil, err
	}
	debug, err := parseBool(settings.Debug, false)
	if err != nil {
		return nil, err
	}

	return &Config{
		APIKey:      apiKey,
		Endpoint:    endpoint,
		GuardrailID: strings.TrimSpace(settings.GuardrailID),
		ChainID:     chainID,
		AutoBlock:   autoBlock,
		Debug:       debug,
	}, nil
}

// parseBool accepts only the literal strings "true" and "false"; anything
// else is a configuration mistake we refuse to guess about.
func parseBool(raw string, fallback bool) (bool, error) {
	switch strings.TrimSpace(raw) {
	case "":
		return fallback, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, xerrors.New(CodeConfigInvalidBoolean,
			"expected \"true\" or \"false\", got "+strings.TrimSpace(raw))
	}
}
