package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	xerrors "ChainGate/internal/errors"
	"ChainGate/pkg/logger"
)

// DefaultHTTPTimeout bounds validation calls made with the default transport.
// Callers that need a different budget supply their own http.Client.
const DefaultHTTPTimeout = 15 * time.Second

// credentialHeader carries the api key on every request.
const credentialHeader = "X-API-Key"

// Client performs the HTTP interactions with the validation service. It makes
// exactly one attempt per call; retry policy belongs to the calling agent.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	debug      bool
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a client from a resolved gate configuration. When
// httpClient is nil a default client with a sensible timeout is used.
func NewClient(cfg *Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{
		baseURL:    cfg.Endpoint,
		apiKey:     cfg.APIKey,
		debug:      cfg.Debug,
		httpClient: httpClient,
		log:        logger.Named("gate.client"),
	}
}

// Validate submits one validation request and returns the service's verdict,
// with Safe recomputed locally. Failures carry CLIENT_* codes.
func (c *Client) Validate(ctx context.Context, req ValidationRequest) (*Result, error) {
	body, err := c.post(ctx, "/validate", req)
	if err != nil {
		return nil, err
	}
	result, err := parseResult(body)
	if err != nil {
		return nil, err
	}
	if c.debug {
		c.log.Debug("validation verdict received",
			slog.String("validation_id", result.ValidationID),
			slog.String("result", string(result.Verdict)),
			slog.String("reason", result.Reason),
			slog.Bool("safe", result.Safe),
		)
	}
	return result, nil
}

// AgentInfo fetches trust and registration details for a wallet. Read-only
// passthrough; the payload never influences a decision.
func (c *Client) AgentInfo(ctx context.Context, wallet string) (json.RawMessage, error) {
	if wallet == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "wallet address is required")
	}
	return c.get(ctx, "/agents/"+wallet)
}

// Evidence fetches the opaque evidence payload recorded for a validation.
func (c *Client) Evidence(ctx context.Context, validationID string) (json.RawMessage, error) {
	if validationID == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "validation id is required")
	}
	return c.get(ctx, "/evidence/"+validationID)
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "encode validation request")
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	rel := &url.URL{Path: path.Join(c.baseURL.Path, endpoint)}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "create request")
	}
	req.Header.Set(credentialHeader, c.apiKey)
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, xerrors.Wrap(CodeClientTransport, err, "validation service unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Wrap(CodeClientTransport, err, "read validation response")
	}

	if resp.StatusCode >= 400 {
		return nil, upstreamError(resp.StatusCode, data)
	}
	return data, nil
}

// upstreamError extracts the service's own message from an error body. The
// message is preserved verbatim so quota and upgrade guidance reach the end
// user; an unparseable body degrades to a status-only message instead of a
// secondary failure.
func upstreamError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	message := ""
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err == nil {
			if payload.Error != "" {
				message = payload.Error
			} else if payload.Message != "" {
				message = payload.Message
			}
		}
	}
	if message == "" {
		message = fmt.Sprintf("validation service returned status %d", status)
	}
	return xerrors.New(CodeClientUpstream, message,
		xerrors.WithMetadata("status", fmt.Sprintf("%d", status)))
}
