package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"scoria/internal/host"
	"scoria/internal/registry"
	"scoria/internal/state"
	"scoria/internal/tx"

	"go.uber.org/zap"
)

var errNoSigner = errors.New("signer is required for transactions")

// APIError is a non-2xx response from a scoria node. It unwraps to the
// sentinel named by its code, so errors.Is(err, registry.ErrUnauthorized)
// works across the wire.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return host.ErrorFromCode(e.Code)
}

type Client struct {
	baseURL   string
	http      *http.Client
	signer    *tx.Signer
	chainID   int64
	lastNonce atomic.Uint64
	log       *zap.Logger
}

// New returns a client. A nil signer gives a read-only client.
func New(baseURL string, timeout time.Duration, signer *tx.Signer, chainID int64) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
		signer:  signer,
		chainID: chainID,
		log:     zap.NewNop(),
	}
}

func (c *Client) SetLogger(log *zap.Logger) {
	if log != nil {
		c.log = log
	}
}

func (c *Client) Instantiate(ctx context.Context) (host.TxResult, error) {
	return c.send(ctx, "/instantiate", tx.InstantiateAction(), json.RawMessage(`{}`))
}

func (c *Client) UpdateScore(ctx context.Context, address string, score int32) (host.TxResult, error) {
	msg := registry.ExecuteMsg{UpdateScore: &registry.UpdateScoreMsg{Address: state.Identifier(address), Score: score}}
	action, err := tx.ExecuteAction(msg)
	if err != nil {
		return host.TxResult{}, err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return host.TxResult{}, err
	}
	return c.send(ctx, "/execute", action, raw)
}

func (c *Client) GetScore(ctx context.Context, address string) (int32, error) {
	msg := registry.QueryMsg{GetScore: &registry.GetScoreMsg{Address: state.Identifier(address)}}
	var resp registry.ScoreResponse
	if err := c.do(ctx, http.MethodPost, "/query", msg, &resp); err != nil {
		return 0, err
	}
	return resp.Score, nil
}

func (c *Client) Contract(ctx context.Context) (host.ContractInfo, error) {
	var info host.ContractInfo
	if err := c.do(ctx, http.MethodGet, "/contract", nil, &info); err != nil {
		return host.ContractInfo{}, err
	}
	return info, nil
}

// EventsURL is the websocket URL of the node's event stream.
func (c *Client) EventsURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}

func (c *Client) send(ctx context.Context, path string, action tx.Action, msg json.RawMessage) (host.TxResult, error) {
	if c.signer == nil {
		return host.TxResult{}, errNoSigner
	}
	nonce := c.nextNonce()
	sig, err := c.signer.Sign(action, nonce, c.chainID)
	if err != nil {
		return host.TxResult{}, err
	}
	var result host.TxResult
	signed := tx.SignedTx{Msg: msg, Nonce: nonce, Signature: sig}
	if err := c.do(ctx, http.MethodPost, path, signed, &result); err != nil {
		return host.TxResult{}, err
	}
	c.log.Debug("tx applied", zap.String("tx_id", result.TxID), zap.String("action", action.Type), zap.Uint64("nonce", nonce))
	return result, nil
}

// nextNonce returns a millisecond timestamp, bumped when calls land in the
// same millisecond.
func (c *Client) nextNonce() uint64 {
	now := uint64(time.Now().UnixMilli())
	for {
		prev := c.lastNonce.Load()
		next := now
		if prev >= next {
			next = prev + 1
		}
		if c.lastNonce.CompareAndSwap(prev, next) {
			return next
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, req, out any) error {
	var body io.Reader
	if req != nil {
		payload, err := json.Marshal(req)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if req != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		var apiErr host.ErrorBody
		if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return &APIError{Status: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
