package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	DefaultFeedbackMethod = "tipledger_submitFeedback"
	pingMethod            = "net_version"
)

// ErrRejected is matched by errors.Is for any JSON-RPC error response.
var ErrRejected = errors.New("ledger rejected the request")

// RPCError is the error member of a JSON-RPC response
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

func (e *RPCError) Is(target error) bool {
	return target == ErrRejected
}

// LedgerClient defines the interface for ledger contract interactions
type LedgerClient interface {
	// SubmitFeedback appends feedback to a tip through the contract write path
	SubmitFeedback(ctx context.Context, crimeIDHex, feedback string) error

	// Ping checks that the gateway node answers
	Ping(ctx context.Context) error

	// Command sends a JSON-RPC command and returns the raw result
	Command(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)

	// Close releases idle connections
	Close() error
}

// Client implements LedgerClient over JSON-RPC 2.0 on HTTP
type Client struct {
	rpcURL         string
	feedbackMethod string
	httpClient     *http.Client
	logger         *logrus.Logger
	nextID         atomic.Uint64
}

// NewClient creates a new ledger gateway client
func NewClient(rpcURL, feedbackMethod string, timeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	if feedbackMethod == "" {
		feedbackMethod = DefaultFeedbackMethod
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		rpcURL:         rpcURL,
		feedbackMethod: feedbackMethod,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// SubmitFeedback writes a feedback entry for the tip identified by crimeIDHex.
// The call blocks until the gateway confirms or rejects the write.
func (c *Client) SubmitFeedback(ctx context.Context, crimeIDHex, feedback string) error {
	if crimeIDHex == "" {
		return fmt.Errorf("crime id cannot be empty")
	}
	if _, err := c.Command(ctx, c.feedbackMethod, crimeIDHex, feedback); err != nil {
		return fmt.Errorf("submit feedback for %s: %w", crimeIDHex, err)
	}

	c.logger.WithField("crime_id", crimeIDHex).Debug("Feedback write confirmed")
	return nil
}

// Ping checks gateway availability
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Command(ctx, pingMethod)
	return err
}

// Command sends a JSON-RPC command via HTTP
func (c *Client) Command(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Length", strconv.Itoa(len(body)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamCommandTotal.WithLabelValues(method, "transport_error").Inc()
		c.logger.WithError(err).WithField("method", method).Error("RPC command failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		metrics.UpstreamCommandTotal.WithLabelValues(method, "http_error").Inc()
		return nil, fmt.Errorf("ledger gateway returned status %d", resp.StatusCode)
	}

	var result rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.UpstreamCommandTotal.WithLabelValues(method, "decode_error").Inc()
		return nil, fmt.Errorf("failed to decode ledger response: %w", err)
	}

	// Check for JSON-RPC error response
	if result.Error != nil {
		metrics.UpstreamCommandTotal.WithLabelValues(method, "rejected").Inc()
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"code":   result.Error.Code,
		}).Warn("Ledger rejected command")
		return nil, result.Error
	}

	metrics.UpstreamCommandTotal.WithLabelValues(method, "ok").Inc()
	return result.Result, nil
}

// Close closes idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
