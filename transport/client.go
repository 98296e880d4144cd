// Package transport implements the shared HTTP client the engine uses to
// issue EBICS requests: a single long-lived *http.Client with a fixed
// timeout, posting the fixed text/xml content type, logging wire bodies at
// Debug and turning non-2xx responses into a typed transport error. Every
// request this Client issues sets only the fixed EBICS headers, never
// forwarding or leaking caller-supplied transport state.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	ebicserrors "github.com/ebicsgo/ebics/errors"
)

const contentType = "text/xml; charset=UTF-8"

// Client posts EBICS XML documents to a single bank endpoint over HTTPS. It
// is constructed once per client façade and shared across every transaction:
// its *http.Client pools connections and is never rebuilt mid-lifetime.
type Client struct {
	httpClient *http.Client
	bankURL    string
	logger     *slog.Logger
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each POST's connect+read+write time. Defaults to 30s.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate validation. Test and
	// sandbox bank endpoints only.
	InsecureSkipVerify bool
	// Logger receives Debug-level wire bodies and Warn-level transport
	// failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// New builds a Client posting to bankURL.
func New(bankURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var rt http.RoundTripper
	if opts.InsecureSkipVerify {
		rt = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: rt},
		bankURL:    bankURL,
		logger:     logger,
	}
}

// Post sends body as an EBICS request and returns the bank's raw response
// body. A non-2xx status or a transport-level failure (DNS, TLS, timeout) is
// wrapped as a KindTransport error; there is no retry here. EBICS has its
// own recovery-sync protocol, which is surfaced to the caller rather than
// acted on.
func (c *Client) Post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bankURL, bytes.NewReader(body))
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindTransport, "transport.Client.Post", err)
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("ebics request", "url", c.bankURL, "bytes", len(body), "body", string(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("ebics transport error", "url", c.bankURL, "err", err)
		return nil, ebicserrors.New(ebicserrors.KindTransport, "transport.Client.Post", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ebicserrors.New(ebicserrors.KindTransport, "transport.Client.Post", err)
	}

	c.logger.Debug("ebics response", "url", c.bankURL, "status", resp.StatusCode, "bytes", len(respBody), "body", string(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ebicserrors.New(ebicserrors.KindTransport, "transport.Client.Post",
			fmt.Errorf("bank returned HTTP %d", resp.StatusCode))
	}
	return respBody, nil
}
