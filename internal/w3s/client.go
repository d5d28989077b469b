// Package w3s implements transfer.Transferer against a web3.storage style
// HTTP API: parts and manifests are POSTed to <api>/upload and read back
// from an IPFS gateway.
package w3s

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/zstd"

	"github.com/w3s-cli/w3s/internal/config"
	"github.com/w3s-cli/w3s/internal/constants"
	whttp "github.com/w3s-cli/w3s/internal/http"
	"github.com/w3s-cli/w3s/internal/logging"
	"github.com/w3s-cli/w3s/internal/transfer"
	"github.com/w3s-cli/w3s/internal/util/buffers"
	"github.com/w3s-cli/w3s/internal/version"
)

var (
	// ErrKeyRequired means the content is encrypted and no password was given.
	ErrKeyRequired = errors.New("content is encrypted, a password is required (use --with-encryption)")
	// ErrNotManifest means a directory download pointed at something that is
	// not a directory manifest.
	ErrNotManifest = errors.New("content is not a directory uploaded by this tool")
)

// APIError is a non-2xx response from the API or the gateway.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("w3s API error: %s", e.Status)
	}
	return fmt.Sprintf("w3s API error: %s: %s", e.Status, e.Body)
}

// Client talks to the storage API and gateway.
type Client struct {
	apiURL              string
	gatewayURL          string
	partSize            int64
	parts               *buffers.Pool
	downloadConcurrency int

	http    *retryablehttp.Client
	limiter *whttp.Limiter
	logger  *logging.Logger
	session string

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

var _ transfer.Transferer = (*Client)(nil)

// New builds a Client from settings.
func New(s config.Settings, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(constants.MaxManifestSize)+uint64(s.PartSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Client{
		apiURL:              strings.TrimRight(s.APIURL, "/"),
		gatewayURL:          s.GatewayURL,
		partSize:            s.PartSize,
		parts:               buffers.NewPool(int(s.PartSize)),
		downloadConcurrency: s.DownloadConcurrency,
		http:                whttp.NewRetryClient(whttp.CreateOptimizedClient(), s.RetryMax, logger),
		limiter:             whttp.NewLimiter(s.RateLimit),
		logger:              logger,
		session:             uuid.NewString(),
		encoder:             encoder,
		decoder:             decoder,
	}, nil
}

// Close releases the codec resources.
func (c *Client) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

type uploadResponse struct {
	CID string `json:"cid"`
}

// postObject stores body and returns its CID. onSent receives the number of
// body bytes sent so far; a retried attempt starts again from zero.
func (c *Client) postObject(ctx context.Context, token string, body []byte, contentType string, onSent func(uint64)) (transfer.CID, error) {
	newBody := func() (io.Reader, error) {
		return &countingReader{r: c.limiter.Reader(bytesReader(body)), size: len(body), onRead: onSent}, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodPost, c.apiURL+"/upload", retryablehttp.ReaderFunc(newBody))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	c.setTraceHeaders(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return "", err
	}

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if out.CID == "" {
		return "", fmt.Errorf("upload response did not contain a CID")
	}
	return transfer.CID(out.CID), nil
}

// get fetches url. The caller closes the body.
func (c *Client) get(ctx context.Context, url string) (*nethttp.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	c.setTraceHeaders(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func (c *Client) gatewayLink(cid transfer.CID) string {
	return c.gatewayURL + cid.String()
}

func (c *Client) setTraceHeaders(h nethttp.Header) {
	h.Set("X-Request-Id", uuid.NewString())
	h.Set("X-Session-Id", c.session)
	h.Set("User-Agent", version.UserAgent())
}

func checkResponse(resp *nethttp.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}
