package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/wayback-tweets/internal/models"
)

const (
	DefaultCDXEndpoint = "https://web.archive.org/cdx/search/cdx"
	DefaultService     = "twitter.com"
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	cdxTimeout = 60 * time.Second
)

// WaybackClient queries the Wayback Machine CDX API for archived tweet URLs.
// It issues exactly one request per call and never retries; retry policy
// belongs to the caller.
type WaybackClient struct {
	httpClient *http.Client
	endpoint   string
	service    string
	userAgent  string
	logger     *log.Logger
	diag       Diagnostics
}

// Option configures a WaybackClient
type Option func(*WaybackClient)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *WaybackClient) { c.httpClient = hc }
}

// WithTimeout sets the transport timeout
func WithTimeout(d time.Duration) Option {
	return func(c *WaybackClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithEndpoint points the client at a different CDX search endpoint
func WithEndpoint(endpoint string) Option {
	return func(c *WaybackClient) {
		if endpoint != "" {
			c.endpoint = strings.TrimSuffix(endpoint, "?")
		}
	}
}

// WithService sets the host whose status URLs are searched (e.g. "x.com")
func WithService(service string) Option {
	return func(c *WaybackClient) {
		if service != "" {
			c.service = service
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *WaybackClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithDiagnostics routes progress and failure notices to d
func WithDiagnostics(d Diagnostics) Option {
	return func(c *WaybackClient) {
		if d != nil {
			c.diag = d
		}
	}
}

// NewWaybackClient creates a new Wayback Machine API client.
// Progress goes to logger; failures go to the Diagnostics sink, which
// defaults to the same logger. A nil logger silences both unless
// WithDiagnostics is given.
func NewWaybackClient(logger *log.Logger, opts ...Option) *WaybackClient {
	c := &WaybackClient{
		httpClient: &http.Client{
			Timeout: cdxTimeout,
		},
		endpoint:  DefaultCDXEndpoint,
		service:   DefaultService,
		userAgent: DefaultUserAgent,
		logger:    logger,
		diag:      NewLogDiagnostics(logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildTweetsQuery constructs the raw query string for a username's status URLs.
// Returns the query string WITHOUT the leading '?'.
// The asterisk wildcard must NOT be URL-encoded for the CDX API.
func BuildTweetsQuery(service string, params models.QueryParameters) string {
	target := fmt.Sprintf("https://%s/%s/status/*", service, params.Username)

	var sb strings.Builder
	sb.WriteString("url=")
	sb.WriteString(escapeCDXValue(target))
	sb.WriteString("&output=json")

	// Only parameters that are actually set go on the wire: the CDX server
	// treats an empty parameter differently from a missing one
	if params.Collapse != "" {
		sb.WriteString("&collapse=" + escapeCDXValue(params.Collapse))
	}
	if params.From != "" {
		sb.WriteString("&from=" + escapeCDXValue(params.From))
	}
	if params.To != "" {
		sb.WriteString("&to=" + escapeCDXValue(params.To))
	}
	if params.Limit != 0 {
		sb.WriteString("&limit=" + strconv.Itoa(params.Limit))
	}
	if params.Offset != 0 {
		sb.WriteString("&offset=" + strconv.Itoa(params.Offset))
	}

	return sb.String()
}

// escapeCDXValue query-escapes v but keeps '*' literal
func escapeCDXValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "%2A", "*")
}

// RequestURL returns the full URL FetchTweets would request
func (c *WaybackClient) RequestURL(params models.QueryParameters) string {
	return c.endpoint + "?" + BuildTweetsQuery(c.service, params)
}

// FetchTweets requests the CDX rows for params.Username.
// A failure is reported once through the client's Diagnostics and yields nil:
// the caller sees either data or nothing, never a transport error.
func (c *WaybackClient) FetchTweets(ctx context.Context, params models.QueryParameters) models.CDXRows {
	if c.logger != nil {
		c.logger.Info("Making a request to the Internet Archive...", "username", params.Username)
	}

	rows, err := c.fetchTweets(ctx, params)
	if err != nil {
		c.diag.Report(LevelError, c.describeFailure(err))
		return nil
	}
	return rows
}

func (c *WaybackClient) fetchTweets(ctx context.Context, params models.QueryParameters) (models.CDXRows, error) {
	// Build raw URL string with literal asterisk - DO NOT use url.URL as it encodes the asterisk
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", "https://web.archive.org/")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	// Handle gzip-compressed responses
	var reader io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// No captures: the API answers with an empty body
	if len(strings.TrimSpace(string(body))) == 0 {
		return models.CDXRows{}, nil
	}

	var rows models.CDXRows
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return rows, nil
}

// StatusError is returned for any non-200 answer from the CDX API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("CDX API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("CDX API returned status %d: %s", e.StatusCode, e.Body)
}

// Failure classifies a failed CDX request
type Failure int

const (
	FailureUnclassified Failure = iota
	FailureTimeout
	FailureConnection
	FailureHTTP
)

func (f Failure) String() string {
	switch f {
	case FailureTimeout:
		return "timeout"
	case FailureConnection:
		return "connection"
	case FailureHTTP:
		return "http"
	default:
		return "unclassified"
	}
}

// ClassifyFailure maps a request error onto a Failure category
func ClassifyFailure(err error) Failure {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return FailureHTTP
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return FailureConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return FailureConnection
	}

	return FailureUnclassified
}

func (c *WaybackClient) describeFailure(err error) string {
	host := "web.archive.org"
	if u, perr := url.Parse(c.endpoint); perr == nil && u.Host != "" {
		host = u.Host
	}

	switch ClassifyFailure(err) {
	case FailureTimeout:
		return fmt.Sprintf("Connection to %s timed out.", host)
	case FailureConnection:
		return fmt.Sprintf("Failed to establish a new connection with %s.", host)
	case FailureHTTP:
		return fmt.Sprintf("Temporarily Offline: Internet Archive services are temporarily offline (%v). "+
			"Please check Internet Archive Twitter feed (https://twitter.com/internetarchive) for the latest information.", err)
	default:
		return err.Error()
	}
}
