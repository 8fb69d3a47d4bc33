// Package httptransport provides the default HTTP implementation of the
// cmis.Transport interface. It handles authentication, JSON decoding, and
// the mapping of CMIS exception bodies onto the cmis package's sentinel
// errors.
package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"github.com/content-forge/gocmis/pkg/cmis"
)

const userAgent = "gocmis"

// Config holds configuration for the transport.
type Config struct {
	// Username and Password enable HTTP basic authentication.
	Username string
	Password string

	// TokenSource enables OAuth2 bearer authentication. Mutually exclusive
	// with Username/Password.
	TokenSource oauth2.TokenSource

	// HTTPClient is the underlying client. Defaults to a client with
	// Timeout applied.
	HTTPClient *http.Client

	// Timeout bounds each request when HTTPClient is nil. Defaults to 60s.
	Timeout time.Duration

	// RetryMaxElapsed, when positive, retries failed GETs with exponential
	// backoff until the overall elapsed time exceeds it. POSTs are never
	// retried: a replayed cmisaction is not idempotent.
	RetryMaxElapsed time.Duration

	// Logger is optional.
	Logger hclog.Logger
}

// Validate checks the config for conflicting fields.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Username, validation.When(c.TokenSource != nil, validation.Empty.Error(
			"basic and bearer authentication are mutually exclusive"))),
	)
}

// Transport is the default cmis.Transport. It is safe for concurrent use.
type Transport struct {
	client   *http.Client
	username string
	password string
	tokens   oauth2.TokenSource
	retryMax time.Duration
	logger   hclog.Logger
}

// New creates a transport from the config.
func New(config Config) (*Transport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}
	client := config.HTTPClient
	if client == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Transport{
		client:   client,
		username: config.Username,
		password: config.Password,
		tokens:   config.TokenSource,
		retryMax: config.RetryMaxElapsed,
		logger:   config.Logger.Named("cmis-transport"),
	}, nil
}

// Get implements cmis.Transport.
func (t *Transport) Get(ctx context.Context, rawURL string, params url.Values) (any, error) {
	var result any
	op := func() error {
		resp, err := t.do(ctx, http.MethodGet, rawURL, params, nil, "")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := checkResponse(resp); err != nil {
			// client errors will not heal on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		result, err = decodeJSON(resp.Body)
		return err
	}
	if t.retryMax > 0 {
		policy := backoff.NewExponentialBackOff()
		policy.MaxElapsedTime = t.retryMax
		if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
			return nil, err
		}
		return result, nil
	}
	if err := op(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetContent implements cmis.Transport. The caller owns the returned body.
func (t *Transport) GetContent(ctx context.Context, rawURL string, params url.Values) (io.ReadCloser, string, error) {
	resp, err := t.do(ctx, http.MethodGet, rawURL, params, nil, "")
	if err != nil {
		return nil, "", err
	}
	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Post implements cmis.Transport. Responses with empty bodies, which some
// servers send for delete actions, decode to nil.
func (t *Transport) Post(ctx context.Context, rawURL string, body io.Reader, contentType string, params url.Values) (any, error) {
	resp, err := t.do(ctx, http.MethodPost, rawURL, params, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return decodeJSON(resp.Body)
}

func (t *Transport) do(ctx context.Context, method, rawURL string, params url.Values, body io.Reader, contentType string) (*http.Response, error) {
	target := rawURL
	if len(params) > 0 {
		sep := "?"
		if u, err := url.Parse(rawURL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		target = rawURL + sep + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if t.tokens != nil {
		token, err := t.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("fetching oauth2 token: %w", err)
		}
		token.SetAuthHeader(req)
	} else if t.username != "" {
		req.SetBasicAuth(t.username, t.password)
	}

	requestID := uuid.New().String()
	t.logger.Debug("issuing request",
		"request_id", requestID, "method", method, "url", rawURL)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	t.logger.Debug("received response",
		"request_id", requestID, "status", resp.StatusCode)
	return resp, nil
}

func decodeJSON(r io.Reader) (any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}
	return result, nil
}

// cmisException is the error body the browser binding sends with non-2xx
// statuses.
type cmisException struct {
	Exception string `json:"exception"`
	Message   string `json:"message"`
}

// checkResponse maps a non-2xx response onto the cmis package's sentinel
// errors. The CMIS exception name in the body takes precedence; the HTTP
// status is the fallback when the body is absent or not JSON.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var exc cmisException
	if err := json.Unmarshal(body, &exc); err == nil && exc.Exception != "" {
		return &cmis.Error{
			Op:  resp.Request.Method + " " + resp.Request.URL.Path,
			Err: sentinelForException(exc.Exception, resp.StatusCode),
			Msg: exc.Exception + ": " + exc.Message,
		}
	}
	return &cmis.Error{
		Op:  resp.Request.Method + " " + resp.Request.URL.Path,
		Err: sentinelForStatus(resp.StatusCode),
		Msg: fmt.Sprintf("server returned %s", resp.Status),
	}
}

func sentinelForException(exception string, status int) error {
	switch exception {
	case "objectNotFound":
		return cmis.ErrObjectNotFound
	case "invalidArgument", "constraint", "contentAlreadyExists", "nameConstraintViolation",
		"versioning", "updateConflict":
		return cmis.ErrInvalidArgument
	case "notSupported":
		return cmis.ErrNotSupported
	case "permissionDenied", "streamNotSupported":
		return cmis.ErrPermissionDenied
	case "runtime", "storage":
		return cmis.ErrRuntime
	}
	return sentinelForStatus(status)
}

func sentinelForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return cmis.ErrObjectNotFound
	case http.StatusBadRequest, http.StatusConflict:
		return cmis.ErrInvalidArgument
	case http.StatusMethodNotAllowed:
		return cmis.ErrNotSupported
	case http.StatusForbidden, http.StatusUnauthorized:
		return cmis.ErrPermissionDenied
	}
	return cmis.ErrRuntime
}
