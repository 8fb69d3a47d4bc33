package cmis

import (
	"context"
	"net/url"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"
)

// Config holds configuration for a Client.
type Config struct {
	// ServiceURL is the browser binding service document URL, e.g.
	// http://localhost:8081/chemistry/browser.
	ServiceURL string

	// Transport issues the HTTP requests. See pkg/cmis/httptransport for
	// the default implementation.
	Transport Transport

	// DefaultParams are session-level query parameters merged beneath the
	// per-call options of every request. Use this for things like a succinct
	// flag or a vendor parameter that should apply to the whole session.
	DefaultParams url.Values

	// Logger is optional.
	Logger hclog.Logger
}

// Validate checks the config for required fields.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServiceURL, validation.Required, is.URL),
		validation.Field(&c.Transport, validation.Required),
	)
}

// Client is the session context shared by every domain object: it knows the
// service URL, the transport, and the session defaults. Domain objects hold
// a non-owning reference to it.
type Client struct {
	serviceURL string
	transport  Transport
	defaults   url.Values
	logger     hclog.Logger
}

// NewClient creates a client for a browser binding endpoint.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}
	defaults := config.DefaultParams
	if defaults == nil {
		defaults = url.Values{}
	}
	return &Client{
		serviceURL: config.ServiceURL,
		transport:  config.Transport,
		defaults:   defaults,
		logger:     config.Logger.Named("cmis-client"),
	}, nil
}

// RepositorySummary is one entry of the service document listing.
type RepositorySummary struct {
	ID   string
	Name string
}

// serviceDocument fetches the service document: a JSON object keyed by
// repository id, one workspace entry per repository.
func (c *Client) serviceDocument(ctx context.Context) (map[string]any, error) {
	result, err := c.transport.Get(ctx, c.serviceURL, applyOptions(c.defaults, nil))
	if err != nil {
		return nil, err
	}
	doc, ok := result.(map[string]any)
	if !ok {
		return nil, opError("GetRepositories", ErrInvariant, "service document is not a JSON object")
	}
	return doc, nil
}

// Repositories lists the repositories the endpoint serves.
func (c *Client) Repositories(ctx context.Context) ([]RepositorySummary, error) {
	doc, err := c.serviceDocument(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]RepositorySummary, 0, len(doc))
	for _, entry := range doc {
		workspace, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		summaries = append(summaries, RepositorySummary{
			ID:   stringField(workspace, "repositoryId"),
			Name: stringField(workspace, "repositoryName"),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

// Repository returns the repository with the given id.
func (c *Client) Repository(ctx context.Context, repositoryID string) (*Repository, error) {
	doc, err := c.serviceDocument(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := doc[repositoryID].(map[string]any)
	if !ok {
		return nil, opError("GetRepository", ErrObjectNotFound, "repository "+repositoryID)
	}
	return newRepository(c, entry), nil
}

// DefaultRepository returns the first repository in the service document.
// CMIS has no notion of a default; this mirrors picking the first workspace
// entry, made deterministic by sorting ids.
func (c *Client) DefaultRepository(ctx context.Context) (*Repository, error) {
	doc, err := c.serviceDocument(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, opError("GetDefaultRepository", ErrObjectNotFound, "service document lists no repositories")
	}
	sort.Strings(ids)
	entry, ok := doc[ids[0]].(map[string]any)
	if !ok {
		return nil, opError("GetDefaultRepository", ErrInvariant, "workspace entry is not a JSON object")
	}
	return newRepository(c, entry), nil
}

// get issues a GET through the transport with session defaults applied.
func (c *Client) get(ctx context.Context, rawURL string, opts []RequestOption) (any, error) {
	return c.transport.Get(ctx, rawURL, applyOptions(c.defaults, opts))
}

// post encodes the form and issues a POST through the transport.
func (c *Client) post(ctx context.Context, rawURL string, form *formBuilder) (any, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, err
	}
	return c.transport.Post(ctx, rawURL, body, contentType, nil)
}

// stringField reads a string member of a raw JSON object, returning "" when
// absent or of another type.
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
