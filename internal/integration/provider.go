// Package integration talks to the external service that provisions
// resources.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Rrens/teamhub/internal/config"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/security"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// AuthMethod selects how requests to the service are authenticated
type AuthMethod string

const (
	AuthJWT      AuthMethod = "JWT"
	AuthPassword AuthMethod = "PASSWORD"
	AuthAPIKey   AuthMethod = "API_KEY"
	AuthSSHKey   AuthMethod = "SSH_KEY"
)

var (
	// ErrAuth is returned when the service rejects our credentials
	ErrAuth = errors.New("service authentication failed")
	// ErrAuthMethodNotSupported is returned for methods with no login flow
	ErrAuthMethodNotSupported = errors.New("auth method not supported")
)

// tokenLeeway is how close to expiry a JWT is refreshed
const tokenLeeway = 30 * time.Second

// ServiceProvider describes a backing service
type ServiceProvider struct {
	Host        string
	AuthURL     string
	AuthType    AuthMethod
	Credentials map[string]string
	Options     map[string]string
}

// FromConfig builds a provider from the integration settings
func FromConfig(cfg config.IntegrationConfig) ServiceProvider {
	return ServiceProvider{
		Host:        strings.TrimRight(cfg.Host, "/"),
		AuthURL:     cfg.AuthURL,
		AuthType:    AuthMethod(strings.ToUpper(cfg.AuthType)),
		Credentials: cfg.Credentials,
		Options:     cfg.Options,
	}
}

// Credential looks a credential up ignoring case, since config keys arrive
// lowercased
func (p ServiceProvider) Credential(name string) string {
	if v, ok := p.Credentials[name]; ok {
		return v
	}
	for k, v := range p.Credentials {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Client calls the service on behalf of the resource executor
type Client struct {
	provider ServiceProvider
	client   *http.Client
	clock    clockwork.Clock

	mu    sync.Mutex
	token string
}

// NewClient creates a client for provider
func NewClient(provider ServiceProvider, timeout time.Duration, clock clockwork.Clock) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		provider: provider,
		client:   &http.Client{Timeout: timeout},
		clock:    clock,
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login authenticates against the service. API keys need no login.
func (c *Client) Login(ctx context.Context) error {
	switch c.provider.AuthType {
	case AuthJWT:
		return c.loginJWT(ctx)
	case AuthAPIKey:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrAuthMethodNotSupported, c.provider.AuthType)
	}
}

func (c *Client) loginJWT(ctx context.Context) error {
	body, err := json.Marshal(c.provider.Credentials)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.provider.AuthURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	setJSONHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}

	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()

	log.Debug().Str("host", c.provider.Host).Msg("logged in to service")
	return nil
}

// authorize sets the Authorization header, logging in first when the JWT is
// missing or about to expire
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	switch c.provider.AuthType {
	case AuthAPIKey:
		req.Header.Set("Authorization", "Api-Key "+c.provider.Credential("API_KEY"))
		return nil
	case AuthJWT:
		c.mu.Lock()
		token := c.token
		c.mu.Unlock()

		if token == "" || security.JWTExpired(token, c.clock.Now(), tokenLeeway) {
			if err := c.loginJWT(ctx); err != nil {
				return err
			}
			c.mu.Lock()
			token = c.token
			c.mu.Unlock()
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrAuthMethodNotSupported, c.provider.AuthType)
	}
}

func setJSONHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// do sends payload to path and decodes a JSON reply into out when out is set
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.provider.Host+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	setJSONHeaders(req)
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("service returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

type resourcePayload struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Team        string `json:"team"`
}

func payloadFor(res *domain.Resource) resourcePayload {
	return resourcePayload{
		UUID:        res.UUID.String(),
		Name:        res.Name,
		Description: res.Description,
		Kind:        res.Kind,
		Team:        res.TeamUUID.String(),
	}
}

type createResponse struct {
	ID string `json:"id"`
}

// Create provisions res and returns the service's id for it
func (c *Client) Create(ctx context.Context, res *domain.Resource) (string, error) {
	var out createResponse
	if err := c.do(ctx, http.MethodPost, "/resources", payloadFor(res), &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("service returned no resource id")
	}
	return out.ID, nil
}

func (c *Client) Update(ctx context.Context, res *domain.Resource) error {
	return c.do(ctx, http.MethodPatch, "/resources/"+res.BackendID, payloadFor(res), nil)
}

func (c *Client) Delete(ctx context.Context, res *domain.Resource) error {
	return c.do(ctx, http.MethodDelete, "/resources/"+res.BackendID, nil, nil)
}
