package authstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/google/uuid"
)

// Client talks to the hosted store's REST surface: the auth endpoints
// under /auth/v1 and the policy-checked table reads and RPCs under
// /rest/v1. One Client is bound to one principal's token pair.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string

	events chan AuthEvent
}

var _ Store = (*Client)(nil)

func NewClient(baseURL, anonKey, accessToken, refreshToken string) *Client {
	return &Client{
		baseURL:      baseURL,
		anonKey:      anonKey,
		http:         &http.Client{Timeout: 10 * time.Second},
		accessToken:  accessToken,
		refreshToken: refreshToken,
		events:       make(chan AuthEvent, 8),
	}
}

func (c *Client) AuthEvents() <-chan AuthEvent {
	return c.events
}

// Emit publishes an auth-state notification to subscribers. Drops the
// event if no consumer is keeping up; notifications are advisory.
func (c *Client) Emit(ev AuthEvent) {
	select {
	case c.events <- ev:
	default:
	}
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	access, refresh := c.accessToken, c.refreshToken
	c.mu.Unlock()

	if access == "" {
		return nil, nil
	}

	identity, err := c.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, nil
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *identity,
	}, nil
}

func (c *Client) GetUser(ctx context.Context) (*Identity, error) {
	var identity Identity
	err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, &identity)
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	if identity.ID == uuid.Nil {
		return nil, nil
	}
	return &identity, nil
}

func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()

	if refresh == "" {
		return nil, &Error{Status: http.StatusUnauthorized, Message: "no refresh token held"}
	}

	body := map[string]string{"refresh_token": refresh}
	var session Session
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", nil, body, &session)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.accessToken = session.AccessToken
	c.refreshToken = session.RefreshToken
	c.mu.Unlock()

	c.Emit(AuthEvent{Kind: EventTokenRefreshed, Session: &session})
	return &session, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)

	c.mu.Lock()
	c.accessToken = ""
	c.refreshToken = ""
	c.mu.Unlock()

	c.Emit(AuthEvent{Kind: EventSignedOut})
	return err
}

func (c *Client) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var rows []models.Profile
	path := "/rest/v1/profiles?select=*&id=eq." + userID.String()
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &Error{Code: CodeNoRows, Status: http.StatusNotAcceptable, Message: "profile row not found"}
	}
	return &rows[0], nil
}

func (c *Client) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	headers := map[string]string{"Prefer": "resolution=merge-duplicates"}
	return c.do(ctx, http.MethodPost, "/rest/v1/profiles", headers, profile, nil)
}

func (c *Client) InsertProfile(ctx context.Context, profile *models.Profile) error {
	return c.do(ctx, http.MethodPost, "/rest/v1/profiles", nil, profile, nil)
}

func (c *Client) InsertPricingConfig(ctx context.Context, cfg *models.PricingConfig) error {
	return c.do(ctx, http.MethodPost, "/rest/v1/pricing_configs", nil, cfg, nil)
}

func (c *Client) UpsertPricingConfig(ctx context.Context, cfg *models.PricingConfig) error {
	headers := map[string]string{"Prefer": "resolution=merge-duplicates"}
	return c.do(ctx, http.MethodPost, "/rest/v1/pricing_configs", headers, cfg, nil)
}

func (c *Client) GetProfileBypass(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	body := map[string]string{"p_user_id": userID.String()}
	var rows []models.Profile
	if err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/get_user_profile_bypass", nil, body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &Error{Code: CodeNoRows, Status: http.StatusNotAcceptable, Message: "bypass returned no profile"}
	}
	return &rows[0], nil
}

func (c *Client) GetPricingConfigBypass(ctx context.Context, userID uuid.UUID) (*models.PricingConfig, error) {
	body := map[string]string{"p_user_id": userID.String()}
	var rows []models.PricingConfig
	if err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/get_user_pricing_config_bypass", nil, body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &Error{Code: CodeNoRows, Status: http.StatusNotAcceptable, Message: "bypass returned no pricing config"}
	}
	return &rows[0], nil
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return &Error{Status: http.StatusServiceUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: "read response: " + err.Error()}
	}

	if resp.StatusCode >= 400 {
		return parseError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// parseError maps the store's error envelope ({"code": ..., "message":
// ...}) onto the typed taxonomy.
func parseError(status int, body []byte) error {
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	_ = json.Unmarshal(body, &envelope)

	message := envelope.Message
	if message == "" {
		message = envelope.Msg
	}
	if message == "" {
		message = http.StatusText(status)
	}

	return &Error{Code: envelope.Code, Status: status, Message: message}
}
