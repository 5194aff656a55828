package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"styx/internal/domain"
)

// Client talks JSON over HTTP to a styx relay.
type Client struct {
	Base string
	HTTP *http.Client
}

// New returns a Client for the relay at base.
func New(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{Base: base, HTTP: httpClient}
}

// Register publishes a prekey bundle.
func (c *Client) Register(ctx context.Context, b domain.PrekeyBundle) error {
	return c.post(ctx, "/register", b, nil)
}

// FetchPrekeyBundle fetches a peer's bundle. The relay pops one one-time
// prekey out of the stored bundle per fetch, so each is served at most once.
func (c *Client) FetchPrekeyBundle(ctx context.Context, username string) (domain.PrekeyBundle, error) {
	var out domain.PrekeyBundle
	if err := c.get(ctx, "/prekey/"+url.PathEscape(username), &out); err != nil {
		return domain.PrekeyBundle{}, err
	}
	return out, nil
}

// SendMessage queues an envelope for its recipient.
func (c *Client) SendMessage(ctx context.Context, env domain.Envelope) error {
	return c.post(ctx, "/msg/"+url.PathEscape(env.To), env, nil)
}

// FetchMessages returns queued envelopes for username without removing
// them; call AckMessages once they are processed.
func (c *Client) FetchMessages(ctx context.Context, username string, limit int) ([]domain.Envelope, error) {
	path := "/msg/" + url.PathEscape(username)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var envs []domain.Envelope
	if err := c.get(ctx, path, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

// AckMessages removes the first count queued envelopes for username.
func (c *Client) AckMessages(ctx context.Context, username string, count int) error {
	return c.post(ctx, "/msg/"+url.PathEscape(username)+"/ack", struct {
		Count int `json:"count"`
	}{Count: count}, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay %s %s: %s", req.Method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Compile-time assertion that Client implements domain.RelayClient.
var _ domain.RelayClient = (*Client)(nil)
