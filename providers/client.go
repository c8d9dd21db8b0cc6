package providers

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// userAgentTransport fügt jeder Anfrage einen User-Agent-Header hinzu.
type userAgentTransport struct {
	userAgent string
	transport http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// Client ist der gemeinsame HTTP-Zugang aller Provider: feste Timeouts,
// User-Agent und ein Rate-Limit pro Provider.
type Client struct {
	HTTP    *http.Client
	Limiter *rate.Limiter
}

// NewClient erstellt einen Client mit perSecond Anfragen pro Sekunde. Ein Wert
// <= 0 schaltet das Limit ab.
func NewClient(userAgent string, perSecond float64, timeout time.Duration) *Client {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &userAgentTransport{
				userAgent: userAgent,
				transport: http.DefaultTransport,
			},
		},
		Limiter: rate.NewLimiter(limit, 1),
	}
}

// GetJSON ruft url ab und dekodiert die Antwort nach v. Ein 404 wird zu ErrNotFound.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	return c.get(ctx, url, "application/json", func(r io.Reader) error {
		return json.NewDecoder(r).Decode(v)
	})
}

// GetXML wie GetJSON, nur für XML-Antworten.
func (c *Client) GetXML(ctx context.Context, url string, v any) error {
	return c.get(ctx, url, "application/xml", func(r io.Reader) error {
		return xml.NewDecoder(r).Decode(v)
	})
}

func (c *Client) get(ctx context.Context, url, accept string, decode func(io.Reader) error) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", accept)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, body)
	}

	if err := decode(resp.Body); err != nil {
		return fmt.Errorf("antwort nicht lesbar: %w", err)
	}
	return nil
}
