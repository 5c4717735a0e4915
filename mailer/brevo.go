package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultEndpoint = "https://api.brevo.com/v3/smtp/email"

// Client delivers lifecycle emails through the Brevo transactional API.
type Client struct {
	apiKey    string
	endpoint  string
	fromName  string
	fromEmail string
	siteName  string
	http      *http.Client
}

type ClientOption func(*Client)

func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

// NewClient builds a Brevo backed mailer. The sender identity goes on every
// outgoing message.
func NewClient(apiKey, fromName, fromEmail, siteName string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:    apiKey,
		endpoint:  defaultEndpoint,
		fromName:  fromName,
		fromEmail: fromEmail,
		siteName:  siteName,
		http:      &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) SendVerificationEmail(ctx context.Context, to, name, link string) error {
	email := BuildVerificationEmail(VerificationEmailData{
		SiteName:  c.siteName,
		Name:      name,
		Link:      link,
		ExpiresIn: "24 hours",
	})
	email.To = to
	email.ToName = name

	return c.send(ctx, email)
}

func (c *Client) SendPasswordResetEmail(ctx context.Context, to, name, link string) error {
	email := BuildPasswordResetEmail(PasswordResetEmailData{
		SiteName:  c.siteName,
		Name:      name,
		Link:      link,
		ExpiresIn: "60 minutes",
	})
	email.To = to
	email.ToName = name

	return c.send(ctx, email)
}

type brevoParty struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoMessage struct {
	Sender      brevoParty   `json:"sender"`
	To          []brevoParty `json:"to"`
	Subject     string       `json:"subject"`
	HTMLContent string       `json:"htmlContent"`
	TextContent string       `json:"textContent,omitempty"`
}

func (c *Client) send(ctx context.Context, email Email) error {
	payload := brevoMessage{
		Sender:      brevoParty{Name: c.fromName, Email: c.fromEmail},
		To:          []brevoParty{{Name: email.ToName, Email: email.To}},
		Subject:     email.Subject,
		HTMLContent: email.HTMLBody,
		TextContent: email.TextBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mailer: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailer: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: deliver to %s: %w", email.To, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return fmt.Errorf("mailer: provider returned %d: %s", res.StatusCode, detail)
	}

	return nil
}
