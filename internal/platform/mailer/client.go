// Package mailer provides the HTTP client for the transactional email API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tasktrack/tasktrack-api/internal/domain"
)

// recipient is one entry in the request's Recipients list.
type recipient struct {
	Email string `json:"Email"`
}

// sendEmailRequest is the JSON body expected by the email API's send
// endpoint.
type sendEmailRequest struct {
	FromEmail  string      `json:"FromEmail"`
	FromName   string      `json:"FromName"`
	Subject    string      `json:"Subject"`
	TextPart   string      `json:"Text-part"`
	HTMLPart   string      `json:"Html-part"`
	Recipients []recipient `json:"Recipients"`
}

// Client sends notification emails through the HTTP email API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	sender     domain.Email
	senderName string
	publicKey  string
	privateKey string
}

// New creates a new Client. The timeout bounds each send attempt end to
// end; a slow email API otherwise extends the delivery worker's row-lock
// hold time.
func New(baseURL string, sender domain.Email, senderName, publicKey, privateKey string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid email base URL: %w", err)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    parsed,
		sender:     sender,
		senderName: senderName,
		publicKey:  publicKey,
		privateKey: privateKey,
	}, nil
}

// Send delivers one email to the given recipient. A non-2xx response from
// the email API is returned as an error.
func (c *Client) Send(ctx context.Context, to domain.Email, subject, htmlBody, textBody string) error {
	endpoint, err := c.baseURL.Parse("v3/send")
	if err != nil {
		return fmt.Errorf("invalid email send path: %w", err)
	}

	body, err := json.Marshal(sendEmailRequest{
		FromEmail:  c.sender.String(),
		FromName:   c.senderName,
		Subject:    subject,
		TextPart:   textBody,
		HTMLPart:   htmlBody,
		Recipients: []recipient{{Email: to.String()}},
	})
	if err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.publicKey, c.privateKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}

	return nil
}
