package maytapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cartonline/quotebot/internal/metrics"
)

const defaultBaseURL = "https://api.maytapi.com/api"

type Client struct {
	baseURL   string
	productID string
	phoneID   string
	apiKey    string
	http      *http.Client
}

func NewClient(productID, phoneID, apiKey string) *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		productID: productID,
		phoneID:   phoneID,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// WithBaseURL points the client at another API host (tests, proxies).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, "maytapi_send_text", SendMessageRequest{
		ToNumber: to,
		Type:     "text",
		Message:  body,
	})
}

// SendDocument sends a file inline as a base64 data URI.
func (c *Client) SendDocument(ctx context.Context, to, filename, mimeType string, data []byte, caption string) error {
	uri := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return c.send(ctx, "maytapi_send_document", SendMessageRequest{
		ToNumber: to,
		Type:     "media",
		Message:  uri,
		Filename: filename,
		Text:     caption,
	})
}

func (c *Client) send(ctx context.Context, call string, msg SendMessageRequest) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveCall(call, start, err) }()

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/sendMessage", c.baseURL, c.productID, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("x-maytapi-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("maytapi API status %d: %s", resp.StatusCode, respBody)
	}

	// Maytapi reports some failures with a 200 and success=false.
	var out SendMessageResponse
	if err := json.Unmarshal(respBody, &out); err == nil && !out.Success {
		return fmt.Errorf("maytapi API rejected message: %s", out.Message)
	}
	return nil
}
