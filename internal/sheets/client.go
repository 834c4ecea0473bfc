// Package sheets reads pricing and customer data from Google Sheets and
// appends quote log rows to the order sheet.
package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/cartonline/quotebot/internal/metrics"
	"github.com/cartonline/quotebot/internal/quote"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Value render options. Pricing cells are read unformatted so currency
// formatting never reaches the price parser. Customer cells are read as
// displayed: a discount entered as 10% is stored as 0.1 and only the
// formatted value reads "10%".
const (
	renderUnformatted = "UNFORMATTED_VALUE"
	renderFormatted   = "FORMATTED_VALUE"
)

// valuesAPI is the subset of the Sheets values API used here.
type valuesAPI interface {
	get(ctx context.Context, sheetID, sheetName, render string) ([][]any, error)
	appendRow(ctx context.Context, sheetID, sheetName string, row []any) error
}

type Client struct {
	api valuesAPI
}

// NewClient authenticates with a service account JSON key.
func NewClient(ctx context.Context, serviceAccountJSON string) (*Client, error) {
	srv, err := gsheets.NewService(ctx,
		option.WithCredentialsJSON([]byte(serviceAccountJSON)),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Client{api: &serviceValues{srv: srv}}, nil
}

// PricingRow returns the pricing row for product+size, or nil when the
// sheet has no such row.
func (c *Client) PricingRow(ctx context.Context, sheetID, sheetName, product, size string) (*quote.PricingRow, error) {
	rows, err := c.read(ctx, "sheets_pricing", sheetID, sheetName, renderUnformatted)
	if err != nil {
		return nil, err
	}
	return findPricingRow(rows, product, size), nil
}

// Customer returns the customer record for phone, or nil when absent.
func (c *Client) Customer(ctx context.Context, sheetID, sheetName, phone string) (*quote.Customer, error) {
	rows, err := c.read(ctx, "sheets_customer", sheetID, sheetName, renderFormatted)
	if err != nil {
		return nil, err
	}
	return findCustomer(rows, phone), nil
}

// Append adds one row to the order sheet.
func (c *Client) Append(ctx context.Context, sheetID, sheetName string, e quote.LogEntry) error {
	start := time.Now()
	err := c.api.appendRow(ctx, sheetID, sheetName, e.Row())
	metrics.ObserveCall("sheets_append", start, err)
	if err != nil {
		return fmt.Errorf("appending to %s: %w", sheetName, err)
	}
	return nil
}

func (c *Client) read(ctx context.Context, call, sheetID, sheetName, render string) ([][]any, error) {
	start := time.Now()
	rows, err := c.api.get(ctx, sheetID, sheetName, render)
	metrics.ObserveCall(call, start, err)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", sheetName, err)
	}
	return rows, nil
}

type serviceValues struct {
	srv *gsheets.Service
}

func (s *serviceValues) get(ctx context.Context, sheetID, sheetName, render string) ([][]any, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(sheetID, sheetName).
		ValueRenderOption(render).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) appendRow(ctx context.Context, sheetID, sheetName string, row []any) error {
	_, err := s.srv.Spreadsheets.Values.Append(sheetID, sheetName, &gsheets.ValueRange{
		Values: [][]any{row},
	}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}
