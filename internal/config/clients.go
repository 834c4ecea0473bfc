package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrUnknownClient = errors.New("unknown client phone_id")

// Client holds the sheets used for one Maytapi phone_id.
type Client struct {
	ID            string `yaml:"-"`
	SheetID       string `yaml:"sheet_id"`
	PricingSheet  string `yaml:"pricing_sheet"`
	CustomerSheet string `yaml:"customer_sheet"`
	OrderSheet    string `yaml:"order_sheet"`
}

// Clients maps a platform-assigned phone_id to its sheets. It is built once
// at startup and never mutated afterwards.
type Clients struct {
	byID map[string]Client
}

type clientsFile struct {
	Clients map[string]Client `yaml:"clients"`
}

// LoadClients reads the per-client sheet map from a YAML file:
//
//	clients:
//	  "88335":
//	    sheet_id: 1AbC...
//	    pricing_sheet: Product_Pricing
//	    customer_sheet: Customer_Type
//	    order_sheet: Orders
func LoadClients(path string) (Clients, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Clients{}, fmt.Errorf("reading clients file: %w", err)
	}
	return ParseClients(data)
}

func ParseClients(data []byte) (Clients, error) {
	var f clientsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Clients{}, fmt.Errorf("parsing clients file: %w", err)
	}
	if len(f.Clients) == 0 {
		return Clients{}, errors.New("clients file defines no clients")
	}

	byID := make(map[string]Client, len(f.Clients))
	for id, c := range f.Clients {
		c.ID = id
		c = c.withDefaults()
		if c.SheetID == "" {
			return Clients{}, fmt.Errorf("client %s: sheet_id is required", id)
		}
		byID[id] = c
	}
	return Clients{byID: byID}, nil
}

// NewClients builds a Clients value directly, mostly for tests.
func NewClients(cs ...Client) Clients {
	byID := make(map[string]Client, len(cs))
	for _, c := range cs {
		byID[c.ID] = c.withDefaults()
	}
	return Clients{byID: byID}
}

func (c Clients) Lookup(id string) (Client, error) {
	cl, ok := c.byID[id]
	if !ok {
		return Client{}, fmt.Errorf("%w: %q", ErrUnknownClient, id)
	}
	return cl, nil
}

func (c Clients) Len() int { return len(c.byID) }

func (c Client) withDefaults() Client {
	if c.PricingSheet == "" {
		c.PricingSheet = "Product_Pricing"
	}
	if c.CustomerSheet == "" {
		c.CustomerSheet = "Customer_Type"
	}
	if c.OrderSheet == "" {
		c.OrderSheet = "Orders"
	}
	return c
}
