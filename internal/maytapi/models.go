package maytapi

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// --- Incoming webhook payload ---
// Reference: https://maytapi.com/whatsapp-api-documentation (Webhook > Message)

const (
	EventMessage = "message"
	MessageText  = "text"
)

type WebhookPayload struct {
	Type             string      `json:"type"`
	ProductID        string      `json:"product_id"`
	PhoneID          FlexString  `json:"phone_id"`
	User             User        `json:"user"`
	Message          Message     `json:"message"`
	Conversation     string      `json:"conversation"`
	ConversationName string      `json:"conversation_name"`
	Receiver         string      `json:"receiver"`
	Timestamp        json.Number `json:"timestamp"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Message struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Text   string `json:"text"`
	FromMe bool   `json:"fromMe"`
}

// FlexString accepts both JSON strings and numbers. Maytapi sends phone_id
// as a number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// --- Outgoing send message ---
// Reference: https://maytapi.com/whatsapp-api-documentation (sendMessage)

type SendMessageRequest struct {
	ToNumber string `json:"to_number"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
	Text     string `json:"text,omitempty"`
}

type SendMessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
