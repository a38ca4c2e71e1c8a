// Package notify sends WhatsApp template messages through the external
// messaging gateway.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	otpTemplate    = "send_otp_message"
	absentTemplate = "send_absent_message"
)

// Client calls the WhatsApp gateway. When Skip is set (no gateway configured)
// sends succeed without network calls, which keeps dev setups working.
type Client struct {
	APIURL string
	Token  string
	Skip   bool
	HTTP   *http.Client
}

// New creates a gateway client. Skip is enabled when apiURL is empty.
func New(apiURL, token string) *Client {
	return &Client{
		APIURL: apiURL,
		Token:  token,
		Skip:   apiURL == "",
		HTTP:   &http.Client{Timeout: 15 * time.Second},
	}
}

type component struct {
	Type       string      `json:"type"`
	SubType    string      `json:"sub_type,omitempty"`
	Index      *int        `json:"index,omitempty"`
	Parameters []parameter `json:"parameters"`
}

type parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templateMessage struct {
	To            string `json:"to"`
	RecipientType string `json:"recipient_type"`
	Type          string `json:"type"`
	Template      struct {
		Name     string `json:"name"`
		Language struct {
			Policy string `json:"policy"`
			Code   string `json:"code"`
		} `json:"language"`
		Components []component `json:"components"`
	} `json:"template"`
}

func newTemplateMessage(to, name string, components []component) templateMessage {
	var msg templateMessage
	msg.To = to
	msg.RecipientType = "individual"
	msg.Type = "template"
	msg.Template.Name = name
	msg.Template.Language.Policy = "deterministic"
	msg.Template.Language.Code = "en"
	msg.Template.Components = components
	return msg
}

// SendOTP delivers a one-time password, in the message body and as the
// copy-code button parameter.
func (c *Client) SendOTP(ctx context.Context, receiver, code string) error {
	if receiver == "" || code == "" {
		return fmt.Errorf("receiver and otp are required")
	}
	zero := 0
	msg := newTemplateMessage(receiver, otpTemplate, []component{
		{Type: "body", Parameters: []parameter{{Type: "text", Text: code}}},
		{Type: "button", SubType: "url", Index: &zero, Parameters: []parameter{{Type: "text", Text: code}}},
	})
	return c.send(ctx, msg)
}

// SendAbsentNotice tells a guardian that studentName was absent on the given
// DD/MM/YYYY date.
func (c *Client) SendAbsentNotice(ctx context.Context, receiver, studentName, date string) error {
	if receiver == "" {
		return fmt.Errorf("no contact number for %s", studentName)
	}
	msg := newTemplateMessage(receiver, absentTemplate, []component{
		{Type: "body", Parameters: []parameter{
			{Type: "text", Text: studentName},
			{Type: "text", Text: date},
		}},
	})
	return c.send(ctx, msg)
}

func (c *Client) send(ctx context.Context, msg templateMessage) error {
	if c.Skip {
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp gateway error %s: %s", resp.Status, string(respBody))
	}
	return nil
}
