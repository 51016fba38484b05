package flows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/samvad-flows/pkg/httpclient"
)

// Mode selects which version of a flow a message opens.
type Mode string

const (
	// ModePublished opens the published version; the mode key is omitted.
	ModePublished Mode = ""
	// ModeDraft opens the current draft, for testing unpublished flows.
	ModeDraft Mode = "draft"

	messagingProduct    = "whatsapp"
	recipientIndividual = "individual"
	messageTypeInteract = "interactive"
	interactiveTypeFlow = "flow"
	headerTypeText      = "text"
	actionNameFlow      = "flow"
	flowMessageVersion  = "3"
	flowActionNavigate  = "navigate"
)

// ErrMissingField is wrapped by every SendRequest validation failure.
var ErrMissingField = errors.New("missing required field")

// MissingFieldError names the SendRequest field that was left empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("send flow: %s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// SendRequest is everything a flow message needs. Fields are sent as given.
type SendRequest struct {
	FlowID      string
	HeaderText  string
	BodyText    string
	FooterText  string
	ButtonText  string
	FirstScreen string
	Recipient   string
}

// Validate reports the first empty field. FlowID is checked for presence only.
// The send operations never call it; callers that want a local check before
// posting do so themselves.
func (r SendRequest) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"flow_id", r.FlowID},
		{"header_text", r.HeaderText},
		{"body_text", r.BodyText},
		{"footer_text", r.FooterText},
		{"button_text", r.ButtonText},
		{"first_screen", r.FirstScreen},
		{"recipient", r.Recipient},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &MissingFieldError{Field: f.name}
		}
	}
	return nil
}

// Message is the interactive flow message posted to /{phone-number-id}/messages.
type Message struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Interactive      Interactive `json:"interactive"`
}

// Interactive is the flow call-to-action shown before the flow opens.
type Interactive struct {
	Type   string      `json:"type"`
	Header TextHeader  `json:"header"`
	Body   TextContent `json:"body"`
	Footer TextContent `json:"footer"`
	Action FlowAction  `json:"action"`
}

type TextHeader struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type TextContent struct {
	Text string `json:"text"`
}

type FlowAction struct {
	Name       string         `json:"name"`
	Parameters FlowParameters `json:"parameters"`
}

// FlowParameters identifies the flow and the screen it opens on.
type FlowParameters struct {
	FlowMessageVersion string            `json:"flow_message_version"`
	FlowToken          string            `json:"flow_token"`
	FlowID             string            `json:"flow_id"`
	FlowCTA            string            `json:"flow_cta"`
	FlowAction         string            `json:"flow_action"`
	Mode               Mode              `json:"mode,omitempty"`
	FlowActionPayload  FlowActionPayload `json:"flow_action_payload"`
}

type FlowActionPayload struct {
	Screen string `json:"screen"`
}

// BuildMessage assembles the message payload for req.
func BuildMessage(req SendRequest, flowToken string, mode Mode) Message {
	return Message{
		MessagingProduct: messagingProduct,
		RecipientType:    recipientIndividual,
		To:               req.Recipient,
		Type:             messageTypeInteract,
		Interactive: Interactive{
			Type:   interactiveTypeFlow,
			Header: TextHeader{Type: headerTypeText, Text: req.HeaderText},
			Body:   TextContent{Text: req.BodyText},
			Footer: TextContent{Text: req.FooterText},
			Action: FlowAction{
				Name: actionNameFlow,
				Parameters: FlowParameters{
					FlowMessageVersion: flowMessageVersion,
					FlowToken:          flowToken,
					FlowID:             req.FlowID,
					FlowCTA:            req.ButtonText,
					FlowAction:         flowActionNavigate,
					Mode:               mode,
					FlowActionPayload:  FlowActionPayload{Screen: req.FirstScreen},
				},
			},
		},
	}
}

// SendPublishedFlow sends the published version of a flow to the recipient.
func (m *Manager) SendPublishedFlow(ctx context.Context, req SendRequest) (SendResult, error) {
	return m.SendFlow(ctx, req, ModePublished)
}

// SendUnpublishedFlow sends the draft version of a flow to the recipient.
func (m *Manager) SendUnpublishedFlow(ctx context.Context, req SendRequest) (SendResult, error) {
	return m.SendFlow(ctx, req, ModeDraft)
}

// SendFlow mints a fresh flow token and posts the flow message. The token is
// returned even when the call fails so callers can log it.
func (m *Manager) SendFlow(ctx context.Context, req SendRequest, mode Mode) (SendResult, error) {
	token := m.newToken()
	resp, err := m.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     m.endpoint(m.phoneNumberID, pathMessages),
		Headers: m.MessagingHeaders(),
		JSON:    BuildMessage(req, token, mode),
	})
	if err != nil {
		return SendResult{FlowToken: token}, err
	}

	m.log.InfoObj("flow message sent", "flow_send", map[string]any{
		"flow_id":     req.FlowID,
		"flow_token":  token,
		"mode":        string(mode),
		"status_code": resp.StatusCode,
	})
	return SendResult{FlowToken: token, Response: resp}, nil
}
