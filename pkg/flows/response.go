package flows

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/samvad-hq/samvad-flows/pkg/httpclient"
	"github.com/tidwall/gjson"
)

// Response is the untouched result of one Graph call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func newResponse(resp httpclient.Response) *Response {
	if resp == nil {
		return &Response{}
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return fmt.Errorf("response body is empty")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// APIError extracts the Graph error envelope, or nil when the body carries none.
func (r *Response) APIError() *APIError {
	if r == nil || !gjson.ValidBytes(r.Body) {
		return nil
	}
	env := gjson.GetBytes(r.Body, "error")
	if !env.IsObject() {
		return nil
	}
	return &APIError{
		StatusCode: r.StatusCode,
		Message:    env.Get("message").String(),
		Type:       env.Get("type").String(),
		Code:       int(env.Get("code").Int()),
		Subcode:    int(env.Get("error_subcode").Int()),
		TraceID:    env.Get("fbtrace_id").String(),
	}
}

// Err returns nil for 2xx responses, the parsed APIError when present, and a
// generic status error otherwise.
func (r *Response) Err() error {
	if r.IsSuccess() {
		return nil
	}
	if apiErr := r.APIError(); apiErr != nil {
		return apiErr
	}
	if r == nil {
		return fmt.Errorf("graph api: no response")
	}
	return fmt.Errorf("graph api: unexpected status %d", r.StatusCode)
}

// APIError is the error object the Graph API returns on failed calls.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       int
	Subcode    int
	TraceID    string
}

func (e *APIError) Error() string {
	if e.Subcode != 0 {
		return fmt.Sprintf("graph api %d (%s code=%d subcode=%d): %s", e.StatusCode, e.Type, e.Code, e.Subcode, e.Message)
	}
	return fmt.Sprintf("graph api %d (%s code=%d): %s", e.StatusCode, e.Type, e.Code, e.Message)
}

// CreateFlowResult carries the new flow id together with the raw response.
// FlowID is empty whenever the body has no id field, which covers both error
// responses and malformed successes; Response tells them apart.
type CreateFlowResult struct {
	FlowID   string
	Response *Response
}

// Created reports whether an id was returned.
func (r CreateFlowResult) Created() bool { return r.FlowID != "" }

// SendResult carries the flow token minted for a send and the raw response.
type SendResult struct {
	FlowToken string
	Response  *Response
}

func extractID(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	id := gjson.GetBytes(body, "id")
	if !id.Exists() || id.Type == gjson.Null {
		return ""
	}
	return id.String()
}
