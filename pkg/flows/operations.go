package flows

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/samvad-hq/samvad-flows/pkg/httpclient"
)

const (
	// flowCategories is sent as a JSON-encoded string, not an array.
	flowCategories = `["OTHER"]`

	fieldsParam   = "fields"
	previewFields = "preview.invalidate(false)"
	pathFlows     = "flows"
	pathAssets    = "assets"
	pathPublish   = "publish"
	pathDeprecate = "deprecate"
	pathMessages  = "messages"
)

// DetailFields is the field selection GetFlowDetails asks for.
var DetailFields = []string{
	"id",
	"name",
	"categories",
	"preview",
	"status",
	"validation_errors",
	"json_version",
	"data_api_version",
	"endpoint_uri",
	"whatsapp_business_account",
	"application",
	"health_status",
}

type createFlowBody struct {
	Name       string `json:"name"`
	Categories string `json:"categories"`
}

type renameFlowBody struct {
	Name string `json:"name"`
}

// CreateFlow creates a draft flow under the business account.
func (m *Manager) CreateFlow(ctx context.Context, name string) (CreateFlowResult, error) {
	resp, err := m.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     m.endpoint(m.accountID, pathFlows),
		Headers: m.AuthHeaders(),
		JSON:    createFlowBody{Name: name, Categories: flowCategories},
	})
	if err != nil {
		return CreateFlowResult{}, err
	}

	res := CreateFlowResult{FlowID: extractID(resp.Body), Response: resp}
	if !res.Created() {
		m.log.WarnObj("create flow returned no id", "create_flow", map[string]any{
			"name":        name,
			"status_code": resp.StatusCode,
		})
	}
	return res, nil
}

// PublishFlow publishes a draft flow. Published flows become immutable.
func (m *Manager) PublishFlow(ctx context.Context, flowID string) (*Response, error) {
	return m.post(ctx, m.endpoint(flowID, pathPublish))
}

// DeprecateFlow marks a published flow as deprecated.
func (m *Manager) DeprecateFlow(ctx context.Context, flowID string) (*Response, error) {
	return m.post(ctx, m.endpoint(flowID, pathDeprecate))
}

// UpdateFlow renames a flow.
func (m *Manager) UpdateFlow(ctx context.Context, flowID, newName string) (*Response, error) {
	return m.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     m.endpoint(flowID),
		Headers: m.AuthHeaders(),
		JSON:    renameFlowBody{Name: newName},
	})
}

// DeleteFlow deletes a draft flow.
func (m *Manager) DeleteFlow(ctx context.Context, flowID string) (*Response, error) {
	return m.do(ctx, httpclient.Request{
		Method:  http.MethodDelete,
		URL:     m.endpoint(flowID),
		Headers: m.AuthHeaders(),
	})
}

// ListFlows lists the flows of the business account.
func (m *Manager) ListFlows(ctx context.Context) (*Response, error) {
	return m.get(ctx, m.endpoint(m.accountID, pathFlows), nil)
}

// GetFlowDetails fetches a flow with the DetailFields selection.
func (m *Manager) GetFlowDetails(ctx context.Context, flowID string) (*Response, error) {
	q := url.Values{fieldsParam: {strings.Join(DetailFields, ",")}}
	return m.get(ctx, m.endpoint(flowID), q)
}

// GetFlowAssets lists the assets attached to a flow.
func (m *Manager) GetFlowAssets(ctx context.Context, flowID string) (*Response, error) {
	return m.get(ctx, m.endpoint(flowID, pathAssets), nil)
}

// SimulateFlow requests a preview link for the flow without invalidating the
// previous one.
func (m *Manager) SimulateFlow(ctx context.Context, flowID string) (*Response, error) {
	q := url.Values{fieldsParam: {previewFields}}
	return m.get(ctx, m.endpoint(flowID), q)
}

func (m *Manager) post(ctx context.Context, endpoint string) (*Response, error) {
	return m.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     endpoint,
		Headers: m.AuthHeaders(),
	})
}

func (m *Manager) get(ctx context.Context, endpoint string, q url.Values) (*Response, error) {
	return m.do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		URL:     endpoint,
		Headers: m.AuthHeaders(),
		Query:   q,
	})
}
