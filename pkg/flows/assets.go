package flows

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/samvad-hq/samvad-flows/pkg/httpclient"
)

const (
	assetTypeFlowJSON = "FLOW_JSON"
	// flowJSONAssetName is the asset name Graph expects when replacing a flow definition.
	flowJSONAssetName = "flow.json"
)

// UploadFlowJSON attaches the flow definition at path to the flow. The asset
// is named after the file's base name.
func (m *Manager) UploadFlowJSON(ctx context.Context, flowID, path string) (*Response, error) {
	return m.postAsset(ctx, flowID, path, filepath.Base(path))
}

// UpdateFlowJSON overwrites the flow definition with the file at path.
func (m *Manager) UpdateFlowJSON(ctx context.Context, flowID, path string) (*Response, error) {
	return m.postAsset(ctx, flowID, path, flowJSONAssetName)
}

// postAsset streams the file as a multipart FLOW_JSON asset. The file is
// closed on every return path.
func (m *Manager) postAsset(ctx context.Context, flowID, path, assetName string) (*Response, error) {
	f, err := m.openFile(path)
	if err != nil {
		return nil, fmt.Errorf("open flow json: %w", err)
	}
	defer f.Close()

	return m.do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     m.endpoint(flowID, pathAssets),
		Headers: m.AuthHeaders(),
		Form: map[string]string{
			"name":       assetName,
			"asset_type": assetTypeFlowJSON,
		},
		Files: []httpclient.File{{
			Param:       "file",
			FileName:    filepath.Base(path),
			ContentType: contentTypeJSON,
			Reader:      f,
		}},
	})
}
