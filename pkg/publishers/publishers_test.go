package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
  - id: audit
    type: sns
    sns:
      topic_arn: " arn:aws:sns:us-east-1:1:flows "
      region: us-east-1
      access_key_id: AKID
      secret_access_key: secret
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "http2" || enabled[1].ID != "audit" {
		t.Fatalf("expected http2 and audit enabled, got %#v", enabled)
	}
	audit, ok := reg.ByID("audit")
	if !ok {
		t.Fatalf("audit publisher missing")
	}
	if audit.SNS.TopicARN != "arn:aws:sns:us-east-1:1:flows" || audit.SNS.AccessKeyID != "AKID" {
		t.Fatalf("sns config not sanitized/inlined: %#v", audit.SNS)
	}
	if http2, _ := reg.ByID("http2"); http2.HTTP.Method != "POST" || http2.HTTP.TimeoutSeconds != 5 {
		t.Fatalf("http defaults not applied: %#v", http2.HTTP)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers":[{"id":"gcp","type":"pubsub","pubsub":{"project_id":"p","topic":"t"}}]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if cfg, ok := reg.ByID("gcp"); !ok || cfg.PubSub.Topic != "t" {
		t.Fatalf("unexpected config %#v", cfg)
	}
}

func TestValidatePublisherConfigRejectsMissingBlocks(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "h1", Type: TypeHTTP},
		{ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "u"}},
		{ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "us-east-1"}},
		{ID: "p1", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "p"}},
		{Type: TypeHTTP},
	}
	for _, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("expected validation error for %#v", cfg)
		}
	}
}
