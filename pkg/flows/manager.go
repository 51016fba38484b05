package flows

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/samvad-flows/pkg/httpclient"
)

const (
	// DefaultBaseURL is the Graph API root every endpoint hangs off.
	DefaultBaseURL = "https://graph.facebook.com/v20.0"
	// DefaultTimeout bounds a single Graph call when no client is injected.
	DefaultTimeout = 30 * time.Second

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	contentTypeJSON     = "application/json"
)

// Option customises a Manager at construction time.
type Option func(*Manager)

// WithBaseURL points the manager at a different Graph API root. Useful for tests.
func WithBaseURL(baseURL string) Option {
	return func(m *Manager) {
		if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
			m.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the transport used to talk to the Graph API.
func WithHTTPClient(client httpclient.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.client = client
		}
	}
}

// WithTimeout sets the per-call timeout of the default transport. It has no
// effect when WithHTTPClient is also given.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log Logger) Option {
	return func(m *Manager) {
		m.log = ensureLogger(log)
	}
}

// WithTokenGenerator overrides how flow tokens are minted for send calls.
func WithTokenGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newToken = gen
		}
	}
}

// Manager exposes one method per Flows endpoint. It holds only immutable
// configuration and is safe for concurrent use.
type Manager struct {
	accessToken   string
	accountID     string
	phoneNumberID string
	baseURL       string
	timeout       time.Duration

	authHeaders      map[string]string
	messagingHeaders map[string]string

	client   httpclient.Client
	newToken func() string
	openFile func(path string) (io.ReadCloser, error)
	log      Logger
}

// NewManager builds a Manager for the given WhatsApp Business credentials.
// The values are stored as given.
func NewManager(accessToken, accountID, phoneNumberID string, opts ...Option) *Manager {
	bearer := "Bearer " + accessToken
	m := &Manager{
		accessToken:   accessToken,
		accountID:     accountID,
		phoneNumberID: phoneNumberID,
		baseURL:       DefaultBaseURL,
		timeout:       DefaultTimeout,
		authHeaders: map[string]string{
			headerAuthorization: bearer,
		},
		messagingHeaders: map[string]string{
			headerContentType:   contentTypeJSON,
			headerAuthorization: bearer,
		},
		newToken: uuid.NewString,
		openFile: openOSFile,
		log:      noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.client == nil {
		m.client = httpclient.NewRestyClient(m.timeout)
	}
	return m
}

func openOSFile(path string) (io.ReadCloser, error) { return os.Open(path) }

// AccountID returns the WhatsApp Business account id flows are created under.
func (m *Manager) AccountID() string { return m.accountID }

// PhoneNumberID returns the sender phone number id used for messages.
func (m *Manager) PhoneNumberID() string { return m.phoneNumberID }

// BaseURL returns the Graph API root.
func (m *Manager) BaseURL() string { return m.baseURL }

// AuthHeaders returns a copy of the bearer-auth header set.
func (m *Manager) AuthHeaders() map[string]string { return copyHeaders(m.authHeaders) }

// MessagingHeaders returns a copy of the bearer-auth + JSON header set used
// for message sends.
func (m *Manager) MessagingHeaders() map[string]string { return copyHeaders(m.messagingHeaders) }

func copyHeaders(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// endpoint joins path segments onto the base URL, escaping each one.
func (m *Manager) endpoint(segments ...string) string {
	var b strings.Builder
	b.WriteString(m.baseURL)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// do performs req and wraps the transport response. HTTP error statuses pass
// through; only transport failures are returned as errors.
func (m *Manager) do(ctx context.Context, req httpclient.Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	m.log.DebugObj("graph request", "graph_request", map[string]any{
		"method": req.Method,
		"url":    req.URL,
	})

	start := time.Now()
	resp, err := m.client.Do(ctx, req)
	if err != nil {
		m.log.ErrorObj("graph request failed", "graph_error", map[string]any{
			"method": req.Method,
			"url":    req.URL,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	out := newResponse(resp)
	m.log.DebugObj("graph response", "graph_response", map[string]any{
		"method":      req.Method,
		"url":         req.URL,
		"status_code": out.StatusCode,
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return out, nil
}
