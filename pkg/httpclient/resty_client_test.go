package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestRestyClientGetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Fatalf("missing header, got %q", got)
		}
		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp, err := NewRestyClient(2*time.Second).Get(context.Background(), srv.URL, map[string]string{"X-Test": "1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", resp.StatusCode())
	}
	if string(resp.Body()) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", resp.Body())
	}
	if resp.Header().Get("X-Reply") != "yes" {
		t.Fatalf("response header not exposed")
	}
}

func TestRestyClientDoJSONWithQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if got := r.URL.Query().Get("fields"); got != "a,b(c)" {
			t.Fatalf("fields = %q", got)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Fatalf("content type = %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["name"] != "x" {
			t.Fatalf("body = %#v", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := NewRestyClient(time.Second).Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Query:  url.Values{"fields": {"a,b(c)"}},
		JSON:   map[string]string{"name": "x"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestRestyClientDoMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("kind"); got != "doc" {
			t.Fatalf("kind = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "doc.json" {
			t.Fatalf("filename = %q", hdr.Filename)
		}
		data, _ := io.ReadAll(f)
		if string(data) != `{}` {
			t.Fatalf("file data = %s", data)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := NewRestyClient(time.Second).Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Form:   map[string]string{"kind": "doc"},
		Files: []File{{
			Param:       "file",
			FileName:    "doc.json",
			ContentType: "application/json",
			Reader:      strings.NewReader(`{}`),
		}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestRestyClientDoRejectsEmptyMethod(t *testing.T) {
	if _, err := NewRestyClient(time.Second).Do(context.Background(), Request{URL: "http://example.com"}); err == nil {
		t.Fatalf("expected error for empty method")
	}
}

func TestRestyClientDoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	if _, err := NewRestyClient(time.Second).Do(context.Background(), Request{Method: http.MethodGet, URL: addr}); err == nil {
		t.Fatalf("expected transport error against closed server")
	}
}
