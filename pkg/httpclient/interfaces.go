package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Do(ctx context.Context, req Request) (Response, error)
}

// Request describes a single outbound call. JSON and multipart bodies are
// mutually exclusive; when Files is non-empty the Form fields travel as
// multipart fields alongside them.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   url.Values
	JSON    any
	Form    map[string]string
	Files   []File
}

// File is one multipart file part. The caller owns Reader and closes it.
type File struct {
	Param       string
	FileName    string
	ContentType string
	Reader      io.Reader
}
