package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockEndpoint is the path-style endpoint served by the fake transport.
const MockEndpoint = "https://mock.s3.local"

// NewMockForTests returns a *Store backed by an in-memory fake HTTP transport
// that implements Get/Put/Delete object calls.
func NewMockForTests() *Store {
	s, _ := NewMockWithTransport(NewMockTransport())
	return s
}

// NewMockWithTransport builds a Store around the supplied fake transport.
func NewMockWithTransport(rt *MockTransport) (*Store, *MockTransport) {
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(defaultRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(MockEndpoint)
	})
	return &Store{client: client, bucket: "mock-bucket"}, rt
}

// MockTransport is a tiny fake S3 holding objects by key.
type MockTransport struct {
	mu      sync.Mutex
	objects map[string][]byte
	// FailMethod makes every request with that HTTP method return 403.
	FailMethod string
}

// NewMockTransport returns an empty fake bucket.
func NewMockTransport() *MockTransport {
	return &MockTransport{objects: make(map[string][]byte)}
}

// Object returns the raw stored object body.
func (m *MockTransport) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

// Len reports the number of stored objects.
func (m *MockTransport) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMethod != "" && req.Method == m.FailMethod {
		return xmlError(http.StatusForbidden, "AccessDenied"), nil
	}
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if isChunked(req) {
			if dec, ok := decodeChunked(body); ok {
				body = dec
			}
		}
		m.objects[key] = body
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
	case http.MethodGet:
		body, ok := m.objects[key]
		if !ok {
			return xmlError(http.StatusNotFound, "NoSuchKey"), nil
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body)), ContentLength: int64(len(body)), Header: http.Header{
			"Content-Length": {strconv.Itoa(len(body))},
			"Content-Type":   {"application/json"},
			"ETag":           {"\"etag\""},
		}}, nil
	case http.MethodDelete:
		delete(m.objects, key)
		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	return xmlError(http.StatusNotImplemented, "NotImplemented"), nil
}

func xmlError(status int, code string) *http.Response {
	body := fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\"?><Error><Code>%s</Code><Message>%s</Message></Error>", code, code)
	return &http.Response{
		StatusCode:    status,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Header:        http.Header{"Content-Type": {"application/xml"}},
	}
}

func isChunked(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") ||
		req.Header.Get("X-Amz-Decoded-Content-Length") != ""
}

// decodeChunked decodes an aws-chunked payload: <hex>[;ext]\r\n<data>\r\n ... 0\r\n<trailers>.
func decodeChunked(b []byte) ([]byte, bool) {
	var out []byte
	for {
		idx := bytes.Index(b, []byte("\r\n"))
		if idx < 0 {
			return nil, false
		}
		header := string(b[:idx])
		if semi := strings.IndexByte(header, ';'); semi >= 0 {
			header = header[:semi]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(header), 16, 64)
		if err != nil {
			return nil, false
		}
		b = b[idx+2:]
		if size == 0 {
			return out, true
		}
		if int64(len(b)) < size {
			return nil, false
		}
		out = append(out, b[:size]...)
		b = bytes.TrimPrefix(b[size:], []byte("\r\n"))
	}
}
