package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	ebicserrors "github.com/ebicsgo/ebics/errors"
)

func TestPostSendsBodyAndReturnsResponse(t *testing.T) {
	var gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<ebicsResponse/>"))
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	resp, err := c.Post(context.Background(), []byte("<ebicsRequest/>"))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if string(resp) != "<ebicsResponse/>" {
		t.Fatalf("unexpected response body: %s", resp)
	}
	if gotContentType != contentType {
		t.Fatalf("content type = %q, want %q", gotContentType, contentType)
	}
	if string(gotBody) != "<ebicsRequest/>" {
		t.Fatalf("unexpected request body: %s", gotBody)
	}
}

func TestPostWrapsHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	_, err := c.Post(context.Background(), []byte("<ebicsRequest/>"))
	if err == nil {
		t.Fatal("expected error for HTTP 500 response")
	}
	if !ebicserrors.Is(err, ebicserrors.KindTransport) {
		t.Fatalf("expected KindTransport, got %v", err)
	}
}

func TestPostWrapsConnectionFailure(t *testing.T) {
	c := New("http://127.0.0.1:0", Options{})
	_, err := c.Post(context.Background(), []byte("<ebicsRequest/>"))
	if err == nil {
		t.Fatal("expected error dialing an unreachable port")
	}
	if !ebicserrors.Is(err, ebicserrors.KindTransport) {
		t.Fatalf("expected KindTransport, got %v", err)
	}
}
