package gcs

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func newStubClient(t *testing.T, handler roundTripFunc) *Client {
	t.Helper()
	return &Client{
		defaultBucket: "bucket",
		tokenSource: &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
			return "token", time.Now().Add(time.Hour), nil
		}},
		httpClient: &http.Client{Transport: handler},
	}
}

func TestUploadSuccess(t *testing.T) {
	t.Parallel()

	client := newStubClient(t, func(req *http.Request) *http.Response {
		if req.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", req.Method)
		}
		if req.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("unexpected auth %s", req.Header.Get("Authorization"))
		}
		if req.Header.Get("Content-Type") != "image/png" {
			t.Fatalf("unexpected content type %s", req.Header.Get("Content-Type"))
		}
		if !strings.Contains(req.URL.RawQuery, "name=receipts%2Forder-1.png") {
			t.Fatalf("unexpected query %s", req.URL.RawQuery)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"name":"receipts/order-1.png"}`)),
			Header:     http.Header{},
		}
	})

	url, err := client.Upload(context.Background(), "receipts/order-1.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://storage.googleapis.com/bucket/receipts/order-1.png" {
		t.Fatalf("unexpected url %s", url)
	}
}

func TestUploadFailure(t *testing.T) {
	t.Parallel()

	client := newStubClient(t, func(req *http.Request) *http.Response {
		return &http.Response{
			StatusCode: http.StatusForbidden,
			Body:       io.NopCloser(strings.NewReader("denied")),
			Header:     http.Header{},
		}
	})

	if _, err := client.Upload(context.Background(), "receipts/x.png", "image/png", strings.NewReader("x")); err == nil {
		t.Fatal("expected error")
	}
}

func TestUploadRequiresObjectName(t *testing.T) {
	t.Parallel()

	client := newStubClient(t, func(req *http.Request) *http.Response {
		t.Fatal("no request expected")
		return nil
	})

	if _, err := client.Upload(context.Background(), "", "image/png", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for empty object name")
	}
}

func TestPingChecksBucketListing(t *testing.T) {
	t.Parallel()

	client := newStubClient(t, func(req *http.Request) *http.Response {
		if req.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", req.Method)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"items":[]}`)),
			Header:     http.Header{},
		}
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
