package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"permitdesk/api/internal/fieldstore"
	"permitdesk/api/internal/store"
)

func newTestServer(t *testing.T, registry *fakeRegistry) *httptest.Server {
	t.Helper()
	svc, _ := newTestService(registry, &fakeIndex{})
	server := httptest.NewServer(NewHTTPServer(svc, "http://localhost:5173").Handler())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeRegistry{})

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["ok"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestReadyReportsDatabaseError(t *testing.T) {
	registry := &fakeRegistry{
		pingFn: func(context.Context) error { return errors.New("connection refused") },
	}
	server := newTestServer(t, registry)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/ready", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "not_ready" {
		t.Errorf("body = %v", body)
	}
}

func TestDocumentGetAndPatch(t *testing.T) {
	server := newTestServer(t, &fakeRegistry{})

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/document?docType=work", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	doc, _ := body["document"].(map[string]any)
	if doc == nil || doc["permitNumber"] == "" {
		t.Fatalf("document = %v", body)
	}

	resp, body = doJSON(t, http.MethodPatch, server.URL+"/api/document/field", map[string]any{
		"docType": "work",
		"path":    "plant",
		"value":   "HSM-1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", resp.StatusCode)
	}
	doc, _ = body["document"].(map[string]any)
	if doc["plant"] != "HSM-1" {
		t.Errorf("plant = %v", doc["plant"])
	}
}

func TestFieldValidationErrorSurfaced(t *testing.T) {
	server := newTestServer(t, &fakeRegistry{})

	resp, body := doJSON(t, http.MethodPatch, server.URL+"/api/document/field", map[string]any{
		"docType": "work",
		"path":    "noSuchField",
		"value":   "x",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["code"] != "VALIDATION_FAILED" {
		t.Errorf("code = %v", body["code"])
	}
}

func TestWizardNextReturnsViolations(t *testing.T) {
	server := newTestServer(t, &fakeRegistry{})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/wizard/next", map[string]any{"docType": "work"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["advanced"] != false {
		t.Error("wizard advanced past failing gate")
	}
	missing, _ := body["missing"].([]any)
	if len(missing) == 0 {
		t.Errorf("missing = %v", body["missing"])
	}
}

func TestCommentEndpoints(t *testing.T) {
	server := newTestServer(t, &fakeRegistry{})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/comments/custom", map[string]any{
		"role": "requester",
		"key":  fieldstore.KeyRequesterComments,
		"text": "depressurise the header first",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	bundle, _ := body["bundle"].(map[string]any)
	comments, _ := bundle["customComments"].([]any)
	if len(comments) != 1 {
		t.Fatalf("comments = %v", bundle)
	}

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/comments?key="+fieldstore.KeyRequesterComments, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read status = %d", resp.StatusCode)
	}
	bundle, _ = body["bundle"].(map[string]any)
	comments, _ = bundle["customComments"].([]any)
	if len(comments) != 1 {
		t.Errorf("read back %d comments", len(comments))
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/comments?key=gossip", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown channel status = %d", resp.StatusCode)
	}
}

func TestPermitListing(t *testing.T) {
	registry := &fakeRegistry{
		listFn: func(context.Context) ([]store.PermitRecord, error) {
			return []store.PermitRecord{
				{PermitNumber: "PTW-1", DocType: "work", Status: store.StatusSubmitted, Plant: "HSM-1", SubmittedAt: time.Now()},
			}, nil
		},
	}
	server := newTestServer(t, registry)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/permits", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	permits, _ := body["permits"].([]any)
	if len(permits) != 1 {
		t.Fatalf("permits = %v", body)
	}
	first, _ := permits[0].(map[string]any)
	if first["permitNumber"] != "PTW-1" {
		t.Errorf("permit = %v", first)
	}
}

func TestPermitLookupNotFound(t *testing.T) {
	server := newTestServer(t, &fakeRegistry{})

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/permits/PTW-missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["code"] != "NOT_FOUND" {
		t.Errorf("code = %v", body["code"])
	}
}

func TestPrintPreviewReturnsHTML(t *testing.T) {
	server := newTestServer(t, &fakeRegistry{})

	resp, err := http.Get(server.URL + "/api/print/preview?docType=work")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %s", ct)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(buf.String(), "Work Permit") {
		t.Error("preview missing form title")
	}
}

func TestCORSAndRequestIDHeaders(t *testing.T) {
	server := newTestServer(t, &fakeRegistry{})

	req, _ := http.NewRequest(http.MethodOptions, server.URL+"/api/document", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if origin := resp.Header.Get("Access-Control-Allow-Origin"); origin != "http://localhost:5173" {
		t.Errorf("cors origin = %s", origin)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	server := newTestServer(t, &fakeRegistry{})

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
