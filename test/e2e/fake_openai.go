//go:build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeOpenAI records chat completion requests and answers with a canned reply.
type FakeOpenAI struct {
	mu       sync.Mutex
	requests []map[string]interface{}
	reply    string
	status   int
	server   *httptest.Server
}

func newFakeOpenAI(t *testing.T) *FakeOpenAI {
	f := &FakeOpenAI{reply: "Our **Basic** plan is Rs 999 per month.", status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// URL is the base URL to hand to the OpenAI client.
func (f *FakeOpenAI) URL() string {
	return f.server.URL
}

func (f *FakeOpenAI) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/chat/completions" {
		http.NotFound(w, r)
		return
	}

	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.requests = append(f.requests, body)
	status, reply := f.status, f.reply
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     "chatcmpl-e2e",
		"object": "chat.completion",
		"model":  body["model"],
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": reply},
		}},
	})
}

// SetStatus makes subsequent completions fail with the given HTTP status.
func (f *FakeOpenAI) SetStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Requests returns the decoded completion requests seen so far.
func (f *FakeOpenAI) Requests() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.requests...)
}
