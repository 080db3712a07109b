package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/WessleyAI/cocktails/pkg/resilience"
)

func TestEmbed_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req embedReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Model != "nomic-embed-text" || req.Prompt != "mojito" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{0.5, -1}})
	}))
	defer srv.Close()

	vec, err := NewEmbedClient(srv.URL+"/", "nomic-embed-text").Embed(context.Background(), "mojito")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 || vec[1] != -1 {
		t.Errorf("vec = %v", vec)
	}
}

func TestEmbed_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"embedding":[]}`))
	}))
	defer srv.Close()

	if _, err := NewEmbedClient(srv.URL, "m").Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}

func TestEmbed_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewEmbedClient(srv.URL, "m").Embed(context.Background(), "x")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusNotFound || !se.Permanent() {
		t.Errorf("status error = %+v", se)
	}
	if se.Body != "model not found" {
		t.Errorf("body = %q", se.Body)
	}
}

func TestStatusError_Permanent(t *testing.T) {
	for status, want := range map[int]bool{429: false, 500: false, 503: false, 400: true, 404: true} {
		if got := (&StatusError{Status: status}).Permanent(); got != want {
			t.Errorf("Permanent(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestEmbed_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	if _, err := NewEmbedClient(srv.URL, "m").Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEmbed_Unreachable(t *testing.T) {
	if _, err := NewEmbedClient("http://127.0.0.1:1", "m").Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req chatReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Stream {
			t.Error("expected non-streaming request")
		}
		if req.Options["temperature"] != DefaultTemperature {
			t.Errorf("temperature = %v", req.Options["temperature"])
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "what is a mojito?" {
			t.Errorf("messages = %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(chatResp{Message: chatMessage{Role: "assistant", Content: "A rum highball."}, Done: true})
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "llama3")
	got, err := c.Complete(context.Background(), "what is a mojito?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "A rum highball." {
		t.Errorf("got %q", got)
	}
}

func TestComplete_Temperature(t *testing.T) {
	c := NewChatClient("http://x", "m")
	hot := c.WithTemperature(0.9)
	if c.temperature != DefaultTemperature || hot.temperature != 0.9 {
		t.Errorf("temperatures = %v, %v", c.temperature, hot.temperature)
	}
}

func TestComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewChatClient(srv.URL, "m").Complete(context.Background(), "hi")
	var se *StatusError
	if !errors.As(err, &se) || se.Permanent() {
		t.Fatalf("expected temporary StatusError, got %v", err)
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"embedding":[1]}`))
	}))
	defer srv.Close()

	lim := resilience.NewLimiter(resilience.LimiterOpts{Rate: 0.001, Burst: 1})
	c := NewEmbedClient(srv.URL, "m", WithLimiter(lim), WithHTTPClient(srv.Client()))
	if _, err := c.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Embed(ctx, "second"); err == nil {
		t.Fatal("expected limiter to block until context expiry")
	}
}
