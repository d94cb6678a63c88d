package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhookClientReplyFieldOrder(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"output field", `{"output":"Chẩn đoán: Viêm họng"}`, "Chẩn đoán: Viêm họng", false},
		{"text field", `{"text":"hello"}`, "hello", false},
		{"reply field", `{"reply":"hi"}`, "hi", false},
		{"output preferred over reply", `{"reply":"b","output":"a"}`, "a", false},
		{"empty output falls through to text", `{"output":"","text":"b"}`, "b", false},
		{"no known field", `{"message":"x"}`, "", true},
		{"all empty", `{"output":"  "}`, "", true},
		{"not json", `<html>`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewWebhookClient(srv.URL, time.Second)
			got, err := c.Generate(context.Background(), "sess-1", "đau đầu")

			if tt.wantErr {
				if !errors.Is(err, ErrUnavailable) {
					t.Fatalf("err = %v, want ErrUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWebhookClientSendsSessionAndInput(t *testing.T) {
	var got webhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"output":"ok"}`))
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, time.Second)
	if _, err := c.Generate(context.Background(), "sess-9", "sốt cao"); err != nil {
		t.Fatal(err)
	}
	if got.SessionID != "sess-9" || got.ChatInput != "sốt cao" {
		t.Errorf("request = %+v, want sessionId=sess-9 chatInput=sốt cao", got)
	}
}

func TestWebhookClientNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, time.Second)
	if _, err := c.Generate(context.Background(), "s", "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestWebhookClientConnectionRefused(t *testing.T) {
	c := NewWebhookClient("http://127.0.0.1:1", time.Second)
	if _, err := c.Generate(context.Background(), "s", "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
