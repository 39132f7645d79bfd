package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL+"/", "123:abc", "-10042", 5*time.Second)
	require.NoError(t, n.Send(context.Background(), "Novas promoções encontradas:"))

	require.Equal(t, "/bot123:abc/sendMessage", gotPath)
	require.Equal(t, "-10042", got.ChatID)
	require.Equal(t, "Novas promoções encontradas:", got.Text)
	require.True(t, got.DisableWebPagePreview)
}

func TestTelegramSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := NewTelegramNotifier(srv.URL, "t", "c", 5*time.Second).Send(context.Background(), "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
	require.Contains(t, err.Error(), "chat not found")
}

func TestTelegramDefaultAPI(t *testing.T) {
	n := NewTelegramNotifier("", "t", "c", time.Second)
	require.Equal(t, DefaultTelegramAPI, n.apiURL)
}
