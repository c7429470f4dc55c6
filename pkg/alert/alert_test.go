package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/outage-collector/pkg/config"
)

func TestSlackNotifierPostsText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "#outages", "bot", time.Second)
	require.NoError(t, n.Notify(context.Background(), "collection failed for NOLAzip"))

	assert.Equal(t, "collection failed for NOLAzip", got["text"])
	assert.Equal(t, "#outages", got["channel"])
	assert.Equal(t, "bot", got["username"])
}

func TestSlackNotifierReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "", "", time.Second)
	assert.Error(t, n.Notify(context.Background(), "x"))
}

type recording struct {
	messages []string
	err      error
}

func (r *recording) Notify(_ context.Context, message string) error {
	r.messages = append(r.messages, message)
	return r.err
}

func TestMultiDeliversToAllAndJoinsErrors(t *testing.T) {
	a := &recording{}
	b := &recording{err: errors.New("boom")}
	err := Multi{a, b}.Notify(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"hello"}, a.messages)
	assert.Equal(t, []string{"hello"}, b.messages)
}

func TestFromConfigWithoutWebhookLogsOnly(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := FromConfig(config.AlertConfig{}, zap.New(core))

	_, ok := n.(*LogNotifier)
	require.True(t, ok)
	require.NoError(t, n.Notify(context.Background(), "collection failed"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "collection failed", logs.All()[0].ContextMap()["message"])
}

func TestFromConfigWithWebhook(t *testing.T) {
	n := FromConfig(config.AlertConfig{SlackWebhookURL: "https://hooks.slack.com/services/x"}, zap.NewNop())
	multi, ok := n.(Multi)
	require.True(t, ok)
	assert.Len(t, multi, 2)
}
