package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/outage-collector/pkg/config"
	"github.com/outage-collector/pkg/metrics"
	"github.com/outage-collector/pkg/snapshot"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Notify(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingNotifier) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

type panicFetcher struct {
	Fetcher
	endpoint string
}

func (p panicFetcher) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	if endpoint == p.endpoint {
		panic("boom")
	}
	return p.Fetcher.Fetch(ctx, endpoint)
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/good", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"zip":"70112","customersAffected":3},{"zip":"70113","customersAffected":7}]`))
	})
	mux.HandleFunc("/object", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/scalar", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`42`))
	})
	mux.HandleFunc("/truncated", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"customersAffected":`))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, srv *httptest.Server, paths ...string) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Store.Root = t.TempDir()
	cfg.Store.TimeZone = "UTC"
	cfg.Collector.Timeout = 5 * time.Second
	cfg.Sources = nil
	for _, p := range paths {
		name, path, _ := strings.Cut(p, "=")
		cfg.Sources = append(cfg.Sources, config.SourceConfig{
			Name: name, Endpoint: srv.URL + path, Kind: config.KindRegular, Label: name,
		})
	}
	return cfg
}

func newTestCollector(t *testing.T, cfg *config.Config, opts ...Option) (*Collector, *snapshot.Store) {
	t.Helper()
	store := snapshot.NewStore(cfg.Store.Root, time.UTC)
	c, err := New(cfg, store, append([]Option{WithLogger(zap.NewNop())}, opts...)...)
	require.NoError(t, err)
	return c, store
}

var tick = time.Date(2021, 8, 29, 14, 30, 0, 0, time.UTC)

func TestFetchAndPersistWritesRawBody(t *testing.T) {
	srv := newUpstream(t)
	cfg := testConfig(t, srv, "NOLAzip=/good")
	c, store := newTestCollector(t, cfg)

	require.NoError(t, c.FetchAndPersist(context.Background(), cfg.Sources[0], tick))

	body, err := store.Read("NOLAzip", tick)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"zip":"70112","customersAffected":3},{"zip":"70113","customersAffected":7}]`, string(body))
	assert.FileExists(t, filepath.Join(cfg.Store.Root, "NOLAzip", "29 Aug 2021 14 30.json"))
}

func TestFetchAndPersistAcceptsObjects(t *testing.T) {
	srv := newUpstream(t)
	cfg := testConfig(t, srv, "NOLAfine=/object")
	c, _ := newTestCollector(t, cfg)

	assert.NoError(t, c.FetchAndPersist(context.Background(), cfg.Sources[0], tick))
}

func TestFetchAndPersistDecodeErrors(t *testing.T) {
	for _, path := range []string{"/empty", "/scalar", "/truncated"} {
		t.Run(path, func(t *testing.T) {
			srv := newUpstream(t)
			cfg := testConfig(t, srv, "LOISzip="+path)
			notifier := &recordingNotifier{}
			c, store := newTestCollector(t, cfg, WithNotifier(notifier))

			err := c.FetchAndPersist(context.Background(), cfg.Sources[0], tick)
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, "LOISzip", decodeErr.Source)

			_, err = store.Read("LOISzip", tick)
			assert.ErrorIs(t, err, snapshot.ErrNotFound)
			assert.Equal(t, []string{
				"Collection failed for LOISzip at 29 Aug 2021 14 30 due to decoding error",
			}, notifier.Messages())
		})
	}
}

func TestFetchAndPersistHTTPStatusIsFetchError(t *testing.T) {
	srv := newUpstream(t)
	cfg := testConfig(t, srv, "MISSzip=/down")
	notifier := &recordingNotifier{}
	c, _ := newTestCollector(t, cfg, WithNotifier(notifier))

	err := c.FetchAndPersist(context.Background(), cfg.Sources[0], tick)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Err.Error(), "503")

	msgs := notifier.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "Collection failed for MISSzip at 29 Aug 2021 14 30 because of "))
}

func TestRunPassIsolatesFailures(t *testing.T) {
	srv := newUpstream(t)
	cfg := testConfig(t, srv, "LOISzip=/empty", "NOLAzip=/good", "MISSzip=/down", "ARKAzip=/good")
	notifier := &recordingNotifier{}
	reg := metrics.NewRegistry(false)
	m := metrics.NewCollectorMetrics(metrics.NewPromRegistry(reg))
	c, store := newTestCollector(t, cfg, WithNotifier(notifier), WithMetrics(m))

	res := c.RunPass(context.Background(), tick)

	assert.Equal(t, []string{"NOLAzip", "ARKAzip"}, res.Succeeded)
	require.Len(t, res.Failed, 2)
	assert.IsType(t, &DecodeError{}, res.Failed["LOISzip"])
	assert.IsType(t, &FetchError{}, res.Failed["MISSzip"])

	for _, name := range []string{"NOLAzip", "ARKAzip"} {
		_, err := store.Read(name, tick)
		assert.NoError(t, err, name)
	}
	listing, err := store.List("LOISzip")
	require.NoError(t, err)
	assert.Empty(t, listing.Entries)

	assert.Len(t, notifier.Messages(), 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("LOISzip", metrics.OutcomeDecodeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("MISSzip", metrics.OutcomeFetchError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("NOLAzip", metrics.OutcomeSuccess))+
		testutil.ToFloat64(m.FetchTotal.WithLabelValues("ARKAzip", metrics.OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AlertsTotal.WithLabelValues("sent")))

	st, ok := c.Status().Get("MISSzip")
	require.True(t, ok)
	assert.Equal(t, metrics.OutcomeFetchError, st.LastOutcome)
	assert.Equal(t, 1, st.Failures)
	st, _ = c.Status().Get("NOLAzip")
	assert.Equal(t, tick, st.LastSuccess)
	assert.NotEmpty(t, st.LastPath)
}

func TestRunPassRecoversPanickingSource(t *testing.T) {
	srv := newUpstream(t)
	cfg := testConfig(t, srv, "NOLAzip=/good", "LOISzip=/good")
	fetcher := panicFetcher{Fetcher: NewHTTPFetcher(cfg.Collector, zap.NewNop()), endpoint: cfg.Sources[0].Endpoint}
	c, _ := newTestCollector(t, cfg, WithFetcher(fetcher))

	res := c.RunPass(context.Background(), tick)
	assert.Equal(t, []string{"LOISzip"}, res.Succeeded)
	assert.ErrorContains(t, res.Failed["NOLAzip"], "panic: boom")
}

func TestNewRejectsDuplicateSources(t *testing.T) {
	srv := newUpstream(t)
	cfg := testConfig(t, srv, "NOLAzip=/good", "NOLAzip=/object")
	_, err := New(cfg, snapshot.NewStore(cfg.Store.Root, time.UTC))
	assert.ErrorContains(t, err, "already registered")
}

func TestRunForeverWritesAtBoundaryAndStopsOnCancel(t *testing.T) {
	srv := newUpstream(t)
	cfg := testConfig(t, srv, "NOLAzip=/good")
	clock := clockwork.NewFakeClockAt(time.Date(2021, 8, 29, 10, 29, 50, 0, time.UTC))
	c, store := newTestCollector(t, cfg, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.RunForever(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.DirExists(t, filepath.Join(cfg.Store.Root, "NOLAzip"))
	clock.Advance(10 * time.Second)

	boundary := time.Date(2021, 8, 29, 10, 30, 0, 0, time.UTC)
	require.Eventually(t, func() bool {
		_, err := store.Read("NOLAzip", boundary)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRunForeverReportsFatalError(t *testing.T) {
	srv := newUpstream(t)
	cfg := testConfig(t, srv, "NOLAzip=/good")
	// root is a regular file, so the source directories cannot be created
	root := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0644))
	cfg.Store.Root = root

	notifier := &recordingNotifier{}
	clock := clockwork.NewFakeClockAt(time.Date(2021, 8, 29, 10, 5, 0, 0, time.UTC))
	c, _ := newTestCollector(t, cfg, WithNotifier(notifier), WithClock(clock))

	err := c.RunForever(context.Background())
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, clock.Now(), fatal.At)

	msgs := notifier.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "Collection failed at 29 Aug 2021 10 05 due to "))
}

func TestValidateDocument(t *testing.T) {
	assert.NoError(t, validateDocument([]byte(` []`)))
	assert.NoError(t, validateDocument([]byte(`{"a":1}`)))
	assert.ErrorIs(t, validateDocument([]byte("  \n")), errEmptyBody)
	assert.Error(t, validateDocument([]byte(`"text"`)))
	assert.Error(t, validateDocument([]byte(`null`)))
	assert.Error(t, validateDocument([]byte(`[1,2`)))
	assert.False(t, errors.Is(validateDocument([]byte(`[]`)), errEmptyBody))
}
