package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickname-notifier/internal/config"
	"nickname-notifier/internal/repository"
	"nickname-notifier/internal/service"
)

type recordingDeliverer struct {
	mu        sync.Mutex
	delivered map[int64][]string
}

func (d *recordingDeliverer) Deliver(_ context.Context, chatID int64, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delivered[chatID] = append(d.delivered[chatID], text)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *repository.RecipientRepository, *recordingDeliverer) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.NewDB(config.DriverSQLite, filepath.Join(t.TempDir(), "router.db"), log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := repository.NewRecipientRepository(db, 5*time.Second)
	deliverer := &recordingDeliverer{delivered: map[int64][]string{}}
	notifier := service.NewNotifyService(repo, deliverer, log)

	srv := httptest.NewServer(New(log, notifier, repo, "s3cret"))
	t.Cleanup(srv.Close)
	return srv, repo, deliverer
}

func post(t *testing.T, srv *httptest.Server, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/notify", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestNotify_EndToEnd(t *testing.T) {
	srv, repo, deliverer := newTestServer(t)
	require.NoError(t, repo.Register(context.Background(), "alice", 100, ""))

	status, _ := post(t, srv, `{"secret":"wrong","nickname":"alice","text":"build passed"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Empty(t, deliverer.delivered, "nothing is delivered without the secret")

	status, body := post(t, srv, `{"secret":"s3cret","nickname":"alice","text":"build passed"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.Equal(t, []string{"build passed"}, deliverer.delivered[100])

	status, _ = post(t, srv, `{"secret":"s3cret","nickname":"bob","text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = post(t, srv, `{"secret":"s3cret","nickname":"","text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = post(t, srv, `{"secret":"","nickname":"alice","text":"hi"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Len(t, deliverer.delivered, 1)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	post(t, srv, `{"secret":"wrong","nickname":"alice","text":"x"}`)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `notifier_push_requests_total{result="forbidden"}`)
}
