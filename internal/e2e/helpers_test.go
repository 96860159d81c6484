package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"runtimed/internal/enginetest"
	"runtimed/internal/httpapi"
	"runtimed/internal/manager"
	"runtimed/internal/portstore"
)

const testImage = "voicestudio/model-library:latest"

type harness struct {
	srv   *httptest.Server
	mgr   *manager.Manager
	eng   *enginetest.Engine
	store *portstore.File
}

func newHarness(t *testing.T, mutate ...func(*manager.ManagerConfig)) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{eng: enginetest.New(), store: portstore.NewFile(filepath.Join(dir, portstore.FileName))}
	cfg := manager.ManagerConfig{
		Engine:            h.eng,
		Store:             h.store,
		Image:             testImage,
		DataDir:           dir,
		StartConfirmDelay: time.Millisecond,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	h.mgr = manager.NewWithConfig(cfg)
	h.srv = httptest.NewServer(httpapi.NewMux(h.mgr))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) containerName(t *testing.T) string {
	t.Helper()
	id, err := h.mgr.Identity()
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	return id.Name
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	return do(t, req)
}

func httpPost(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json: %v body=%s", err, body)
	}
	return v
}
