package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/surgical_strike/engine"
	"github.com/mogaika/surgical_strike/status"
)

type fakeEncoder struct {
	fail bool
}

func (e *fakeEncoder) EncodeScene(root engine.Node, w io.Writer, asBinary bool) error {
	if e.fail {
		return errors.Errorf("broken scene")
	}
	if asBinary {
		_, err := io.WriteString(w, "glTF-binary")
		return err
	}
	_, err := io.WriteString(w, `{"asset":{"version":"2.0"}}`)
	return err
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestViewerRoutes(t *testing.T) {
	v := NewViewer(":0", &fakeEncoder{})
	v.Summary = map[string]int{"Delivered": 2}
	h, err := v.Load("root")
	require.NoError(t, err)

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/scene/"+v.Revision().String()+".glb")

	rec = get(t, h, "/scene/"+v.Revision().String()+".glb")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model/gltf-binary", rec.Header().Get("Content-Type"))
	assert.Equal(t, "glTF-binary", rec.Body.String())

	rec = get(t, h, "/download/"+v.Revision().String()+".gltf")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"asset":{"version":"2.0"}}`, rec.Body.String())

	rec = get(t, h, "/scene/"+uuid.New().String()+".glb")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/scene/latest.glb")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/download/summary")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="summary_`+v.Revision().String()+`.json"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), `"Delivered": 2`)

	rec = get(t, h, "/json/summary")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Delivered":2`)
}

func TestViewerEncodeError(t *testing.T) {
	v := NewViewer(":0", &fakeEncoder{fail: true})
	_, err := v.Load("root")
	assert.Error(t, err)
	assert.Error(t, v.RunViewer(context.Background(), "root"))
}

func TestRunViewerStopsOnCancel(t *testing.T) {
	status.Quiet = true

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	v := NewViewer(addr, &fakeEncoder{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.RunViewer(ctx, "root") }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/json/summary")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("viewer did not stop")
	}
}
