// Package web serves an assembled theater to a browser.
package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/surgical_strike/engine"
	"github.com/mogaika/surgical_strike/status"
	"github.com/mogaika/surgical_strike/webutils"
)

type SceneEncoder interface {
	EncodeScene(root engine.Node, w io.Writer, asBinary bool) error
}

// Viewer implements engine.Viewer. The scene is encoded once when the
// viewer starts, every run gets a new revision id.
type Viewer struct {
	Addr    string
	Encoder SceneEncoder
	// Summary is served as json next to the scene
	Summary interface{}

	revision uuid.UUID
	glb      []byte
	gltf     []byte
}

var _ engine.Viewer = (*Viewer)(nil)

func NewViewer(addr string, enc SceneEncoder) *Viewer {
	return &Viewer{Addr: addr, Encoder: enc}
}

func (v *Viewer) Revision() uuid.UUID { return v.revision }

// Load encodes root and returns the router serving it.
func (v *Viewer) Load(root engine.Node) (http.Handler, error) {
	var glb, text bytes.Buffer
	if err := v.Encoder.EncodeScene(root, &glb, true); err != nil {
		return nil, errors.Wrapf(err, "Failed to encode scene")
	}
	if err := v.Encoder.EncodeScene(root, &text, false); err != nil {
		return nil, errors.Wrapf(err, "Failed to encode scene")
	}
	v.glb, v.gltf = glb.Bytes(), text.Bytes()
	v.revision = uuid.New()

	r := mux.NewRouter()
	r.HandleFunc("/", v.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/scene/{id}.glb", v.handleScene).Methods(http.MethodGet)
	r.HandleFunc("/download/summary", v.handleSummaryDownload).Methods(http.MethodGet)
	r.HandleFunc("/download/{id}.gltf", v.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/json/summary", v.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/ws/status", status.Handler)
	return r, nil
}

func (v *Viewer) RunViewer(ctx context.Context, root engine.Node) error {
	r, err := v.Load(root)
	if err != nil {
		return err
	}

	h := handlers.RecoveryHandler()(r)
	h = handlers.LoggingHandler(os.Stdout, h)
	srv := &http.Server{Addr: v.Addr, Handler: h}

	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe()
	}()

	log.Printf("[web] Starting server %v", v.Addr)
	status.Scene(v.sceneURL())

	select {
	case err := <-done:
		return errors.Wrapf(err, "Viewer server failed")
	case <-ctx.Done():
	}

	log.Printf("[web] Stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrapf(err, "Failed to stop viewer")
	}
	return nil
}

func (v *Viewer) sceneURL() string {
	return fmt.Sprintf("/scene/%s.glb", v.revision)
}

func (v *Viewer) checkRevision(w http.ResponseWriter, r *http.Request) bool {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		webutils.WriteError(w, http.StatusBadRequest, errors.Wrapf(err, "Bad scene id"))
		return false
	}
	if id != v.revision {
		webutils.WriteError(w, http.StatusNotFound, errors.Errorf("Scene %v not found", id))
		return false
	}
	return true
}

func (v *Viewer) handleScene(w http.ResponseWriter, r *http.Request) {
	if v.checkRevision(w, r) {
		webutils.ServeBlob(w, v.glb, "model/gltf-binary")
	}
}

func (v *Viewer) handleDownload(w http.ResponseWriter, r *http.Request) {
	if v.checkRevision(w, r) {
		webutils.WriteFile(w, bytes.NewReader(v.gltf), "theater.gltf")
	}
}

type sceneSummary struct {
	Revision string
	Scene    string
	Summary  interface{}
}

func (v *Viewer) summary() *sceneSummary {
	return &sceneSummary{
		Revision: v.revision.String(),
		Scene:    v.sceneURL(),
		Summary:  v.Summary,
	}
}

func (v *Viewer) handleSummary(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, v.summary())
}

func (v *Viewer) handleSummaryDownload(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJsonFile(w, v.summary(), "summary_"+v.revision.String())
}

func (v *Viewer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexPage, v.sceneURL(), v.revision)
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Surgical strike</title>
<script type="module" src="https://unpkg.com/@google/model-viewer/dist/model-viewer.min.js"></script>
<style>
body { margin: 0; font-family: monospace; background: #222; color: #ddd; }
model-viewer { width: 100vw; height: calc(100vh - 2em); }
#status { height: 2em; line-height: 2em; padding: 0 1em; }
</style>
</head>
<body>
<model-viewer id="theater" src="%s" camera-controls></model-viewer>
<div id="status">revision %s</div>
<script>
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws/status");
ws.onmessage = function(e) {
	const s = JSON.parse(e.data);
	if (s.Type === 3) {
		document.getElementById("theater").src = s.Message;
	} else {
		document.getElementById("status").textContent = s.Message;
	}
};
</script>
</body>
</html>
`
