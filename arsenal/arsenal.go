// Package arsenal caches payload models and camouflage textures by file name.
// Entries are never evicted or reloaded during a run.
package arsenal

import (
	"log"
	"reflect"

	"github.com/pkg/errors"

	"github.com/mogaika/surgical_strike/engine"
	"github.com/mogaika/surgical_strike/vfs"
)

var ErrNotFound = errors.New("file not found")

type Stats struct {
	PayloadLoads    int
	PayloadHits     int
	CamouflageLoads int
	CamouflageHits  int
}

type Arsenal struct {
	engine engine.Engine
	dir    vfs.Directory

	payloads     map[string]engine.Model
	payloadSizes map[engine.Model]float64
	camouflages  map[string]engine.Texture

	stats Stats
	Debug bool
}

func NewArsenal(e engine.Engine, dir vfs.Directory) *Arsenal {
	return &Arsenal{
		engine:       e,
		dir:          dir,
		payloads:     make(map[string]engine.Model),
		payloadSizes: make(map[engine.Model]float64),
		camouflages:  make(map[string]engine.Texture),
	}
}

func (a *Arsenal) locate(name string) (vfs.File, error) {
	f, err := vfs.DirectoryGetFile(a.dir, name)
	if err != nil {
		return nil, errors.Wrapf(ErrNotFound, "%q: %v", name, err)
	}
	return f, nil
}

// LoadPayload returns the cached model for name, loading it on first use.
func (a *Arsenal) LoadPayload(name string) (engine.Model, error) {
	if payload, ok := a.payloads[name]; ok {
		a.stats.PayloadHits++
		a.debugf("Loading payload %q from cache", name)
		return payload, nil
	}

	f, err := a.locate(name)
	if err != nil {
		return nil, errors.Wrapf(err, "Couldn't find payload")
	}
	a.debugf("Loading payload %q from file %q", name, f.Path())

	payload, size, err := a.engine.LoadModel(f.Path())
	if err != nil {
		return nil, errors.Wrapf(err, "Couldn't load payload %q", name)
	}
	if payload == nil {
		return nil, errors.Errorf("Couldn't load payload %q: engine returned no model", name)
	}
	if !isComparable(payload) {
		return nil, errors.Errorf("Couldn't load payload %q: engine returned uncomparable handle %T", name, payload)
	}

	a.stats.PayloadLoads++
	a.payloads[name] = payload
	a.payloadSizes[payload] = size
	a.debugf("Loaded payload %q, size %v", name, size)
	return payload, nil
}

// LoadCamouflage returns the cached texture for name, loading it on first use.
func (a *Arsenal) LoadCamouflage(name string) (engine.Texture, error) {
	if camouflage, ok := a.camouflages[name]; ok {
		a.stats.CamouflageHits++
		a.debugf("Loading camouflage %q from cache", name)
		return camouflage, nil
	}

	f, err := a.locate(name)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot find camouflage")
	}
	a.debugf("Loading camouflage %q from file %q", name, f.Path())

	img, err := a.engine.LoadImage(f.Path())
	if err != nil {
		return nil, errors.Wrapf(err, "Couldn't read camouflage %q", name)
	}
	camouflage, err := a.engine.ImageToTexture(name, img)
	if err != nil {
		return nil, errors.Wrapf(err, "Couldn't create texture for camouflage %q", name)
	}

	a.stats.CamouflageLoads++
	a.camouflages[name] = camouflage
	return camouflage, nil
}

// Size is the bounding radius of a payload loaded by this arsenal, 0 otherwise.
func (a *Arsenal) Size(payload engine.Model) float64 {
	if payload == nil || !isComparable(payload) {
		return 0
	}
	return a.payloadSizes[payload]
}

func isComparable(handle interface{}) bool {
	return reflect.TypeOf(handle).Comparable()
}

func (a *Arsenal) Stats() Stats {
	return a.stats
}

func (a *Arsenal) debugf(format string, args ...interface{}) {
	if a.Debug {
		log.Printf("[arsenal] "+format, args...)
	}
}
