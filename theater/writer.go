package theater

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"net/url"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/surgical_strike/engine"
	"github.com/mogaika/surgical_strike/utils/gltfutils"
)

// importedModel records where a model's arrays start in the output document.
type importedModel struct {
	bufferViewBase uint32
	accessorBase   uint32
	imageBase      uint32
	samplerBase    uint32
	textureBase    uint32
	materialBase   uint32
	meshBase       uint32
}

type skinKey struct {
	model      *Model
	mesh       uint32
	camouflage *Texture
}

type uvKey struct {
	model     *Model
	mesh      uint32
	primitive int
}

type sceneWriter struct {
	doc *gltf.Document

	imported    map[*Model]*importedModel
	camouflages map[*Texture]uint32
	skinned     map[skinKey]uint32
	uvs         map[uvKey]uint32
	sampler     *uint32
	targets     int
}

func newSceneWriter() *sceneWriter {
	return &sceneWriter{
		doc:         gltfutils.NewDocument(),
		imported:    make(map[*Model]*importedModel),
		camouflages: make(map[*Texture]uint32),
		skinned:     make(map[skinKey]uint32),
		uvs:         make(map[uvKey]uint32),
	}
}

// Document builds the glTF document for the scene under root.
func (e *Engine) Document(root engine.Node) (*gltf.Document, error) {
	sw := newSceneWriter()
	idx, err := sw.node(root)
	if err != nil {
		return nil, err
	}
	sw.doc.Scenes[0].Name = "theater"
	sw.doc.Scenes[0].Nodes = append(sw.doc.Scenes[0].Nodes, idx)
	return sw.doc, nil
}

func (e *Engine) EncodeScene(root engine.Node, w io.Writer, asBinary bool) error {
	doc, err := e.Document(root)
	if err != nil {
		return err
	}
	return gltfutils.Export(w, doc, asBinary)
}

func (sw *sceneWriter) appendNode(n *gltf.Node) uint32 {
	idx := uint32(len(sw.doc.Nodes))
	sw.doc.Nodes = append(sw.doc.Nodes, n)
	return idx
}

func newNode(name string) *gltf.Node {
	n := &gltf.Node{Name: name}
	for i := 0; i < 4; i++ {
		n.Matrix[i*5] = 1
	}
	n.Rotation[3] = 1
	n.Scale[0], n.Scale[1], n.Scale[2] = 1, 1, 1
	return n
}

func (sw *sceneWriter) node(n engine.Node) (uint32, error) {
	switch v := n.(type) {
	case *Group:
		node := newNode("theater")
		idx := sw.appendNode(node)
		for _, child := range v.children {
			ci, err := sw.node(child)
			if err != nil {
				return 0, err
			}
			node.Children = append(node.Children, ci)
		}
		return idx, nil
	case *Placement:
		sw.targets++
		node := newNode(fmt.Sprintf("target_%d", sw.targets))
		for i := range v.transform {
			node.Matrix[i] = float32(v.transform[i])
		}
		idx := sw.appendNode(node)
		for _, child := range v.children {
			ci, err := sw.node(child)
			if err != nil {
				return 0, err
			}
			node.Children = append(node.Children, ci)
		}
		return idx, nil
	case *Clone:
		return sw.clone(v)
	default:
		return 0, errors.Errorf("Unknown node type %T", n)
	}
}

func (sw *sceneWriter) clone(c *Clone) (uint32, error) {
	im, err := sw.importModel(c.model)
	if err != nil {
		return 0, errors.Wrapf(err, "Failed to import payload %q", c.model.name)
	}

	name := c.model.name
	if c.camouflage != nil {
		name += "_" + c.camouflage.name
	}
	node := newNode(name)
	idx := sw.appendNode(node)
	for _, root := range c.model.roots {
		ri, err := sw.copyNode(c, im, root)
		if err != nil {
			return 0, err
		}
		node.Children = append(node.Children, ri)
	}
	return idx, nil
}

// copyNode copies the node hierarchy of a payload. Meshes are shared between
// clones, cameras and skins are not carried over.
func (sw *sceneWriter) copyNode(c *Clone, im *importedModel, src uint32) (uint32, error) {
	n := c.model.doc.Nodes[src]
	node := &gltf.Node{
		Name:        n.Name,
		Matrix:      n.Matrix,
		Translation: n.Translation,
		Rotation:    n.Rotation,
		Scale:       n.Scale,
		Weights:     n.Weights,
	}
	if n.Mesh != nil {
		mesh, err := sw.mesh(c, im, *n.Mesh)
		if err != nil {
			return 0, err
		}
		node.Mesh = gltf.Index(mesh)
	}

	idx := sw.appendNode(node)
	for _, child := range n.Children {
		ci, err := sw.copyNode(c, im, child)
		if err != nil {
			return 0, err
		}
		node.Children = append(node.Children, ci)
	}
	return idx, nil
}

func shift(p *uint32, base uint32) *uint32 {
	if p == nil {
		return nil
	}
	return gltf.Index(*p + base)
}

func deepCopy(to, from interface{}) error {
	return copier.CopyWithOption(to, from, copier.Option{CaseSensitive: true, DeepCopy: true})
}

// importModel appends the data, accessors, images, textures, materials and
// meshes of a model to the output document once.
func (sw *sceneWriter) importModel(m *Model) (*importedModel, error) {
	if im, ok := sw.imported[m]; ok {
		return im, nil
	}

	src := m.doc
	doc := sw.doc
	im := &importedModel{
		bufferViewBase: uint32(len(doc.BufferViews)),
		accessorBase:   uint32(len(doc.Accessors)),
		imageBase:      uint32(len(doc.Images)),
		samplerBase:    uint32(len(doc.Samplers)),
		textureBase:    uint32(len(doc.Textures)),
		materialBase:   uint32(len(doc.Materials)),
	}

	for i, bv := range src.BufferViews {
		if int(bv.Buffer) >= len(src.Buffers) {
			return nil, errors.Errorf("Buffer view %d: buffer %d out of range", i, bv.Buffer)
		}
		data := src.Buffers[bv.Buffer].Data
		start, end := int(bv.ByteOffset), int(bv.ByteOffset)+int(bv.ByteLength)
		if end > len(data) {
			return nil, errors.Errorf("Buffer view %d exceeds buffer data", i)
		}
		view := *bv
		view.Buffer = 0
		view.ByteOffset = gltfutils.AppendBufferDataAt(doc, data[start:end], bv.ByteOffset)
		doc.BufferViews = append(doc.BufferViews, &view)
	}

	for i, acr := range src.Accessors {
		if acr.Sparse != nil {
			return nil, errors.Errorf("Accessor %d: sparse accessors are not supported", i)
		}
		accessor := *acr
		accessor.BufferView = shift(acr.BufferView, im.bufferViewBase)
		doc.Accessors = append(doc.Accessors, &accessor)
	}

	for i, img := range src.Images {
		image := *img
		if img.BufferView != nil {
			image.BufferView = shift(img.BufferView, im.bufferViewBase)
		} else if img.URI != "" && !strings.HasPrefix(img.URI, "data:") {
			if err := sw.embedImage(m, &image); err != nil {
				return nil, errors.Wrapf(err, "Image %d", i)
			}
		}
		doc.Images = append(doc.Images, &image)
	}

	for _, s := range src.Samplers {
		sampler := *s
		doc.Samplers = append(doc.Samplers, &sampler)
	}

	for _, t := range src.Textures {
		texture := *t
		texture.Sampler = shift(t.Sampler, im.samplerBase)
		texture.Source = shift(t.Source, im.imageBase)
		doc.Textures = append(doc.Textures, &texture)
	}

	for i, mat := range src.Materials {
		material := new(gltf.Material)
		if err := deepCopy(material, mat); err != nil {
			return nil, errors.Wrapf(err, "Failed to copy material %d", i)
		}
		shiftTextureRefs(reflect.ValueOf(material), im.textureBase)
		doc.Materials = append(doc.Materials, material)
	}

	im.meshBase = uint32(len(doc.Meshes))
	for i, msh := range src.Meshes {
		mesh := new(gltf.Mesh)
		if err := deepCopy(mesh, msh); err != nil {
			return nil, errors.Wrapf(err, "Failed to copy mesh %d", i)
		}
		for _, prim := range mesh.Primitives {
			for name, acr := range prim.Attributes {
				prim.Attributes[name] = acr + im.accessorBase
			}
			for _, target := range prim.Targets {
				for name, acr := range target {
					target[name] = acr + im.accessorBase
				}
			}
			prim.Indices = shift(prim.Indices, im.accessorBase)
			prim.Material = shift(prim.Material, im.materialBase)
		}
		doc.Meshes = append(doc.Meshes, mesh)
	}

	sw.imported[m] = im
	return im, nil
}

// embedImage moves an image referenced by a relative uri into the buffer.
func (sw *sceneWriter) embedImage(m *Model, img *gltf.Image) error {
	uri, err := url.PathUnescape(img.URI)
	if err != nil {
		uri = img.URI
	}
	data, err := ioutil.ReadFile(filepath.Join(m.dir, filepath.FromSlash(uri)))
	if err != nil {
		return errors.Wrapf(err, "Failed to read image %q", img.URI)
	}

	idx := uint32(len(sw.doc.BufferViews))
	sw.doc.BufferViews = append(sw.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: gltfutils.AppendBufferData(sw.doc, data),
		ByteLength: uint32(len(data)),
	})

	img.URI = ""
	img.BufferView = gltf.Index(idx)
	if img.MimeType == "" {
		switch strings.ToLower(filepath.Ext(uri)) {
		case ".jpg", ".jpeg":
			img.MimeType = "image/jpeg"
		default:
			img.MimeType = "image/png"
		}
	}
	return nil
}

// shiftTextureRefs adds base to the Index of every texture reference
// reachable from a material.
func shiftTextureRefs(v reflect.Value, base uint32) {
	switch v.Kind() {
	case reflect.Ptr:
		if !v.IsNil() {
			shiftTextureRefs(v.Elem(), base)
		}
	case reflect.Struct:
		t := v.Type()
		if strings.Contains(t.Name(), "Texture") {
			if f := v.FieldByName("Index"); f.IsValid() && f.CanSet() {
				switch f.Kind() {
				case reflect.Uint32:
					f.SetUint(f.Uint() + uint64(base))
				case reflect.Ptr:
					if !f.IsNil() && f.Elem().Kind() == reflect.Uint32 {
						f.Elem().SetUint(f.Elem().Uint() + uint64(base))
					}
				}
			}
		}
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if k := v.Field(i).Kind(); k == reflect.Ptr || k == reflect.Struct {
				shiftTextureRefs(v.Field(i), base)
			}
		}
	}
}

// mesh returns the output mesh for a clone, creating the camouflaged variant
// on first use.
func (sw *sceneWriter) mesh(c *Clone, im *importedModel, src uint32) (uint32, error) {
	if int(src) >= len(c.model.doc.Meshes) {
		return 0, errors.Errorf("Mesh %d out of range", src)
	}
	if c.camouflage == nil {
		return im.meshBase + src, nil
	}

	key := skinKey{model: c.model, mesh: src, camouflage: c.camouflage}
	if idx, ok := sw.skinned[key]; ok {
		return idx, nil
	}

	material, err := sw.camouflageMaterial(c.camouflage)
	if err != nil {
		return 0, err
	}

	mesh := new(gltf.Mesh)
	if err := deepCopy(mesh, sw.doc.Meshes[im.meshBase+src]); err != nil {
		return 0, errors.Wrapf(err, "Failed to copy mesh %d", src)
	}
	mesh.Name += "_" + c.camouflage.name
	for iPrim, prim := range mesh.Primitives {
		prim.Material = gltf.Index(material)
		if _, ok := prim.Attributes["TEXCOORD_0"]; ok {
			continue
		}
		uv, ok, err := sw.projectedUV(c.model, src, iPrim)
		if err != nil {
			return 0, err
		}
		if ok {
			prim.Attributes["TEXCOORD_0"] = uv
		}
	}

	idx := uint32(len(sw.doc.Meshes))
	sw.doc.Meshes = append(sw.doc.Meshes, mesh)
	sw.skinned[key] = idx
	return idx, nil
}

// projectedUV projects the primitive positions on the XY plane of their
// bounds, so a camouflage shows on payloads without texture coordinates.
func (sw *sceneWriter) projectedUV(m *Model, mesh uint32, primitive int) (uint32, bool, error) {
	key := uvKey{model: m, mesh: mesh, primitive: primitive}
	if idx, ok := sw.uvs[key]; ok {
		return idx, true, nil
	}

	position, ok := m.doc.Meshes[mesh].Primitives[primitive].Attributes["POSITION"]
	if !ok {
		return 0, false, nil
	}
	positions, err := gltfutils.ReadVec3(m.doc, position)
	if err != nil {
		return 0, false, errors.Wrapf(err, "Mesh %d primitive %d", mesh, primitive)
	}
	if len(positions) == 0 {
		return 0, false, nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}

	project := func(v, min, max float64) float32 {
		if max-min == 0 {
			return 0.5
		}
		return float32((v - min) / (max - min))
	}
	uvs := make([][2]float32, len(positions))
	for i, p := range positions {
		uvs[i] = [2]float32{project(p[0], minX, maxX), 1 - project(p[1], minY, maxY)}
	}

	idx := modeler.WriteTextureCoord(sw.doc, uvs)
	sw.uvs[key] = idx
	return idx, true, nil
}

// camouflageMaterial writes the texture once, sampled with linear
// mipmap-linear minification, linear magnification and clamped edges.
func (sw *sceneWriter) camouflageMaterial(t *Texture) (uint32, error) {
	if idx, ok := sw.camouflages[t]; ok {
		return idx, nil
	}

	if sw.sampler == nil {
		sw.sampler = gltf.Index(uint32(len(sw.doc.Samplers)))
		sw.doc.Samplers = append(sw.doc.Samplers, &gltf.Sampler{
			Name:      "camouflage_sampler",
			MinFilter: gltf.MinLinearMipMapLinear,
			MagFilter: gltf.MagLinear,
			WrapS:     gltf.WrapClampToEdge,
			WrapT:     gltf.WrapClampToEdge,
		})
	}

	image, err := modeler.WriteImage(sw.doc, t.name+"_image", "image/png", bytes.NewReader(t.png))
	if err != nil {
		return 0, errors.Wrapf(err, "Failed to write gltf image")
	}

	texture := uint32(len(sw.doc.Textures))
	sw.doc.Textures = append(sw.doc.Textures, &gltf.Texture{
		Name:    t.name,
		Sampler: sw.sampler,
		Source:  gltf.Index(image),
	})

	idx := uint32(len(sw.doc.Materials))
	sw.doc.Materials = append(sw.doc.Materials, &gltf.Material{
		Name:        "camouflage_" + t.name,
		DoubleSided: true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{
				Index: texture,
			},
		},
	})
	sw.camouflages[t] = idx
	return idx, nil
}
