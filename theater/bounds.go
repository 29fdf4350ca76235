package theater

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/surgical_strike/utils/gltfutils"
)

// boundingRadius is the radius of the sphere around the axis aligned box of
// all positions reachable from roots.
func boundingRadius(doc *gltf.Document, roots []uint32) (float64, error) {
	points := make([]mgl64.Vec3, 0, 256)

	var walk func(node uint32, parent mgl64.Mat4, depth int) error
	walk = func(node uint32, parent mgl64.Mat4, depth int) error {
		if int(node) >= len(doc.Nodes) {
			return errors.Errorf("Node %d out of range", node)
		}
		if depth > len(doc.Nodes) {
			return errors.Errorf("Node hierarchy has a cycle at node %d", node)
		}
		n := doc.Nodes[node]
		world := parent.Mul4(gltfutils.NodeMatrix(n))

		if n.Mesh != nil {
			if int(*n.Mesh) >= len(doc.Meshes) {
				return errors.Errorf("Node %d mesh out of range", node)
			}
			for _, prim := range doc.Meshes[*n.Mesh].Primitives {
				position, ok := prim.Attributes["POSITION"]
				if !ok {
					continue
				}
				vertices, err := gltfutils.ReadVec3(doc, position)
				if err != nil {
					return errors.Wrapf(err, "Node %d positions", node)
				}
				for _, v := range vertices {
					points = append(points, mgl64.TransformCoordinate(v, world))
				}
			}
		}

		for _, child := range n.Children {
			if err := walk(child, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range roots {
		if err := walk(root, mgl64.Ident4(), 0); err != nil {
			return 0, err
		}
	}
	if len(points) == 0 {
		return 0, errors.Errorf("No geometry")
	}

	min := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range points {
		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], p[i])
			max[i] = math.Max(max[i], p[i])
		}
	}
	return max.Sub(min).Len() / 2, nil
}
