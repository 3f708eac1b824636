package arbor

import (
	"github.com/sirupsen/logrus"
)

// World owns the root nodes of a scene and the cameras that frame it.
// Cameras and nodes hold non-owning back references to the world.
type World struct {
	cameras []*Camera
	nodes   []*Node
	debug   bool

	registry *Registry
}

// NewWorld creates an empty world with its own identity registry.
func NewWorld() *World {
	w := &World{}
	w.registry = newRegistry(w)
	return w
}

// Registry returns the world's id → entity map.
func (w *World) Registry() *Registry { return w.registry }

// --- Cameras ---

// AddCamera associates cam with the world. A camera already attached to
// another world is moved. Changes to the camera's view invalidate the
// camera-combined transform of every node in the world.
func (w *World) AddCamera(cam *Camera) {
	if cam == nil {
		panic("arbor: cannot add nil camera")
	}
	if cam.world == w {
		return
	}
	if cam.world != nil {
		cam.world.RemoveCamera(cam)
	}
	cam.world = w
	cam.unwire = cam.cache.On(CacheInvalidate, func(ev CacheEvent) {
		if ev.Unit == UnitViewTransformations {
			w.invalidateCombined()
		}
	})
	w.cameras = append(w.cameras, cam)
	w.invalidateCombined()
}

// RemoveCamera disassociates cam from the world. No-op if cam is not one of
// the world's cameras.
func (w *World) RemoveCamera(cam *Camera) {
	for i, c := range w.cameras {
		if c != cam {
			continue
		}
		copy(w.cameras[i:], w.cameras[i+1:])
		w.cameras[len(w.cameras)-1] = nil
		w.cameras = w.cameras[:len(w.cameras)-1]
		if cam.unwire != nil {
			cam.unwire()
			cam.unwire = nil
		}
		cam.world = nil
		w.invalidateCombined()
		return
	}
}

// Cameras returns the world's camera list. The returned slice MUST NOT be mutated.
func (w *World) Cameras() []*Camera {
	return w.cameras
}

// --- Nodes ---

// AddNode appends n to the world's root nodes, detaching it from its
// previous parent or world first.
func (w *World) AddNode(n *Node) {
	w.addNode(n, -1)
}

// AddNodeAt inserts n among the root nodes at index.
func (w *World) AddNodeAt(n *Node, index int) {
	if index < 0 {
		panic("arbor: node index out of range")
	}
	w.addNode(n, index)
}

func (w *World) addNode(n *Node, index int) {
	if n == nil {
		panic("arbor: cannot add nil node")
	}
	n.detach()
	if index < 0 {
		index = len(w.nodes)
	}
	if index > len(w.nodes) {
		panic("arbor: node index out of range")
	}
	w.nodes = append(w.nodes, nil)
	copy(w.nodes[index+1:], w.nodes[index:])
	w.nodes[index] = n
	n.attached(w)
	if w.debug {
		debugCheckTreeDepth(n)
	}
}

// RemoveNode removes a root node from the world. No-op if n is not a root
// of this world.
func (w *World) RemoveNode(n *Node) {
	for i, r := range w.nodes {
		if r != n {
			continue
		}
		copy(w.nodes[i:], w.nodes[i+1:])
		w.nodes[len(w.nodes)-1] = nil
		w.nodes = w.nodes[:len(w.nodes)-1]
		n.attached(nil)
		return
	}
}

// Nodes returns the world's root nodes. The returned slice MUST NOT be mutated.
func (w *World) Nodes() []*Node {
	return w.nodes
}

// Walk calls fn for every node in depth-first pre-order. Returning false from
// fn skips the node's descendants.
func (w *World) Walk(fn func(n *Node) bool) {
	for _, n := range w.nodes {
		walk(n, fn)
	}
}

func walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.children {
		walk(child, fn)
	}
}

// invalidateCombined drops every node's camera-combined transform.
func (w *World) invalidateCombined() {
	w.Walk(func(n *Node) bool {
		n.cache.Invalidate(UnitCombinedTransformations)
		return true
	})
}

// --- Frame ---

// Update advances every camera by dt seconds.
func (w *World) Update(dt float32) {
	for _, cam := range w.cameras {
		cam.Update(dt)
	}
}

// SetDebugMode enables or disables debug mode. When enabled, tree depth and
// child count warnings and per-frame stats are logged at the logger's
// warn and info levels.
func (w *World) SetDebugMode(enabled bool) {
	w.debug = enabled
	if enabled {
		Logger().WithFields(logrus.Fields{
			"cameras": len(w.cameras),
			"roots":   len(w.nodes),
		}).Info("arbor: debug mode enabled")
	}
}

// DebugMode reports whether debug mode is enabled.
func (w *World) DebugMode() bool { return w.debug }
