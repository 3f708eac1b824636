package arbor

import (
	"github.com/sirupsen/logrus"
)

// Registry maps entity ids to instances for one World. Deserializing or
// constructing through the registry with an id it already holds returns the
// existing instance instead of a duplicate. Entries live until evicted or
// until the registry is cleared; removing a node from its tree does not
// evict it.
type Registry struct {
	world   *World
	entries map[string]Transformable
}

func newRegistry(w *World) *Registry {
	return &Registry{world: w, entries: make(map[string]Transformable)}
}

// World returns the world the registry is scoped to.
func (r *Registry) World() *World { return r.world }

// Lookup returns the entity registered under id.
func (r *Registry) Lookup(id string) (Transformable, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Node returns the node registered under opts.ID, or creates and registers
// a new one. An existing node is returned untouched. A camera registered
// under the same id is left in place and a fresh, unregistered node is
// returned.
func (r *Registry) Node(opts NodeOptions) *Node {
	if opts.ID != "" {
		if e, ok := r.entries[opts.ID]; ok {
			if n, ok := e.(*Node); ok {
				return n
			}
			Logger().WithFields(logrus.Fields{"id": opts.ID, "want": "Node"}).
				Warn("arbor: registry id held by another class")
			return NewNode(opts)
		}
	}
	n := NewNode(opts)
	r.entries[n.id] = n
	return n
}

// Camera returns the camera registered under opts.ID, or creates and
// registers a new one.
func (r *Registry) Camera(opts CameraOptions) *Camera {
	if opts.ID != "" {
		if e, ok := r.entries[opts.ID]; ok {
			if c, ok := e.(*Camera); ok {
				return c
			}
			Logger().WithFields(logrus.Fields{"id": opts.ID, "want": "Camera"}).
				Warn("arbor: registry id held by another class")
			return NewCamera(opts)
		}
	}
	c := NewCamera(opts)
	r.entries[c.id] = c
	return c
}

// Register records e under its id. It reports false, leaving the registry
// unchanged, when a different entity already holds that id.
func (r *Registry) Register(e Transformable) bool {
	id := e.Base().id
	if prev, ok := r.entries[id]; ok && prev != e {
		return false
	}
	r.entries[id] = e
	return true
}

// Evict forgets id. It reports whether an entry was removed.
func (r *Registry) Evict(id string) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	Logger().WithField("id", id).Debug("arbor: registry evict")
	return true
}

// Len returns the number of registered entities.
func (r *Registry) Len() int { return len(r.entries) }

// Clear evicts every entry.
func (r *Registry) Clear() {
	clear(r.entries)
}
