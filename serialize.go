package arbor

import (
	"encoding/json"
	"math"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ClassKey is the discriminator carried by every serialized object.
const ClassKey = "__class__"

// Serialized class names.
const (
	ClassNode   = "Node"
	ClassCamera = "Camera"
	ClassWorld  = "World"
)

// Object is the plain property map an entity serializes to.
type Object map[string]any

// Serializable is implemented by *Node, *Camera and *World.
type Serializable interface {
	ToObject() Object
}

// Format selects the text encoding of a scene file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath guesses the format from a file extension. Anything that
// is not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ToObject returns n's declared properties and, recursively, its children.
func (n *Node) ToObject() Object {
	children := make([]any, len(n.children))
	for i, c := range n.children {
		children[i] = c.ToObject()
	}
	return Object{
		ClassKey:   ClassNode,
		"id":       n.id,
		"x":        n.x,
		"y":        n.y,
		"rotation": n.rotation,
		"scalingX": n.sx,
		"scalingY": n.sy,
		"width":    n.width,
		"height":   n.height,
		"opacity":  n.opacity,
		"zIndex":   n.zIndex,
		"kind":     n.Kind.String(),
		"fill":     []any{n.Fill.R, n.Fill.G, n.Fill.B, n.Fill.A},
		"children": children,
	}
}

// ToObject returns c's declared properties.
func (c *Camera) ToObject() Object {
	return Object{
		ClassKey:   ClassCamera,
		"id":       c.id,
		"x":        c.x,
		"y":        c.y,
		"rotation": c.rotation,
		"zoom":     c.sx,
		"width":    c.width,
		"height":   c.height,
	}
}

// ToObject returns the world's cameras and root nodes.
func (w *World) ToObject() Object {
	cams := make([]any, len(w.cameras))
	for i, c := range w.cameras {
		cams[i] = c.ToObject()
	}
	nodes := make([]any, len(w.nodes))
	for i, n := range w.nodes {
		nodes[i] = n.ToObject()
	}
	return Object{
		ClassKey:  ClassWorld,
		"cameras": cams,
		"nodes":   nodes,
	}
}

// ToJSON encodes v's object form.
func ToJSON(v Serializable) ([]byte, error) {
	data, err := json.Marshal(v.ToObject())
	return data, errors.Wrap(err, "encode json")
}

// ToYAML encodes v's object form.
func ToYAML(v Serializable) ([]byte, error) {
	data, err := yaml.Marshal(v.ToObject())
	return data, errors.Wrap(err, "encode yaml")
}

// FromJSON decodes a single object with FromObject.
func FromJSON(reg *Registry, data []byte) (any, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	return FromObject(reg, obj)
}

// FromYAML decodes a single object with FromObject.
func FromYAML(reg *Registry, data []byte) (any, error) {
	var obj map[string]any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	return FromObject(reg, obj)
}

// FromObject rebuilds the entity described by obj and returns *Node,
// *Camera or *World. Ids already held by reg resolve to the existing
// instance, which gets the decoded properties reapplied. A World object
// populates reg's world. Properties with a non-numeric or non-finite value
// keep their previous value.
func FromObject(reg *Registry, obj map[string]any) (any, error) {
	class, _ := obj[ClassKey].(string)
	switch class {
	case ClassNode:
		return decodeNode(reg, obj)
	case ClassCamera:
		return decodeCamera(reg, obj), nil
	case ClassWorld:
		w := reg.World()
		return w, decodeWorld(reg, w, obj)
	case "":
		return nil, errors.Errorf("object has no %s", ClassKey)
	}
	return nil, errors.Errorf("unknown class %q", class)
}

// LoadWorld decodes a World object into a fresh world. Every camera and node
// entry that fails to decode is reported in the returned error, which is a
// *multierror.Error; the world still holds every entry that decoded.
func LoadWorld(data []byte, format Format) (*World, error) {
	var obj map[string]any
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &obj)
	default:
		err = json.Unmarshal(data, &obj)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", format)
	}
	if class, _ := obj[ClassKey].(string); class != ClassWorld {
		return nil, errors.Errorf("expected %s object, got %q", ClassWorld, class)
	}
	w := NewWorld()
	return w, decodeWorld(w.registry, w, obj)
}

func decodeWorld(reg *Registry, w *World, obj map[string]any) error {
	var result *multierror.Error
	for i, entry := range asList(obj["cameras"]) {
		m, ok := asObject(entry)
		if !ok || m[ClassKey] != ClassCamera {
			result = multierror.Append(result, errors.Errorf("cameras[%d]: not a %s object", i, ClassCamera))
			continue
		}
		w.AddCamera(decodeCamera(reg, m))
	}
	for i, entry := range asList(obj["nodes"]) {
		m, ok := asObject(entry)
		if !ok {
			result = multierror.Append(result, errors.Errorf("nodes[%d]: not an object", i))
			continue
		}
		n, err := decodeNode(reg, m)
		if n != nil {
			w.AddNode(n)
		}
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "nodes[%d]", i))
		}
	}
	return result.ErrorOrNil()
}

// decodeNode returns the node even when some of its children failed.
func decodeNode(reg *Registry, obj map[string]any) (*Node, error) {
	if class, _ := obj[ClassKey].(string); class != ClassNode {
		return nil, errors.Errorf("expected %s object, got %q", ClassNode, class)
	}
	id, _ := obj["id"].(string)
	n := reg.Node(NodeOptions{ID: id})

	if v, ok := number(obj["x"]); ok {
		n.SetX(v)
	}
	if v, ok := number(obj["y"]); ok {
		n.SetY(v)
	}
	if v, ok := number(obj["rotation"]); ok {
		n.SetRotation(v)
	}
	if v, ok := number(obj["scalingX"]); ok {
		n.SetScalingX(v)
	}
	if v, ok := number(obj["scalingY"]); ok {
		n.SetScalingY(v)
	}
	if v, ok := number(obj["width"]); ok {
		n.SetWidth(v)
	}
	if v, ok := number(obj["height"]); ok {
		n.SetHeight(v)
	}
	if v, ok := number(obj["opacity"]); ok {
		n.SetOpacity(v)
	}
	if v, ok := number(obj["zIndex"]); ok {
		n.SetZIndex(int(v))
	}
	if s, ok := obj["kind"].(string); ok {
		if k, ok := ParseNodeKind(s); ok {
			n.SetKind(k)
		}
	}
	if c, ok := decodeColor(obj["fill"]); ok {
		n.Fill = c
	}

	var result *multierror.Error
	for i, entry := range asList(obj["children"]) {
		m, ok := asObject(entry)
		if !ok {
			result = multierror.Append(result, errors.Errorf("children[%d]: not an object", i))
			continue
		}
		child, err := decodeNode(reg, m)
		if child != nil {
			if isAncestor(child, n) {
				result = multierror.Append(result, errors.Errorf("children[%d]: %s would create a cycle", i, child.id))
				continue
			}
			n.AddChild(child)
		}
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "children[%d]", i))
		}
	}
	return n, result.ErrorOrNil()
}

func decodeCamera(reg *Registry, obj map[string]any) *Camera {
	id, _ := obj["id"].(string)
	c := reg.Camera(CameraOptions{ID: id})
	if v, ok := number(obj["x"]); ok {
		c.SetX(v)
	}
	if v, ok := number(obj["y"]); ok {
		c.SetY(v)
	}
	if v, ok := number(obj["rotation"]); ok {
		c.SetRotation(v)
	}
	if v, ok := number(obj["zoom"]); ok {
		c.SetZoom(v)
	}
	if v, ok := number(obj["width"]); ok {
		c.SetWidth(v)
	}
	if v, ok := number(obj["height"]); ok {
		c.SetHeight(v)
	}
	return c
}

// number converts a decoded JSON or YAML scalar to a finite float64.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		var err error
		if f, err = x.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// decodeColor decodes an [r, g, b, a] list.
func decodeColor(v any) (Color, bool) {
	l := asList(v)
	if len(l) != 4 {
		return Color{}, false
	}
	var c [4]float64
	for i, e := range l {
		f, ok := number(e)
		if !ok {
			return Color{}, false
		}
		c[i] = f
	}
	return Color{R: c[0], G: c[1], B: c[2], A: c[3]}, true
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Object:
		return m, true
	}
	return nil, false
}
