// Package arbor is the transform-cache and render-tree core of a retained-mode
// 2D scene graph.
//
// A [World] owns root [Node]s, each owning its children, and the [Camera]s
// that frame it. Every node and camera embeds a [Transform]: position,
// rotation in degrees, scale and a rectangle size. Everything derived from
// those parameters (constituent matrices, the composed local matrix and its
// inverse, vertices, world and camera-combined matrices) is memoized in the
// entity's [Cache] and invalidated exactly when a contributing property
// changes, including when a camera associated with the node's world moves.
//
// # Quick start
//
//	world := arbor.NewWorld()
//	cam := arbor.NewCamera(arbor.CameraOptions{X: 320, Y: 240, Width: 640, Height: 480})
//	world.AddCamera(cam)
//
//	box := arbor.NewNode(arbor.NodeOptions{
//		Kind: arbor.KindRectangle, X: 100, Y: 50, Width: 80, Height: 40,
//		Fill: &arbor.Color{R: 0.3, G: 0.7, B: 1, A: 1},
//	})
//	world.AddNode(box)
//
//	canvas := arbor.NewCanvas(raster.New(640, 480), arbor.CanvasOptions{CullMode: arbor.CullSubtree})
//	canvas.SetCamera(cam)
//	if err := canvas.Render(); err != nil {
//		// errors.Is(err, arbor.ErrNoCamera) or arbor.ErrNoWorld
//	}
//
// [Run] opens an Ebitengine window around a canvas instead.
//
// # Caching
//
// Cache units are declared with dependencies; invalidating a unit cascades
// to every dependent. Property setters are the only mutation path and each
// invalidates the unit it feeds. Reading a derived value twice without an
// intervening change does no matrix work the second time.
//
// # Rendering
//
// Each frame the walker skips zero-opacity subtrees, culls nodes whose
// rectangle misses the viewport (see [CullMode]), applies each node's local
// matrix to the [Surface], clips to masks, and calls the node's draw routine
// before visiting its children in ZIndex order.
//
// # Persistence
//
// Nodes, cameras and worlds round-trip through [Object] maps, JSON and YAML.
// A world's [Registry] guarantees that decoding an id it already holds
// yields the existing instance.
package arbor
