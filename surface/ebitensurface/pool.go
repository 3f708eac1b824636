package ebitensurface

import (
	"image"
	"math/bits"

	"github.com/hajimehoshi/ebiten/v2"
)

// imagePool recycles offscreen images used for clip masks and clipped
// layers, keyed by power-of-two dimensions.
type imagePool struct {
	buckets map[uint64][]*ebiten.Image
	inUse   []*ebiten.Image
}

func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// acquire returns a cleared image of at least w×h pixels. It stays in use
// until releaseAll.
func (p *imagePool) acquire(w, h int) *ebiten.Image {
	pw, ph := nextPowerOfTwo(w), nextPowerOfTwo(h)
	key := poolKey(pw, ph)

	var img *ebiten.Image
	if stack := p.buckets[key]; len(stack) > 0 {
		img = stack[len(stack)-1]
		p.buckets[key] = stack[:len(stack)-1]
		img.Clear()
	} else {
		img = ebiten.NewImageWithOptions(image.Rect(0, 0, pw, ph), &ebiten.NewImageOptions{Unmanaged: true})
	}
	p.inUse = append(p.inUse, img)
	return img
}

// releaseAll returns every acquired image to the pool.
func (p *imagePool) releaseAll() {
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	for i, img := range p.inUse {
		b := img.Bounds()
		key := poolKey(b.Dx(), b.Dy())
		p.buckets[key] = append(p.buckets[key], img)
		p.inUse[i] = nil
	}
	p.inUse = p.inUse[:0]
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
