package filter

import (
	"errors"
	"math"
	"sync"
)

// ErrKernelSize is returned when the weight count does not match (2r+1)².
var ErrKernelSize = errors.New("filter: kernel weights do not match radius")

// Kernel is a square (2*Radius+1)×(2*Radius+1) matrix of weights stored
// in row-major order.
type Kernel struct {
	Radius  int
	Weights []float64
}

// NewKernel creates a kernel from row-major weights.
func NewKernel(radius int, weights []float64) (*Kernel, error) {
	if radius < 0 {
		return nil, ErrKernelSize
	}
	side := radius*2 + 1
	if len(weights) != side*side {
		return nil, ErrKernelSize
	}
	w := make([]float64, len(weights))
	copy(w, weights)
	return &Kernel{Radius: radius, Weights: w}, nil
}

// Size returns the side length of the kernel.
func (k *Kernel) Size() int {
	return k.Radius*2 + 1
}

// At returns the weight at offset (dx, dy) from the kernel center.
func (k *Kernel) At(dx, dy int) float64 {
	side := k.Size()
	return k.Weights[(dy+k.Radius)*side+(dx+k.Radius)]
}

// Sum returns the sum of all weights.
func (k *Kernel) Sum() float64 {
	var s float64
	for _, w := range k.Weights {
		s += w
	}
	return s
}

// PositiveSum returns the sum of the strictly positive weights.
// Signed-mode convolution uses it to rescale results into [0, 255].
func (k *Kernel) PositiveSum() float64 {
	var s float64
	for _, w := range k.Weights {
		if w > 0 {
			s += w
		}
	}
	return s
}

// IdentityKernel returns the radius-0 kernel [1].
func IdentityKernel() *Kernel {
	return &Kernel{Radius: 0, Weights: []float64{1}}
}

// MeanKernel generates a box kernel for the given radius.
// All values are equal: 1/(2*radius+1)².
func MeanKernel(radius int) *Kernel {
	if radius <= 0 {
		return IdentityKernel()
	}
	side := radius*2 + 1
	n := side * side
	w := make([]float64, n)
	val := 1.0 / float64(n)
	for i := range w {
		w[i] = val
	}
	return &Kernel{Radius: radius, Weights: w}
}

// gaussian1D generates a normalized 1D Gaussian of the given radius and sigma.
func gaussian1D(radius int, sigma float64) []float64 {
	size := radius*2 + 1
	k := make([]float64, size)

	// G(x) = exp(-x²/(2σ²)); the constant factor cancels on normalization.
	twoSigmaSq := 2 * sigma * sigma
	var sum float64
	for i := 0; i < size; i++ {
		x := float64(i - radius)
		v := math.Exp(-(x * x) / twoSigmaSq)
		k[i] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianKernel generates a 2D Gaussian kernel for the given radius.
// Sigma is radius/3 so the kernel covers three standard deviations, and the
// weights are normalized to sum to 1.0.
//
// For radius <= 0, returns the identity kernel.
func GaussianKernel(radius int) *Kernel {
	if radius <= 0 {
		return IdentityKernel()
	}

	// The 2D Gaussian is separable: G(x,y) = G(x)·G(y), and the outer
	// product of two normalized vectors is itself normalized.
	g := gaussian1D(radius, float64(radius)/3)
	side := len(g)
	w := make([]float64, side*side)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			w[y*side+x] = g[y] * g[x]
		}
	}
	return &Kernel{Radius: radius, Weights: w}
}

// SharpenKernel returns the 3×3 sharpening kernel. Its weights sum to 1.
func SharpenKernel() *Kernel {
	return &Kernel{Radius: 1, Weights: []float64{
		0, -0.5, 0,
		-0.5, 3, -0.5,
		0, -0.5, 0,
	}}
}

// EmbossKernel returns a 3×3 emboss kernel for the direction (dx, dy),
// each component in {-1, 0, 1}. The neighbour in that direction gets weight
// -1 and the opposite neighbour +1, so the kernel sums to zero.
func EmbossKernel(dx, dy int) *Kernel {
	w := make([]float64, 9)
	w[(1+dy)*3+(1+dx)] = -1
	w[(1-dy)*3+(1-dx)] = 1
	return &Kernel{Radius: 1, Weights: w}
}

// SobelHorizontalKernel returns the Sobel kernel responding to horizontal
// intensity change (vertical edges).
func SobelHorizontalKernel() *Kernel {
	return &Kernel{Radius: 1, Weights: []float64{
		-0.5, 0, 0.5,
		-1, 0, 1,
		-0.5, 0, 0.5,
	}}
}

// SobelVerticalKernel returns the Sobel kernel responding to vertical
// intensity change (horizontal edges). It is the transpose of the horizontal
// kernel.
func SobelVerticalKernel() *Kernel {
	return &Kernel{Radius: 1, Weights: []float64{
		-0.5, -1, -0.5,
		0, 0, 0,
		0.5, 1, 0.5,
	}}
}

// kernelCache caches computed Gaussian kernels to avoid recomputation.
// Key is the radius.
type kernelCache struct {
	mu    sync.RWMutex
	cache map[int]*Kernel
}

var defaultKernelCache = &kernelCache{cache: make(map[int]*Kernel)}

// get retrieves a kernel from cache or generates and caches it.
func (c *kernelCache) get(radius int) *Kernel {
	c.mu.RLock()
	if k, ok := c.cache[radius]; ok {
		c.mu.RUnlock()
		return k
	}
	c.mu.RUnlock()

	k := GaussianKernel(radius)

	c.mu.Lock()
	c.cache[radius] = k
	c.mu.Unlock()

	return k
}

// CachedGaussianKernel returns a cached Gaussian kernel for the radius.
// Callers must not modify the returned kernel.
func CachedGaussianKernel(radius int) *Kernel {
	return defaultKernelCache.get(radius)
}
