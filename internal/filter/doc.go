// Package filter provides the pixel filters behind darkroom's operations.
//
// This package contains:
//   - The convolution engine (square kernels, edge-clamped sampling,
//     standard and signed output mapping)
//   - Kernel builders: mean, Gaussian, sharpen, emboss, Sobel
//   - Median filtering
//   - Color matrix transformations (greyscale, invert, channel cycling,
//     brightness/contrast)
//   - Block averaging and random scattering
//
// Every function is pure: it reads its source pixmap and returns a freshly
// allocated result, so identical inputs always produce identical outputs.
package filter
