// Package kernel provides the CPU edge detection kernels.
//
// These are the reference implementations of the gradient operators: the
// software engine runs them directly, and the compute shaders in the gpu
// package mirror their integer arithmetic step for step so both paths
// produce identical output for identical input.
//
// All kernels read packed BGRA-8 input and write packed RGBA-8 output with
// the edge magnitude replicated across R, G and B and alpha forced opaque.
// Out-of-bounds taps are clamped to the nearest edge texel.
package kernel
