// Package backend defines the boundary between the frame pipeline and the
// graphics API that executes it.
//
// A GraphicsBackend owns GPU objects and hands out opaque handles for them:
// textures, framebuffers, staging buffers and compiled programs. The pipeline
// describes each render pass with a Pass value and never touches API objects
// directly.
//
// # Programs
//
// Every program carries two renditions of the same fragment stage: WGSL for
// GPU backends and a Kernel for CPU execution. Both read their inputs the same
// way: texture coordinates in texel units (rectangle-texture convention),
// uniforms looked up by name for each draw.
//
// # Registration
//
// Backends register a factory from init():
//
//	import _ "github.com/gogpu/gpuframe/backend/software"
//
//	b, err := backend.Open("software")
//
// OpenDefault returns the first backend that opens successfully, preferring
// hardware backends.
//
// # Context discipline
//
// Backends are not safe for concurrent use. Callers bracket every call with
// MakeCurrent and DoneCurrent while holding their own lock.
package backend
