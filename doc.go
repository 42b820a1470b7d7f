// Package gpuframe is a GPU-resident image pipeline for video frames.
//
// # Overview
//
// Frames arrive as host buffers (packed RGB, RGBA, YUV 4:2:2 or planar
// YUV 4:2:0), are uploaded to pooled textures, transformed by render
// passes (colorspace conversion, rescaling, deinterlacing, dissolves and
// filters) and read back in any host format. Luma-wipe transitions run on
// the CPU over packed 4:2:2 buffers.
//
// # Quick Start
//
//	env, err := gpuframe.Open("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer env.Close()
//
//	f := gpuframe.NewFrame(yuv, gpuframe.FormatYUV420P, 1920, 1080, gpuframe.Colorspace709)
//	if err := env.Rescale(f, 1280, 720); err != nil {
//	    log.Fatal(err)
//	}
//	if err := env.ConvertImage(f, gpuframe.FormatRGBA, 0, 0); err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment and Context
//
// An Environment owns a backend and every resource allocated on it. Work
// happens inside Environment.Do, which holds the context lock and makes
// the backend current for the duration of the callback. The Context passed
// to the callback carries the pool, shader cache and render operations and
// is invalid once Do returns.
//
// Pools hand out textures and framebuffers by exact size and format and
// never free them before Close, so steady-state frame processing performs
// no allocations on the device.
//
// # Backends
//
// The backend package defines the GraphicsBackend boundary. Two
// implementations register themselves on import:
//
//	import _ "github.com/gogpu/gpuframe/backend/native"   // wgpu/hal, Vulkan
//	import _ "github.com/gogpu/gpuframe/backend/software" // CPU reference
//
// Every program carries WGSL for the native backend and an equivalent CPU
// kernel for the software backend.
//
// # Logging
//
// gpuframe logs through log/slog and is silent by default. See SetLogger.
package gpuframe
