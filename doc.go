// Package mesh is a geometry and pixel core for GPU mesh rendering in Go.
//
// # Overview
//
// mesh loads polygon meshes from PLY files, stages typed vertex attributes
// for GPU submission and converts texture pixels between packed formats.
// Rendering goes through the gogpu stack (gputypes, wgpu/hal, naga), so the
// same code drives a real device, the headless noop backend, or an
// in-memory recorder.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/mesh/gpu"
//	    "github.com/gogpu/mesh/model"
//	    "github.com/gogpu/mesh/ply"
//	)
//
//	m, err := model.NewFromFile("bunny.ply", ply.NegateY)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rec := gpu.NewRecorder()
//	if err := m.Paint(rec, model.Allocation{Width: 640, Height: 480}); err != nil {
//	    log.Fatal(err)
//	}
//
// # Architecture
//
// The module is organized into:
//   - mesh: shared value types (Vertex, Box), error classes and the logger
//   - pixel: pixel formats, buffers, conversion and region blits
//   - texture: texture objects backed by pixel buffers
//   - vbuf: vertex attribute staging, index lists and draw validation
//   - ply: PLY parsing, the mesh data store and a load cache
//   - material, model: paintable meshes with fit-to-allocation
//   - gpu: the draw backend contract and its implementations
//
// # Errors
//
// Every error returned by the module wraps one of the classes declared in
// this package ([ErrIO], [ErrParse], [ErrValidation], [ErrArgument],
// [ErrNotFound]). Use [errors.Is] to classify a failure.
//
// # Logging
//
// The module is silent by default. Call [SetLogger] to route diagnostics to
// a [log/slog] logger.
package mesh
