// Package gl implements the glctx Device interface on OpenGL 4.1 core via
// go-gl.
//
// The package assumes a current GL context on the calling thread; window
// and context creation belong to the host application (typically glfw, see
// examples/cube). NewDevice initializes the function pointers, queries the
// driver's limits and extensions into a glctx.Capabilities, and binds a
// single vertex array object that stays bound for the device's lifetime.
//
// All methods must be called from the thread that owns the GL context.
// State caching and redundant-call suppression happen one layer up, in
// glctx.Context; this package issues exactly the calls it is told to.
package gl
