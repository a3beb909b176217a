// Package glctx manages GL-style device resources across rendering contexts.
//
// # Overview
//
// glctx sits between scene-level rendering code and a stateful GL-like
// device. Rendering code describes what a scene needs (textures, cubemaps,
// shaders, vertex data, off-screen targets); glctx tracks how those
// resources map onto the device's limited texture units, program objects,
// and buffer objects, across one or more contexts at once.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/glctx"
//	    "github.com/gogpu/glctx/backend/gl"
//	)
//
//	dev, err := gl.NewDevice()
//	if err != nil {
//	    // driver unsupported: dev is nil, err carries the capability dump
//	}
//	ctx, err := glctx.NewContext("main", dev)
//	if err != nil {
//	    // only fails on a nil device
//	}
//
//	shader, err := glctx.NewShader("phong", vertSrc, fragSrc,
//	    glctx.WithAttributeRoles(map[string]glctx.AttributeRole{
//	        "position": glctx.RolePosition,
//	        "normal":   glctx.RoleNormal,
//	    }))
//	ctx.AddShader(shader)
//	ctx.AddModel(cube)
//	ctx.Setup()
//
//	// per frame
//	shader.AssignUniforms(ctx, map[string]any{
//	    "u_model": modelMatrix,
//	    "u_tex":   texture,
//	})
//	cube.Render(ctx, false, false, 0)
//
// # Architecture
//
// The library is organized into:
//   - Public API: Context, Texture, Cubemap, FrameBuffer, VertexBuffer, Shader
//   - Device abstraction: the Device interface plus typed handles
//   - Backends: backend/gl (OpenGL 4.1 core via go-gl)
//
// # State caching
//
// Every device-state mutation (texture unit binds, current program, blend
// mode, masks, bound attribute arrays) goes through context-owned caches,
// and a call that would not change device state is skipped. The caches are
// the only valid description of device state: issuing device calls outside
// glctx silently desynchronizes them.
//
// # Threading
//
// glctx is strictly single-threaded, matching the device it manages. All
// methods must be called from the thread that owns the device context.
package glctx
