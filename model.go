package glctx

// Model is the contract a mesh provider fulfills to participate in a
// context's setup and rendering. glctx does not implement models; the
// geometry format and its loader live outside this layer.
//
// During Context.Setup, BufferSize sizes the shared vertex buffers and
// LoadToVertexBuffers is called once per level of detail with sequentially
// assigned start offsets; the model records the offsets it was given so
// Render can issue draw calls for the right ranges.
type Model interface {
	// MinLOD returns the lowest level-of-detail index the model provides.
	MinLOD() int
	// MaxLOD returns the highest level-of-detail index the model
	// provides.
	MaxLOD() int
	// BufferSize returns the total number of vertices the model will
	// write into c's buffers, summed across all levels of detail.
	BufferSize(c *Context) int
	// LoadToVertexBuffers writes one level of detail's vertex data into
	// c's named buffers starting at startOffset, typically via
	// Context.BuffersForRole, and returns the number of vertices
	// written.
	LoadToVertexBuffers(c *Context, startOffset, lod int) int
	// Render issues the model's draw calls for one level of detail.
	// wireframe selects line rendering; opaqueOnly skips blended parts.
	Render(c *Context, wireframe, opaqueOnly bool, lod int)
}
