package glctx

import (
	"errors"
	"fmt"
)

// Instanced rendering errors.
var (
	// ErrNoInstanceBuffers is returned when filling or binding a queue
	// index that was never created.
	ErrNoInstanceBuffers = errors.New("glctx: instance buffers not created for queue")

	// ErrInstancingUnsupported is returned when the device lacks
	// instanced rendering.
	ErrInstancingUnsupported = errors.New("glctx: instancing not supported by device")
)

// CreateInstanceBuffers lazily allocates or resizes one retained vertex
// buffer per instance attribute, sized for instanceCount instances. The
// queue index keeps independent batches using the same shader from
// clobbering each other's buffers across frames.
//
// Existing buffers large enough for instanceCount are reused with their
// write cursors rewound; smaller ones are released in c and reallocated.
func (s *Shader) CreateInstanceBuffers(c *Context, queueIndex, instanceCount int) error {
	if len(s.instanceAttrs) == 0 {
		return nil
	}
	if !c.caps.Instancing {
		return fmt.Errorf("%w: shader %q", ErrInstancingUnsupported, s.name)
	}
	buffers := s.instanceBuffers[queueIndex]
	if buffers == nil {
		buffers = make([]*VertexBuffer, len(s.instanceAttrs))
		s.instanceBuffers[queueIndex] = buffers
	}
	for i, attr := range s.instanceAttrs {
		if vb := buffers[i]; vb != nil && vb.Capacity() >= instanceCount {
			vb.Reset()
			continue
		}
		if vb := buffers[i]; vb != nil {
			vb.Delete(c)
		}
		buffers[i] = NewVertexBuffer(attr.Name, attr.Arity, instanceCount, WithRetainedData())
	}
	return nil
}

// AddInstanceData appends one instance's worth of data: for each instance
// attribute, the value that would otherwise have been a per-draw uniform.
// Values convert like vector uniforms (mgl32 vectors, fixed-size arrays,
// []float32, or plain numbers for arity-1 attributes).
func (s *Shader) AddInstanceData(queueIndex int, values map[string]any) error {
	buffers, ok := s.instanceBuffers[queueIndex]
	if !ok {
		return fmt.Errorf("%w %d: shader %q", ErrNoInstanceBuffers, queueIndex, s.name)
	}
	for i, attr := range s.instanceAttrs {
		value, ok := values[attr.Name]
		if !ok {
			return fmt.Errorf("glctx: shader %q instance attribute %q missing from data", s.name, attr.Name)
		}
		var comps []float32
		if attr.Arity == 1 {
			f, ok := toFloat32(value)
			if !ok {
				return fmt.Errorf("glctx: cannot convert %T for instance attribute %q", value, attr.Name)
			}
			comps = []float32{f}
		} else {
			var ok bool
			comps, ok = toComponents(value, attr.Arity)
			if !ok {
				return fmt.Errorf("glctx: cannot convert %T for instance attribute %q", value, attr.Name)
			}
		}
		if err := buffers[i].AddVector(comps...); err != nil {
			return err
		}
	}
	return nil
}

// InstanceCount returns the number of instances written to the queue's
// buffers since they were (re)created.
func (s *Shader) InstanceCount(queueIndex int) int {
	buffers, ok := s.instanceBuffers[queueIndex]
	if !ok || len(buffers) == 0 {
		return 0
	}
	return buffers[0].Len()
}

// BindAndFillInstanceBuffers uploads the queue's buffers to c and binds
// them with a per-instance divisor, collapsing what would be N identical
// draws with varying uniforms into one instanced draw.
func (s *Shader) BindAndFillInstanceBuffers(c *Context, queueIndex int) error {
	buffers, ok := s.instanceBuffers[queueIndex]
	if !ok {
		return fmt.Errorf("%w %d: shader %q", ErrNoInstanceBuffers, queueIndex, s.name)
	}
	for _, vb := range buffers {
		if err := vb.Upload(c); err != nil {
			return err
		}
		vb.bind(c, s, 1)
	}
	return nil
}

// deleteInstanceBuffers releases every queue's device buffers in c.
// Called when the shader is removed from the context.
func (s *Shader) deleteInstanceBuffers(c *Context) {
	for _, buffers := range s.instanceBuffers {
		for _, vb := range buffers {
			if vb != nil {
				vb.Delete(c)
			}
		}
	}
}
