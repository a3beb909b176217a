package glctx

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestInstanceBuffersFillAndBind(t *testing.T) {
	c, dev := newTestContext(t)
	s := attachLitShader(t, c)

	if err := s.CreateInstanceBuffers(c, 0, 3); err != nil {
		t.Fatalf("CreateInstanceBuffers: %v", err)
	}
	for i := 0; i < 3; i++ {
		err := s.AddInstanceData(0, map[string]any{"offset": mgl32.Vec3{float32(i), 0, 0}})
		if err != nil {
			t.Fatalf("AddInstanceData %d: %v", i, err)
		}
	}
	if got := s.InstanceCount(0); got != 3 {
		t.Fatalf("InstanceCount = %d, want 3", got)
	}

	if err := s.BindAndFillInstanceBuffers(c, 0); err != nil {
		t.Fatalf("BindAndFillInstanceBuffers: %v", err)
	}
	if got := dev.count("BufferData"); got != 1 {
		t.Errorf("bind-and-fill issued %d BufferData calls, want 1", got)
	}
	if got := dev.count("VertexAttribDivisor"); got != 1 {
		t.Errorf("bind-and-fill issued %d VertexAttribDivisor calls, want 1", got)
	}
}

func TestInstanceBuffersQueueIsolation(t *testing.T) {
	c, _ := newTestContext(t)
	s := attachLitShader(t, c)

	if err := s.CreateInstanceBuffers(c, 0, 2); err != nil {
		t.Fatalf("CreateInstanceBuffers queue 0: %v", err)
	}
	if err := s.CreateInstanceBuffers(c, 1, 2); err != nil {
		t.Fatalf("CreateInstanceBuffers queue 1: %v", err)
	}
	s.AddInstanceData(0, map[string]any{"offset": mgl32.Vec3{1, 0, 0}})
	s.AddInstanceData(0, map[string]any{"offset": mgl32.Vec3{2, 0, 0}})
	s.AddInstanceData(1, map[string]any{"offset": mgl32.Vec3{3, 0, 0}})

	if got := s.InstanceCount(0); got != 2 {
		t.Errorf("queue 0 InstanceCount = %d, want 2", got)
	}
	if got := s.InstanceCount(1); got != 1 {
		t.Errorf("queue 1 InstanceCount = %d, want 1", got)
	}
}

func TestInstanceBuffersReusedWhenLargeEnough(t *testing.T) {
	c, dev := newTestContext(t)
	s := attachLitShader(t, c)

	if err := s.CreateInstanceBuffers(c, 0, 8); err != nil {
		t.Fatalf("CreateInstanceBuffers: %v", err)
	}
	s.AddInstanceData(0, map[string]any{"offset": mgl32.Vec3{}})
	if err := s.BindAndFillInstanceBuffers(c, 0); err != nil {
		t.Fatalf("BindAndFillInstanceBuffers: %v", err)
	}

	dev.reset()
	// A smaller request fits the existing buffer: no realloc, cursor
	// rewound.
	if err := s.CreateInstanceBuffers(c, 0, 4); err != nil {
		t.Fatalf("CreateInstanceBuffers reuse: %v", err)
	}
	if got := dev.count("DeleteBuffer"); got != 0 {
		t.Errorf("reuse deleted %d device buffers, want 0", got)
	}
	if got := s.InstanceCount(0); got != 0 {
		t.Errorf("InstanceCount after reuse = %d, want 0", got)
	}

	// A larger request must reallocate.
	if err := s.CreateInstanceBuffers(c, 0, 16); err != nil {
		t.Fatalf("CreateInstanceBuffers grow: %v", err)
	}
	if got := dev.count("DeleteBuffer"); got != 1 {
		t.Errorf("grow deleted %d device buffers, want 1", got)
	}
}

func TestInstanceBuffersErrors(t *testing.T) {
	c, _ := newTestContext(t)
	s := attachLitShader(t, c)

	err := s.AddInstanceData(7, map[string]any{"offset": mgl32.Vec3{}})
	if !errors.Is(err, ErrNoInstanceBuffers) {
		t.Errorf("AddInstanceData on missing queue: got %v, want ErrNoInstanceBuffers", err)
	}
	if err := s.BindAndFillInstanceBuffers(c, 7); !errors.Is(err, ErrNoInstanceBuffers) {
		t.Errorf("bind on missing queue: got %v, want ErrNoInstanceBuffers", err)
	}

	if err := s.CreateInstanceBuffers(c, 0, 2); err != nil {
		t.Fatalf("CreateInstanceBuffers: %v", err)
	}
	err = s.AddInstanceData(0, map[string]any{"wrong": mgl32.Vec3{}})
	if err == nil {
		t.Error("AddInstanceData without the declared attribute succeeded")
	}
}

func TestInstanceBuffersUnsupportedDevice(t *testing.T) {
	dev := newFakeDevice()
	dev.caps.Instancing = false
	c, err := NewContext("test", dev)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	s := attachLitShader(t, c)

	if err := s.CreateInstanceBuffers(c, 0, 2); !errors.Is(err, ErrInstancingUnsupported) {
		t.Fatalf("got %v, want ErrInstancingUnsupported", err)
	}
}
