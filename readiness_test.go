package glctx

import "testing"

func TestReadinessQueuesUntilReady(t *testing.T) {
	var r Readiness
	var order []int

	r.WhenReady(func() { order = append(order, 1) })
	r.WhenReady(func() { order = append(order, 2) })
	if r.Ready() {
		t.Fatal("Ready before MarkReady")
	}
	if len(order) != 0 {
		t.Fatal("queued work ran before MarkReady")
	}

	r.MarkReady()
	if !r.Ready() {
		t.Fatal("not Ready after MarkReady")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("queue drained as %v, want [1 2]", order)
	}

	// After the flip, work runs immediately.
	r.WhenReady(func() { order = append(order, 3) })
	if len(order) != 3 {
		t.Fatal("work registered after MarkReady did not run immediately")
	}
}

func TestReadinessMarkReadyIdempotent(t *testing.T) {
	var r Readiness
	runs := 0
	r.WhenReady(func() { runs++ })
	r.MarkReady()
	r.MarkReady()
	if runs != 1 {
		t.Fatalf("queued work ran %d times, want 1", runs)
	}
}

func TestPendingTextureUploadsOnSetImage(t *testing.T) {
	c, dev := newTestContext(t)
	tex := NewPendingTexture("streamed")

	c.AddTexture(tex)
	if got := dev.count("CreateTexture"); got != 0 {
		t.Fatalf("pending texture uploaded before its image arrived (%d CreateTexture calls)", got)
	}

	tex.SetImage(grayImage(4))
	if got := dev.count("CreateTexture"); got != 1 {
		t.Errorf("SetImage triggered %d CreateTexture calls, want 1", got)
	}
	if got := dev.count("TexImage2D"); got != 1 {
		t.Errorf("SetImage triggered %d TexImage2D calls, want 1", got)
	}
	if w, h := tex.Size(); w != 4 || h != 4 {
		t.Errorf("Size = %dx%d, want 4x4", w, h)
	}
}
