package glctx

import (
	"fmt"
	"testing"
)

func testTexture(name string) *Texture {
	return NewTexture(name, grayImage(2))
}

func TestBindTextureCacheHit(t *testing.T) {
	c, dev := newTestContext(t)
	tex := testTexture("diffuse")

	unit := c.BindTexture(tex, -1, false)
	if unit != 0 {
		t.Fatalf("first automatic bind got unit %d, want 0", unit)
	}
	if got := dev.count("BindTexture2D"); got != 1 {
		t.Fatalf("first bind issued %d BindTexture2D calls, want 1", got)
	}

	dev.reset()
	if got := c.BindTexture(tex, -1, false); got != unit {
		t.Fatalf("rebind moved texture to unit %d, want %d", got, unit)
	}
	if len(dev.calls) != 0 {
		t.Errorf("rebind of an already-bound texture issued device calls: %v", dev.calls)
	}
}

func TestBindTextureExplicitUnitIsReserved(t *testing.T) {
	c, dev := newTestContext(t)
	pinned := testTexture("shadow")

	if got := c.BindTexture(pinned, 3, false); got != 3 {
		t.Fatalf("explicit bind got unit %d, want 3", got)
	}

	// Fill every other unit, then keep binding new textures. The pinned
	// unit must never be chosen for eviction.
	units := dev.caps.MaxTextureUnits
	for i := 0; i < units*3; i++ {
		c.BindTexture(testTexture(fmt.Sprintf("tex%d", i)), -1, false)
		if got := c.BoundUnit(pinned); got != 3 {
			t.Fatalf("after %d binds pinned texture is at unit %d, want 3", i+1, got)
		}
	}
}

func TestBindTextureRoundRobinEviction(t *testing.T) {
	c, _ := newTestContext(t)
	units := c.Capabilities().MaxTextureUnits

	first := make([]*Texture, units)
	for i := range first {
		first[i] = testTexture(fmt.Sprintf("tex%d", i))
		if got := c.BindTexture(first[i], -1, false); got != i {
			t.Fatalf("bind %d got unit %d, want %d", i, got, i)
		}
	}

	// The table is full. Successive binds must walk distinct units rather
	// than hammering one slot.
	extraA := testTexture("extraA")
	extraB := testTexture("extraB")
	unitA := c.BindTexture(extraA, -1, false)
	unitB := c.BindTexture(extraB, -1, false)
	if unitA == 0 {
		t.Error("eviction on a full table hammered unit 0 instead of rotating")
	}
	if unitA == unitB {
		t.Errorf("consecutive evictions reused unit %d; rotation should spread them", unitA)
	}

	// A full rotation must touch every unit before repeating one.
	seen := map[int]bool{unitA: true, unitB: true}
	for i := 2; i < units; i++ {
		seen[c.BindTexture(testTexture(fmt.Sprintf("extra%d", i)), -1, false)] = true
	}
	if len(seen) != units {
		t.Errorf("rotation visited %d distinct units out of %d", len(seen), units)
	}

	// The evicted texture's placement record must be gone.
	if got := c.BoundUnit(first[unitA]); got != -1 {
		t.Errorf("evicted texture still reports unit %d, want -1", got)
	}
	if got := c.BoundUnit(extraA); got != unitA {
		t.Errorf("evicting texture reports unit %d, want %d", got, unitA)
	}
}

func TestBindTextureReusesLastUnit(t *testing.T) {
	c, dev := newTestContext(t)
	a := testTexture("a")
	b := testTexture("b")

	unitA := c.BindTexture(a, -1, false)
	c.BindTexture(b, -1, false)

	dev.reset()
	if got := c.BindTexture(a, -1, false); got != unitA {
		t.Fatalf("rebind moved texture to unit %d, want %d", got, unitA)
	}
	if len(dev.calls) != 0 {
		t.Errorf("rebind issued device calls: %v", dev.calls)
	}
}

func TestReserveAndReleaseTextureUnit(t *testing.T) {
	c, _ := newTestContext(t)
	units := c.Capabilities().MaxTextureUnits
	held := testTexture("held")

	unit := c.ReserveTextureUnit(held)
	for i := 0; i < units*2; i++ {
		c.BindTexture(testTexture(fmt.Sprintf("filler%d", i)), -1, false)
	}
	if got := c.BoundUnit(held); got != unit {
		t.Fatalf("reserved texture evicted from unit %d to %d", unit, got)
	}

	c.ReleaseTextureUnit(held)
	for i := 0; i < units*2; i++ {
		c.BindTexture(testTexture(fmt.Sprintf("after%d", i)), -1, false)
	}
	if got := c.BoundUnit(held); got != -1 {
		t.Errorf("released texture survived %d evicting binds at unit %d", units*2, got)
	}
}

func TestBindTextureCacheHitUpdatesReservation(t *testing.T) {
	c, _ := newTestContext(t)
	units := c.Capabilities().MaxTextureUnits
	tex := testTexture("promoted")

	unit := c.BindTexture(tex, -1, false)
	// Rebinding with reserve must pin the unit even though the bind itself
	// is a cache hit.
	if got := c.BindTexture(tex, -1, true); got != unit {
		t.Fatalf("reserving rebind moved texture to unit %d, want %d", got, unit)
	}
	for i := 0; i < units*2; i++ {
		c.BindTexture(testTexture(fmt.Sprintf("filler%d", i)), -1, false)
	}
	if got := c.BoundUnit(tex); got != unit {
		t.Errorf("texture reserved via cache-hit rebind was evicted to unit %d", got)
	}
}

func TestActiveUnitCallSuppressed(t *testing.T) {
	c, dev := newTestContext(t)
	a := testTexture("a")
	b := testTexture("b")

	c.BindTexture(a, 2, false)
	dev.reset()
	// Unit 2 is active; binding another texture there must not reselect it.
	c.BindTexture(b, 2, false)
	if got := dev.count("ActiveTexture"); got != 0 {
		t.Errorf("bind at the already-active unit issued %d ActiveTexture calls, want 0", got)
	}
	if got := dev.count("BindTexture2D"); got != 1 {
		t.Errorf("bind issued %d BindTexture2D calls, want 1", got)
	}
}
