package glctx

// BindTexture maps a bindable resource (texture, cubemap, or framebuffer
// target) onto a hardware texture unit and returns the unit index.
//
// Pass unit >= 0 to pin the resource to that unit; an explicit unit is
// always marked reserved. Pass unit < 0 to let the allocator choose:
//
//   - the resource's last-used unit is reused when it is free or still
//     holds this resource,
//   - otherwise the first free unit is taken,
//   - otherwise a rotating cursor picks the next non-reserved unit and
//     evicts its occupant.
//
// A bind that resolves to a unit already holding the resource issues no
// device calls; the reservation flag is still updated so reservation state
// reflects the latest call's intent. Reserving more units than the device
// has is a caller error the allocator does not defend against.
func (c *Context) BindTexture(res TextureBinder, unit int, reserve bool) int {
	id := res.binderID()
	if unit >= 0 {
		reserve = true
	} else {
		unit = c.chooseUnit(id)
	}

	slot := &c.units[unit]
	if slot.binder != nil && slot.binder.binderID() == id {
		// Cache hit: the unit already holds this resource.
		slot.reserved = reserve
		c.lastUnit[id] = unit
		return unit
	}
	if slot.binder != nil {
		// The evicted resource's last-unit record is now stale.
		delete(c.lastUnit, slot.binder.binderID())
		Logger().Debug("glctx: texture unit evicted",
			"context", c.name, "unit", unit,
			"evicted", slot.binder.binderName(), "bound", res.binderName())
	}
	c.setActiveUnit(unit)
	res.bindAtActiveUnit(c)
	slot.binder = res
	slot.reserved = reserve
	c.lastUnit[id] = unit
	return unit
}

// chooseUnit picks a unit for an automatic bind: last-used unit, first
// free unit, or rotation.
func (c *Context) chooseUnit(id resourceID) int {
	if last, ok := c.lastUnit[id]; ok {
		slot := c.units[last]
		if slot.binder == nil || slot.binder.binderID() == id {
			return last
		}
	}
	for i := range c.units {
		if c.units[i].binder == nil {
			return i
		}
	}
	// All units occupied: advance the cursor past reserved units. The
	// extra bound keeps a fully reserved table from spinning forever;
	// that configuration is a caller error.
	for range c.units {
		c.rotation = (c.rotation + 1) % len(c.units)
		if !c.units[c.rotation].reserved {
			break
		}
	}
	return c.rotation
}

// ReserveTextureUnit pins the resource's current unit, or binds and pins
// it if not bound. Equivalent to BindTexture(res, -1, true).
func (c *Context) ReserveTextureUnit(res TextureBinder) int {
	return c.BindTexture(res, -1, true)
}

// ReleaseTextureUnit drops the reservation on the unit holding the
// resource, if any, without unbinding it.
func (c *Context) ReleaseTextureUnit(res TextureBinder) {
	unit, ok := c.lastUnit[res.binderID()]
	if !ok {
		return
	}
	slot := &c.units[unit]
	if slot.binder != nil && slot.binder.binderID() == res.binderID() {
		slot.reserved = false
	}
}

// BoundUnit returns the unit currently holding the resource, or -1.
func (c *Context) BoundUnit(res TextureBinder) int {
	unit, ok := c.lastUnit[res.binderID()]
	if !ok {
		return -1
	}
	slot := c.units[unit]
	if slot.binder == nil || slot.binder.binderID() != res.binderID() {
		return -1
	}
	return unit
}

// setActiveUnit selects the device's active texture unit, skipping the
// call when the cache shows it is already selected.
func (c *Context) setActiveUnit(unit int) {
	if c.activeUnit == unit {
		return
	}
	c.dev.ActiveTexture(unit)
	c.activeUnit = unit
}

// forgetBoundTexture clears every unit record and the last-unit entry for
// a resource being removed from the context. No device call is issued; the
// caller is deleting the device object anyway.
func (c *Context) forgetBoundTexture(id resourceID) {
	for i := range c.units {
		if c.units[i].binder != nil && c.units[i].binder.binderID() == id {
			c.units[i] = unitSlot{}
		}
	}
	delete(c.lastUnit, id)
}
