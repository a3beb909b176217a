package glctx

// Readiness is the callback-queue primitive resources use to defer work
// until their data has finished loading. Consumers call WhenReady; the
// loader calls MarkReady once, which drains the queue. Work registered
// after that runs immediately.
//
// Resources hold a Readiness by composition rather than embedding, so the
// readiness methods stay off their public API unless explicitly forwarded.
//
// Readiness is not safe for concurrent use; like the rest of glctx it
// belongs to the device thread.
type Readiness struct {
	ready bool
	queue []func()
}

// Ready reports whether MarkReady has been called.
func (r *Readiness) Ready() bool { return r.ready }

// WhenReady runs fn immediately if ready, otherwise queues it.
func (r *Readiness) WhenReady(fn func()) {
	if r.ready {
		fn()
		return
	}
	r.queue = append(r.queue, fn)
}

// MarkReady flips the ready flag and drains the queue in registration
// order. Calling it again is a no-op.
func (r *Readiness) MarkReady() {
	if r.ready {
		return
	}
	r.ready = true
	queued := r.queue
	r.queue = nil
	for _, fn := range queued {
		fn()
	}
}
