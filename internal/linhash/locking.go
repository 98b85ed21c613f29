package linhash

// lockSlotForWrite resolves hash h to its logical bucket slot, locks
// the stripe that owns that slot for writing, and returns the stripe
// array used (so the caller can unlock the same snapshot even if a
// resize swaps t.stripes concurrently) together with a pointer to the
// bucket head.
func (t *Table) lockSlotForWrite(h uint32) (*stripeArray, **entry) {
	sa := t.stripes.Load()
	slot := t.slotFor(h)
	st := t.stripeForSlot(sa, slot)
	st.lockWrite()
	seg := t.segTable.Load()
	return sa, seg.bucketSlot(slot)
}

func (t *Table) lockSlotForRead(h uint32) (*stripeArray, **entry) {
	sa := t.stripes.Load()
	slot := t.slotFor(h)
	st := t.stripeForSlot(sa, slot)
	st.lockRead()
	seg := t.segTable.Load()
	return sa, seg.bucketSlot(slot)
}

func (t *Table) unlockSlot(sa *stripeArray, h uint32) {
	slot := t.slotFor(h)
	st := t.stripeForSlot(sa, slot)
	st.unlockWrite()
	t.onStripeUnlocked(st)
}

func (t *Table) unlockSlotRead(sa *stripeArray, h uint32) {
	slot := t.slotFor(h)
	st := t.stripeForSlot(sa, slot)
	st.unlockRead()
}

// stripeForSlot resolves the stripe owning slot under the given
// snapshot of the stripe array.
func (t *Table) stripeForSlot(sa *stripeArray, slot uint64) *stripe {
	return sa.stripeForSlot(slot)
}

// onStripeUnlocked runs C7's contention observation after releasing a
// write lock, staging (but not performing) a stripe-array resize.
func (t *Table) onStripeUnlocked(st *stripe) {
	if t.opts.Locking != FineAuto {
		return
	}
	switch observeContention(st) {
	case growResize:
		t.requestStripeResize(growResize)
	case shrinkResize:
		t.requestStripeResize(shrinkResize)
	}
}
