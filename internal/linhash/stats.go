package linhash

import "math"

// Stats is a point-in-time diagnostic snapshot of a table's internal
// shape, modeled on ets:info/1 and the slot-level detail of erl_db_hash
// .c's db_calc_stats (spec.md §4.10 "Supplemented features").
type Stats struct {
	Size                int64
	NumSlots            uint64
	NumSegments         int
	NumStripes          int
	FixCount            int64
	PseudoDeletePending bool
	MinChainLen         int
	MaxChainLen         int
	AvgChainLen         float64
	StdDevChainLen      float64
}

// Stats computes a full snapshot, walking every bucket under a read
// lock per stripe. It is intended for operator diagnostics, not hot
// paths: cost is linear in the number of slots.
func (t *Table) Stats() Stats {
	sa := t.stripes.Load()
	seg := t.segTable.Load()
	nslots := t.currentNslots()

	var (
		totalLive  int64
		minLen     = -1
		maxLen     int
		lens       = make([]int, 0, nslots)
	)

	for slot := uint64(0); slot < nslots; slot++ {
		st := sa.stripeForSlot(slot)
		st.lockRead()
		bucket := seg.bucketSlot(slot)
		n := 0
		for e := *bucket; e != nil; e = e.next {
			if e.pseudoDeleted {
				continue
			}
			n++
		}
		st.unlockRead()

		lens = append(lens, n)
		totalLive += int64(n)
		if minLen == -1 || n < minLen {
			minLen = n
		}
		if n > maxLen {
			maxLen = n
		}
	}
	if minLen == -1 {
		minLen = 0
	}

	avg := 0.0
	if len(lens) > 0 {
		avg = float64(totalLive) / float64(len(lens))
	}
	var variance float64
	for _, n := range lens {
		d := float64(n) - avg
		variance += d * d
	}
	if len(lens) > 0 {
		variance /= float64(len(lens))
	}

	return Stats{
		Size:                t.count.Load(),
		NumSlots:            nslots,
		NumSegments:         len(seg.segments),
		NumStripes:          sa.l(),
		FixCount:            t.fix.count.Load(),
		PseudoDeletePending: t.fix.log.Load() != nil,
		MinChainLen:         minLen,
		MaxChainLen:         maxLen,
		AvgChainLen:         avg,
		StdDevChainLen:      math.Sqrt(variance),
	}
}

// SlotLen reports the number of live entries currently chained under
// slot, matching ets:info(Tab, {slot, I}) and erl_db_hash.c's
// db_calc_stats per-slot detail. Returns -1 if slot is out of range.
func (t *Table) SlotLen(slot uint64) int {
	if slot >= t.currentNslots() {
		return -1
	}
	sa := t.stripes.Load()
	seg := t.segTable.Load()
	st := sa.stripeForSlot(slot)
	st.lockRead()
	defer st.unlockRead()
	n := 0
	for e := *seg.bucketSlot(slot); e != nil; e = e.next {
		if !e.pseudoDeleted {
			n++
		}
	}
	return n
}
