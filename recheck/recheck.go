// Package recheck verifies, against live timing records, that a ranked
// candidate can still take the requested slot. The upstream slot map is
// a cached precomputation and may be stale by the time allocation runs.
package recheck

import (
	"context"
	"log"

	"urbane/models"
	"urbane/slots"
	"urbane/store"

	"golang.org/x/sync/errgroup"
)

// Miss records why a candidate was passed over.
type Miss struct {
	PartnerID string `json:"partnerId"`
	Reason    string `json:"reason,omitempty"`
}

// Outcome of the first-fit walk.
type Outcome struct {
	Available bool
	PartnerID string
	Misses    []Miss
}

const (
	ReasonNonWorking = "Partner is not available Due to Non working slots"
	ReasonLeave      = "Partner is on leave"
)

type Checker struct {
	Store store.Store
}

func NewChecker(st store.Store) *Checker {
	return &Checker{Store: st}
}

// FirstFit walks the ranked candidates in order and picks the first one
// whose timing record still admits slotNo. Timing records are fetched
// up front in parallel; the decision walk itself is sequential so rank
// order is honored. A partner whose record cannot be fetched is skipped
// without a recorded miss.
func (c *Checker) FirstFit(
	ctx context.Context,
	slotNo int,
	ranked []string,
	dateID string,
	booking *models.Booking,
	reschedule bool,
) (Outcome, error) {
	type fetched struct {
		timing *models.PartnerTiming
		err    error
	}
	records := make([]fetched, len(ranked))

	g, gctx := errgroup.WithContext(ctx)
	for i, partnerID := range ranked {
		g.Go(func() error {
			t, err := c.Store.Timing(gctx, partnerID, dateID)
			records[i] = fetched{timing: t, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var out Outcome
	for i, partnerID := range ranked {
		rec := records[i]
		if rec.err == store.ErrNotFound {
			// no record yet means every working slot is open
			out.Available = true
			out.PartnerID = partnerID
			return out, nil
		}
		if rec.err != nil {
			log.Printf("recheck: skipping %s, timing fetch failed: %v", partnerID, rec.err)
			continue
		}
		t := rec.timing

		// a reschedule can self-match on its own booked slots, but not
		// when the partner has since taken leave over them
		if reschedule && overlaps(booking.BookedSlots, t.Leave) && slots.Contains(t.Leave, slotNo) {
			out.Misses = append(out.Misses, Miss{PartnerID: partnerID, Reason: ReasonLeave})
			continue
		}

		if slots.Contains(t.Available, slotNo) {
			out.Available = true
			out.PartnerID = partnerID
			return out, nil
		}
		if reschedule && slots.Contains(t.Booked, slotNo) && slots.Contains(booking.BookedSlots, slotNo) {
			out.Available = true
			out.PartnerID = partnerID
			return out, nil
		}

		// booked by someone else is not a missed lead; only slots the
		// partner chose to close get a reason recorded
		switch {
		case slots.Contains(t.NonWorkingSlots, slotNo):
			out.Misses = append(out.Misses, Miss{PartnerID: partnerID, Reason: ReasonNonWorking})
		case slots.Contains(t.Leave, slotNo):
			out.Misses = append(out.Misses, Miss{PartnerID: partnerID, Reason: ReasonLeave})
		}
	}

	return out, nil
}

func overlaps(a, b []int) bool {
	for _, x := range a {
		if slots.Contains(b, x) {
			return true
		}
	}
	return false
}
