// Package scorer turns the raw eligibility list from the slot map into
// a ranked candidate order.
package scorer

import (
	"context"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"urbane/models"
	"urbane/store"

	"golang.org/x/sync/errgroup"
)

// Weights is the business scoring policy. Distance deliberately carries
// zero weight today (workload/rating-driven dispatch); it stays in the
// table so operations can turn it back on without a deploy.
type Weights struct {
	Distance     float64
	Rank         float64
	BookingLoad  float64
	Rating       float64
	Cancellation float64
}

// Maxima normalizes raw component values.
type Maxima struct {
	Distance float64
	Rank     float64
	Bookings float64
	Rating   float64
}

func DefaultWeights() Weights {
	return Weights{
		Distance:     envFloat("SCORE_WEIGHT_DISTANCE", 0.0),
		Rank:         envFloat("SCORE_WEIGHT_RANK", 0.1),
		BookingLoad:  envFloat("SCORE_WEIGHT_BOOKING_LOAD", 0.4),
		Rating:       envFloat("SCORE_WEIGHT_RATING", 0.2),
		Cancellation: envFloat("SCORE_WEIGHT_CANCELLATION", -0.3),
	}
}

func DefaultMaxima() Maxima {
	return Maxima{Distance: 10000, Rank: 10000, Bookings: 3, Rating: 5}
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Candidate is a partner enriched with everything the score needs.
type Candidate struct {
	ID               string
	Distance         float64
	Rank             float64
	Bookings         int
	AvgRating        float64
	CancellationRate float64
	Score            float64
}

// DistanceFunc resolves partner-to-booking distance; it must degrade to
// +Inf rather than fail.
type DistanceFunc func(ctx context.Context, partnerLat, partnerLng, lat, lng float64) float64

// Ranker enriches and orders candidates.
type Ranker struct {
	Store    store.Store
	Distance DistanceFunc
	Weights  Weights
	Maxima   Maxima
}

func NewRanker(st store.Store, dist DistanceFunc) *Ranker {
	return &Ranker{Store: st, Distance: dist, Weights: DefaultWeights(), Maxima: DefaultMaxima()}
}

func (r *Ranker) score(c *Candidate) float64 {
	// an unreachable partner times -Inf only when distance actually
	// carries weight, otherwise 0*Inf would poison the sum with NaN
	var distanceTerm float64
	if r.Weights.Distance != 0 {
		distanceScore := 1 - c.Distance/r.Maxima.Distance
		if math.IsInf(c.Distance, 1) {
			distanceScore = math.Inf(-1)
		}
		distanceTerm = distanceScore * r.Weights.Distance
	}
	rankScore := c.Rank / r.Maxima.Rank
	bookingScore := 1 - float64(c.Bookings)/r.Maxima.Bookings
	ratingScore := c.AvgRating / r.Maxima.Rating
	cancellationScore := c.CancellationRate / 100

	return distanceTerm +
		rankScore*r.Weights.Rank +
		bookingScore*r.Weights.BookingLoad +
		ratingScore*r.Weights.Rating +
		cancellationScore*r.Weights.Cancellation
}

// Rank enriches every referenced partner (profile, day workload,
// distance) and orders them best first. Partners with no profile
// document are dropped. When rescheduling toward an explicit preferred
// partner the upstream order is preserved and that partner is moved to
// the front instead of sorting by score.
func (r *Ranker) Rank(
	ctx context.Context,
	refs []models.PartnerRef,
	lat, lng float64,
	day time.Time,
	reschedule bool,
	preferredPartner string,
) ([]Candidate, error) {
	type enriched struct {
		candidate Candidate
		lat, lng  float64
		ok        bool
	}
	rows := make([]enriched, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			profile, err := r.Store.Partner(gctx, ref.ID)
			if err == store.ErrNotFound {
				log.Printf("scorer: dropping candidate %s, profile missing", ref.ID)
				return nil
			}
			if err != nil {
				return err
			}
			count, err := r.Store.PartnerDayBookingCount(gctx, ref.ID, day)
			if err != nil {
				return err
			}
			rows[i] = enriched{
				candidate: Candidate{
					ID:               ref.ID,
					Rank:             profile.Rank,
					Bookings:         count,
					AvgRating:        profile.AvgRating,
					CancellationRate: profile.CancellationRate,
				},
				lat: profile.Latitude,
				lng: profile.Longitude,
				ok:  true,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	coords := make([][2]float64, 0, len(refs))
	candidates := make([]Candidate, 0, len(refs))
	for _, row := range rows {
		if !row.ok {
			continue
		}
		candidates = append(candidates, row.candidate)
		coords = append(coords, [2]float64{row.lat, row.lng})
	}

	// distance lookups are independent of each other
	g2, g2ctx := errgroup.WithContext(ctx)
	for i := range candidates {
		g2.Go(func() error {
			candidates[i].Distance = r.Distance(g2ctx, coords[i][0], coords[i][1], lat, lng)
			return nil
		})
	}
	_ = g2.Wait()

	for i := range candidates {
		candidates[i].Score = r.score(&candidates[i])
	}

	if reschedule && preferredPartner != "none" && preferredPartner != "" {
		moveToFront(candidates, preferredPartner)
		return candidates, nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	return candidates, nil
}

func moveToFront(candidates []Candidate, id string) {
	for i := range candidates {
		if candidates[i].ID == id {
			c := candidates[i]
			copy(candidates[1:i+1], candidates[:i])
			candidates[0] = c
			return
		}
	}
}

// ReorderForPreviousPartners demotes partners the booking has already
// been assigned to. When the candidate set matches the previous-partner
// list exactly, candidates are rotated so the one after the currently
// assigned partner comes first; otherwise non-previous partners lead,
// previous partners follow, and the currently assigned partner goes
// last.
func ReorderForPreviousPartners(candidates []Candidate, previous []models.PartnerRef, assignedID string) []Candidate {
	if len(previous) == 0 {
		return candidates
	}

	prevIndex := make(map[string]int, len(previous))
	for i, p := range previous {
		prevIndex[p.ID] = i
	}

	if len(candidates) == len(previous) {
		assignedIdx := -1
		for i, p := range previous {
			if p.ID == assignedID {
				assignedIdx = i
			}
		}

		ordered := make([]Candidate, 0, len(candidates))
		for _, c := range candidates {
			if _, ok := prevIndex[c.ID]; ok {
				ordered = append(ordered, c)
			}
		}
		sort.SliceStable(ordered, func(a, b int) bool {
			return prevIndex[ordered[a].ID] < prevIndex[ordered[b].ID]
		})
		// candidates outside the previous list shrink ordered, so the
		// assigned index can point past its end
		cut := assignedIdx + 1
		if cut > len(ordered) {
			cut = len(ordered)
		}
		return append(ordered[cut:], ordered[:cut]...)
	}

	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(a, b int) bool {
		ia, oka := prevIndex[sorted[a].ID]
		ib, okb := prevIndex[sorted[b].ID]
		if !oka {
			ia = math.MaxInt32
		}
		if !okb {
			ib = math.MaxInt32
		}
		return ia < ib
	})

	var notPrevious, previousOnes, assigned []Candidate
	for _, c := range sorted {
		switch {
		case c.ID == assignedID:
			assigned = append(assigned, c)
		case hasKey(prevIndex, c.ID):
			previousOnes = append(previousOnes, c)
		default:
			notPrevious = append(notPrevious, c)
		}
	}
	out := append(notPrevious, previousOnes...)
	return append(out, assigned...)
}

func hasKey(m map[string]int, k string) bool {
	_, ok := m[k]
	return ok
}
