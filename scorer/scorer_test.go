package scorer

import (
	"context"
	"math"
	"testing"
	"time"

	"urbane/models"
	"urbane/storetest"
)

func flatDistance(d float64) DistanceFunc {
	return func(context.Context, float64, float64, float64, float64) float64 { return d }
}

func refs(ids ...string) []models.PartnerRef {
	out := make([]models.PartnerRef, len(ids))
	for i, id := range ids {
		out[i] = models.PartnerRef{ID: id}
	}
	return out
}

func ids(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func equalIDs(t *testing.T, got []Candidate, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func testRanker(mem *storetest.Mem) *Ranker {
	r := NewRanker(mem, flatDistance(500))
	r.Weights = Weights{Distance: 0, Rank: 0.1, BookingLoad: 0.4, Rating: 0.2, Cancellation: -0.3}
	return r
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	mem := storetest.New()
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	// p2 is idle with a perfect rating, p1 fully loaded with heavy
	// cancellations. p2 must win.
	mem.Partners["p1"] = &models.PartnerProfile{ID: "p1", Rank: 5000, AvgRating: 3, CancellationRate: 40}
	mem.Partners["p2"] = &models.PartnerProfile{ID: "p2", Rank: 5000, AvgRating: 5, CancellationRate: 0}
	mem.DayCounts["p1_20260314"] = 3
	mem.DayCounts["p2_20260314"] = 0

	got, err := testRanker(mem).Rank(context.Background(), refs("p1", "p2"), 12.9, 77.6, day, false, "none")
	if err != nil {
		t.Fatal(err)
	}
	equalIDs(t, got, "p2", "p1")
	if got[0].Score <= got[1].Score {
		t.Fatalf("scores not descending: %v then %v", got[0].Score, got[1].Score)
	}
}

func TestRankDropsMissingProfiles(t *testing.T) {
	mem := storetest.New()
	mem.Partners["p1"] = &models.PartnerProfile{ID: "p1", AvgRating: 4}

	got, err := testRanker(mem).Rank(context.Background(), refs("ghost", "p1"), 0, 0, time.Now(), false, "none")
	if err != nil {
		t.Fatal(err)
	}
	equalIDs(t, got, "p1")
}

func TestRankReschedulePreferredToFront(t *testing.T) {
	mem := storetest.New()
	// p3 would lose any score sort yet must lead because the client
	// asked for it on a reschedule.
	mem.Partners["p1"] = &models.PartnerProfile{ID: "p1", AvgRating: 5}
	mem.Partners["p2"] = &models.PartnerProfile{ID: "p2", AvgRating: 4}
	mem.Partners["p3"] = &models.PartnerProfile{ID: "p3", AvgRating: 1, CancellationRate: 90}

	got, err := testRanker(mem).Rank(context.Background(), refs("p1", "p2", "p3"), 0, 0, time.Now(), true, "p3")
	if err != nil {
		t.Fatal(err)
	}
	// remaining order stays as supplied, not score-sorted
	equalIDs(t, got, "p3", "p1", "p2")
}

func TestRankZeroDistanceWeightIgnoresUnreachable(t *testing.T) {
	mem := storetest.New()
	mem.Partners["far"] = &models.PartnerProfile{ID: "far", AvgRating: 5}
	mem.Partners["near"] = &models.PartnerProfile{ID: "near", AvgRating: 1}

	r := testRanker(mem)
	r.Distance = func(_ context.Context, lat, _, _, _ float64) float64 {
		if lat == 99 {
			return math.Inf(1)
		}
		return 100
	}
	mem.Partners["far"].Latitude = 99

	got, err := r.Rank(context.Background(), refs("far", "near"), 0, 0, time.Now(), false, "none")
	if err != nil {
		t.Fatal(err)
	}
	// distance weight is zero, so the unreachable partner still wins on
	// rating
	equalIDs(t, got, "far", "near")
}

func TestRankUnreachableSinksWhenDistanceWeighted(t *testing.T) {
	mem := storetest.New()
	mem.Partners["far"] = &models.PartnerProfile{ID: "far", Latitude: 99, AvgRating: 5}
	mem.Partners["near"] = &models.PartnerProfile{ID: "near", AvgRating: 1}

	r := testRanker(mem)
	r.Weights.Distance = 0.2
	r.Distance = func(_ context.Context, lat, _, _, _ float64) float64 {
		if lat == 99 {
			return math.Inf(1)
		}
		return 100
	}

	got, err := r.Rank(context.Background(), refs("far", "near"), 0, 0, time.Now(), false, "none")
	if err != nil {
		t.Fatal(err)
	}
	equalIDs(t, got, "near", "far")
}

func TestScoreFormula(t *testing.T) {
	r := &Ranker{
		Weights: Weights{Distance: 0.1, Rank: 0.1, BookingLoad: 0.4, Rating: 0.2, Cancellation: -0.3},
		Maxima:  DefaultMaxima(),
	}
	c := Candidate{Distance: 2000, Rank: 1000, Bookings: 1, AvgRating: 4, CancellationRate: 10}
	want := 0.8*0.1 + 0.1*0.1 + (1-1.0/3)*0.4 + 0.8*0.2 + 0.1*-0.3
	if got := r.score(&c); math.Abs(got-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got, want)
	}
}

func TestReorderForPreviousPartnersRotation(t *testing.T) {
	// candidate set equals the previous-partner list: rotate past the
	// currently assigned partner
	cs := []Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	prev := refs("a", "b", "c")

	got := ReorderForPreviousPartners(cs, prev, "b")
	equalIDs(t, got, "c", "a", "b")
}

func TestReorderForPreviousPartnersDisjointSameLength(t *testing.T) {
	// same lengths but the candidate set is not a subset of the
	// previous-partner list; rotation must clamp instead of panicking
	cs := []Candidate{{ID: "x"}, {ID: "a"}}
	prev := refs("a", "b")

	got := ReorderForPreviousPartners(cs, prev, "b")
	equalIDs(t, got, "a")
}

func TestReorderForPreviousPartnersMixed(t *testing.T) {
	// fresh partners lead, already-tried ones follow, the current one
	// goes last
	cs := []Candidate{{ID: "a"}, {ID: "fresh"}, {ID: "b"}}
	prev := refs("a", "b")

	got := ReorderForPreviousPartners(cs, prev, "a")
	equalIDs(t, got, "fresh", "b", "a")
}

func TestReorderForPreviousPartnersNoHistory(t *testing.T) {
	cs := []Candidate{{ID: "a"}, {ID: "b"}}
	got := ReorderForPreviousPartners(cs, nil, "")
	equalIDs(t, got, "a", "b")
}
