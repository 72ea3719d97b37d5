package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineMeters(t *testing.T) {
	a := Point{Lat: baseLat, Lon: baseLon}

	assert.Equal(t, 0.0, HaversineMeters(a, a))
	assert.InDelta(t, 50.0, HaversineMeters(a, Point{Lat: northOf(baseLat, 50), Lon: baseLon}), 1e-6)
	assert.InDelta(t, metersPerDegree, HaversineMeters(Point{Lat: 0, Lon: 0}, Point{Lat: 1, Lon: 0}), 1e-6)

	// A degree of longitude shrinks with latitude.
	eq := HaversineMeters(Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: 0.01})
	balt := HaversineMeters(Point{Lat: baseLat, Lon: 0}, Point{Lat: baseLat, Lon: 0.01})
	assert.InDelta(t, eq*math.Cos(baseLat*math.Pi/180), balt, 0.01)

	b := Point{Lat: 39.3, Lon: -76.61}
	assert.Equal(t, HaversineMeters(a, b), HaversineMeters(b, a))
}

func TestPoint_Valid(t *testing.T) {
	assert.True(t, Point{Lat: 39.3, Lon: -76.6}.Valid())
	assert.False(t, Point{Lat: math.NaN(), Lon: -76.6}.Valid())
	assert.False(t, Point{Lat: 39.3, Lon: math.Inf(1)}.Valid())
	assert.False(t, Point{Lat: 91, Lon: 0}.Valid())
}

func TestCluster_ChainLinksTransitively(t *testing.T) {
	pts := []Point{
		{Key: "a", Lat: baseLat, Lon: baseLon},
		{Key: "b", Lat: northOf(baseLat, 50), Lon: baseLon},
		{Key: "c", Lat: northOf(baseLat, 100), Lon: baseLon},
		{Key: "d", Lat: northOf(baseLat, 1000), Lon: baseLon},
	}

	for _, useIndex := range []bool{true, false} {
		got := NewClusterer(DefaultEpsMeters, DefaultMinSamples, useIndex).Cluster(pts)

		assert.Equal(t, 1, got.Clusters)
		assert.Equal(t, []int{0, 0, 0, Noise}, got.Labels, "a and c are 100 m apart but linked through b")
		assert.Equal(t, 1, got.NoiseCount())
		assert.Equal(t, [][]int{{0, 1, 2}}, got.Members())
	}
}

func TestCluster_IsolatedAndInvalidPointsAreNoise(t *testing.T) {
	pts := []Point{
		{Key: "a", Lat: baseLat, Lon: baseLon},
		{Key: "b", Lat: northOf(baseLat, 80), Lon: baseLon},
		{Key: "c", Lat: math.NaN(), Lon: baseLon},
		{Key: "d", Lat: math.NaN(), Lon: baseLon},
	}
	got := NewClusterer(DefaultEpsMeters, DefaultMinSamples, true).Cluster(pts)

	assert.Equal(t, 0, got.Clusters)
	assert.Equal(t, []int{Noise, Noise, Noise, Noise}, got.Labels)
}

func TestCluster_EmptyInput(t *testing.T) {
	got := NewClusterer(DefaultEpsMeters, DefaultMinSamples, true).Cluster(nil)
	assert.Equal(t, 0, got.Clusters)
	assert.Empty(t, got.Labels)
}

func TestCluster_BorderPointsJoinCoreCluster(t *testing.T) {
	pts := []Point{
		{Key: "a", Lat: baseLat, Lon: baseLon},
		{Key: "b", Lat: northOf(baseLat, 50), Lon: baseLon},
		{Key: "c", Lat: northOf(baseLat, 100), Lon: baseLon},
		{Key: "e", Lat: northOf(baseLat, 500), Lon: baseLon},
	}
	// With three samples only b is a core point; a and c are border points.
	got := NewClusterer(DefaultEpsMeters, 3, true).Cluster(pts)

	assert.Equal(t, 1, got.Clusters)
	assert.Equal(t, []int{0, 0, 0, Noise}, got.Labels)
}

func TestCluster_IDsFollowKeyOrder(t *testing.T) {
	far := northOf(baseLat, 2000)
	pts := []Point{
		{Key: "z1", Lat: baseLat, Lon: baseLon},
		{Key: "z2", Lat: northOf(baseLat, 10), Lon: baseLon},
		{Key: "a1", Lat: far, Lon: baseLon},
		{Key: "a2", Lat: northOf(far, 10), Lon: baseLon},
	}
	got := NewClusterer(DefaultEpsMeters, DefaultMinSamples, true).Cluster(pts)

	assert.Equal(t, []int{1, 1, 0, 0}, got.Labels)
}

// randomPoints scatters n points over roughly a square kilometre so that
// chains, pairs and isolated points all occur.
func randomPoints(rng *rand.Rand, n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{
			Key: fmt.Sprintf("SR%05d", i),
			Lat: baseLat + rng.Float64()*0.009,
			Lon: baseLon + rng.Float64()*0.012,
		}
	}
	return pts
}

func labelsByKey(pts []Point, a Assignment) map[string]int {
	out := make(map[string]int, len(pts))
	for i, p := range pts {
		out[p.Key] = a.Labels[i]
	}
	return out
}

func TestCluster_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(311))
	pts := randomPoints(rng, 150)
	c := NewClusterer(DefaultEpsMeters, DefaultMinSamples, true)

	want := c.Cluster(pts)
	require.Greater(t, want.Clusters, 1)
	require.Greater(t, want.NoiseCount(), 0)
	wantByKey := labelsByKey(pts, want)

	for round := 0; round < 5; round++ {
		shuffled := append([]Point(nil), pts...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := c.Cluster(shuffled)
		assert.Equal(t, want.Clusters, got.Clusters)
		assert.Equal(t, wantByKey, labelsByKey(shuffled, got), "round %d", round)
	}
}

func TestCluster_GridMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	pts := randomPoints(rng, 300)

	grid := NewClusterer(DefaultEpsMeters, DefaultMinSamples, true).Cluster(pts)
	brute := NewClusterer(DefaultEpsMeters, DefaultMinSamples, false).Cluster(pts)

	assert.Equal(t, brute, grid)
}

func TestCluster_ClusterMembersAreLinked(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pts := randomPoints(rng, 250)
	got := NewClusterer(DefaultEpsMeters, DefaultMinSamples, true).Cluster(pts)

	for i, li := range got.Labels {
		hasNeighbor := false
		for j := range pts {
			if i != j && HaversineMeters(pts[i], pts[j]) <= DefaultEpsMeters {
				hasNeighbor = true
				if li != Noise {
					assert.Equal(t, li, got.Labels[j], "linked points %d and %d must share a cluster", i, j)
				}
			}
		}
		assert.Equal(t, hasNeighbor, li != Noise, "point %d", i)
	}
}

func TestGridIndex_Cells(t *testing.T) {
	pts := []Point{
		{Lat: baseLat, Lon: baseLon},
		{Lat: northOf(baseLat, 10), Lon: baseLon},
		{Lat: northOf(baseLat, 5000), Lon: baseLon},
		{Lat: math.NaN(), Lon: baseLon},
	}
	g := NewGridIndex(pts, DefaultEpsMeters)
	assert.LessOrEqual(t, g.Cells(), 3)
	assert.GreaterOrEqual(t, g.Cells(), 2)

	var seen []int
	g.Each(0, func(j int) bool {
		seen = append(seen, j)
		return true
	})
	assert.ElementsMatch(t, []int{0, 1}, seen)

	g.Each(3, func(int) bool {
		t.Fatal("invalid point must have no neighbours")
		return false
	})
	assert.Equal(t, "L0_1_-2", cellKey{X: 1, Y: -2}.String())
}

//Personal.AI order the ending
