package analysis

import "sort"

// Noise labels a point that belongs to no cluster.
const Noise = -1

// minClusterSize is the smallest group reported as a cluster.
const minClusterSize = 2

// Assignment maps every input point to a cluster id or Noise.
type Assignment struct {
	Labels   []int
	Clusters int
}

// Members returns the point indices of each cluster, ascending, indexed by
// cluster id.
func (a Assignment) Members() [][]int {
	out := make([][]int, a.Clusters)
	for i, l := range a.Labels {
		if l != Noise {
			out[l] = append(out[l], i)
		}
	}
	return out
}

// NoiseCount returns the number of unclustered points.
func (a Assignment) NoiseCount() int {
	n := 0
	for _, l := range a.Labels {
		if l == Noise {
			n++
		}
	}
	return n
}

// Clusterer groups points by density-based connectivity under the haversine
// metric (DBSCAN). A point with at least minSamples points (itself
// included) within eps is a core point; core points within eps of each other
// share a cluster, and non-core points within eps of a core point join it.
//
// Labels do not depend on input order: points are visited in order of
// (Key, Lat, Lon), cluster ids follow the first core point of each cluster in
// that order, and a border point reachable from several clusters joins the
// lowest id.
type Clusterer struct {
	eps        float64
	minSamples int
	bruteForce bool
}

// NewClusterer returns a Clusterer. With useIndex false every neighbour
// query scans all points.
func NewClusterer(epsMeters float64, minSamples int, useIndex bool) *Clusterer {
	if minSamples < 1 {
		minSamples = 1
	}
	return &Clusterer{eps: epsMeters, minSamples: minSamples, bruteForce: !useIndex}
}

// Cluster labels points. Invalid points are always Noise.
func (c *Clusterer) Cluster(points []Point) Assignment {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	if n == 0 {
		return Assignment{Labels: labels}
	}

	var idx neighborIndex
	if c.bruteForce {
		idx = &bruteForceIndex{points: points, radius: c.eps}
	} else {
		idx = NewGridIndex(points, c.eps)
	}

	core := make([]bool, n)
	for i := range points {
		count := 0
		idx.Each(i, func(int) bool {
			count++
			return count < c.minSamples
		})
		core[i] = count >= c.minSamples
	}

	next := 0
	var queue []int
	for _, i := range canonicalOrder(points) {
		if !core[i] || labels[i] != Noise {
			continue
		}
		id := next
		next++
		labels[i] = id
		queue = append(queue[:0], i)
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			idx.Each(p, func(j int) bool {
				if core[j] && labels[j] == Noise {
					labels[j] = id
					queue = append(queue, j)
				}
				return true
			})
		}
	}

	for i := range points {
		if core[i] {
			continue
		}
		best := Noise
		idx.Each(i, func(j int) bool {
			if core[j] && (best == Noise || labels[j] < best) {
				best = labels[j]
			}
			return true
		})
		labels[i] = best
	}

	return compact(labels, next)
}

// compact drops clusters smaller than minClusterSize and renumbers the rest
// preserving their relative order.
func compact(labels []int, clusters int) Assignment {
	sizes := make([]int, clusters)
	for _, l := range labels {
		if l != Noise {
			sizes[l]++
		}
	}
	remap := make([]int, clusters)
	next := 0
	for id, size := range sizes {
		if size < minClusterSize {
			remap[id] = Noise
			continue
		}
		remap[id] = next
		next++
	}
	for i, l := range labels {
		if l != Noise {
			labels[i] = remap[l]
		}
	}
	return Assignment{Labels: labels, Clusters: next}
}

func canonicalOrder(points []Point) []int {
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := points[order[a]], points[order[b]]
		if pa.Key != pb.Key {
			return pa.Key < pb.Key
		}
		if pa.Lat != pb.Lat {
			return pa.Lat < pb.Lat
		}
		return pa.Lon < pb.Lon
	})
	return order
}

//Personal.AI order the ending
