// Package ranking orders catalog fingerprints by Hamming distance to a query.
package ranking

import (
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/visual-search/internal/fingerprint"
)

// Entry is a catalog item: an opaque identifier and its fingerprint.
type Entry struct {
	ID          string
	Fingerprint fingerprint.Fingerprint
}

// Similarity is a match percentage in [0, 100] derived from a distance.
// Higher is better. It is never used as a filter input.
type Similarity float64

// SimilarityOf converts a distance over bits bits into a Similarity.
func SimilarityOf(distance, bits int) Similarity {
	if bits <= 0 {
		return 0
	}
	return Similarity(100 * float64(bits-distance) / float64(bits))
}

// Result is one ranked match. Lower Distance is better.
type Result struct {
	ID         string
	Distance   int
	Similarity Similarity
}

// LengthMismatchError names the catalog entry whose fingerprint length does
// not match the query.
type LengthMismatchError struct {
	ID       string
	Expected int
	Actual   int
	cause    error
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("catalog entry %q: fingerprint has %d bits, query has %d", e.ID, e.Actual, e.Expected)
}

func (e *LengthMismatchError) Unwrap() error { return e.cause }

// Ranker scores a catalog against a query. The zero value ranks
// sequentially.
type Ranker struct {
	// Workers is the number of goroutines used for distance computation.
	// Values below 2 disable parallelism.
	Workers int
	// ParallelThreshold is the minimum catalog size for a parallel scan.
	ParallelThreshold int
}

// Rank ranks catalog with a sequential Ranker.
func Rank(query fingerprint.Fingerprint, catalog []Entry, limit int) ([]Result, error) {
	var r Ranker
	return r.Rank(query, catalog, limit)
}

// Rank returns up to limit entries ordered by ascending distance to query.
// Equal distances keep catalog order. A single length mismatch fails the
// whole call.
func (r *Ranker) Rank(query fingerprint.Fingerprint, catalog []Entry, limit int) ([]Result, error) {
	return r.RankWithin(query, catalog, limit, -1)
}

// RankWithin is Rank restricted to entries at most maxDistance away.
// A negative maxDistance disables the filter.
func (r *Ranker) RankWithin(query fingerprint.Fingerprint, catalog []Entry, limit, maxDistance int) ([]Result, error) {
	if limit <= 0 || len(catalog) == 0 {
		return []Result{}, nil
	}

	for i := range catalog {
		if n := catalog[i].Fingerprint.Len(); n != query.Len() {
			return nil, &LengthMismatchError{
				ID:       catalog[i].ID,
				Expected: query.Len(),
				Actual:   n,
				cause:    &fingerprint.LengthMismatchError{Expected: query.Len(), Actual: n},
			}
		}
	}

	distances, err := r.distances(query, catalog)
	if err != nil {
		return nil, err
	}

	bits := query.Len()
	results := make([]Result, 0, len(catalog))
	for i, d := range distances {
		if maxDistance >= 0 && d > maxDistance {
			continue
		}
		results = append(results, Result{
			ID:         catalog[i].ID,
			Distance:   d,
			Similarity: SimilarityOf(d, bits),
		})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return a.Distance - b.Distance
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// distances fills one slot per catalog index so the later stable sort sees
// entries in input order regardless of how the work was split.
func (r *Ranker) distances(query fingerprint.Fingerprint, catalog []Entry) ([]int, error) {
	out := make([]int, len(catalog))

	if r.Workers < 2 || len(catalog) < r.ParallelThreshold {
		for i := range catalog {
			d, err := fingerprint.Distance(query, catalog[i].Fingerprint)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	}

	chunk := (len(catalog) + r.Workers - 1) / r.Workers
	var g errgroup.Group
	for start := 0; start < len(catalog); start += chunk {
		end := min(start+chunk, len(catalog))
		g.Go(func() error {
			for i := start; i < end; i++ {
				d, err := fingerprint.Distance(query, catalog[i].Fingerprint)
				if err != nil {
					return err
				}
				out[i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
