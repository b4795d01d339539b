package results

import "sort"

// Hits maps a video identifier to its chronologically ordered hit times
type Hits map[string][]float64

// Clone returns a deep copy
func (h Hits) Clone() Hits {
	out := make(Hits, len(h))
	for id, ts := range h {
		out[id] = append([]float64{}, ts...)
	}
	return out
}

// VideoIDs returns the identifiers in sorted order
func (h Hits) VideoIDs() []string {
	ids := make([]string, 0, len(h))
	for id := range h {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Latest returns the largest recorded time for id
func (h Hits) Latest(id string) (float64, bool) {
	return Latest(h[id])
}

// Latest returns the largest time in ts
func Latest(ts []float64) (float64, bool) {
	if len(ts) == 0 {
		return 0, false
	}
	latest := ts[0]
	for _, t := range ts[1:] {
		if t > latest {
			latest = t
		}
	}
	return latest, true
}

// Store is the shared, durable mapping of video hits.
// Implementations serialize all mutations; it is safe for concurrent use.
type Store interface {
	// Load re-reads persisted hits; a missing file yields an empty mapping
	Load() (Hits, error)

	// ResumePoint returns where a scan of videoID should start
	ResumePoint(videoID string) float64

	// Hits returns a copy of the hits recorded for videoID
	Hits(videoID string) []float64

	// Snapshot returns a copy of every recorded hit
	Snapshot() Hits

	// RecordEvent appends one hit and flushes before returning
	RecordEvent(videoID string, seconds float64) error

	// Finalize replaces the hits of videoID with the definitive list and flushes
	Finalize(videoID string, seconds []float64) error
}
