package vectormath

import "sort"

// Candidate is a scored item awaiting ranking. Seq is the insertion
// position and breaks distance ties.
type Candidate struct {
	Index    int
	Seq      int64
	Distance float64
}

// TopK orders candidates by ascending distance, then ascending Seq, and
// returns at most k of them. k <= 0 yields nil. The input slice is sorted
// in place.
func TopK(cands []Candidate, k int) []Candidate {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Distance != cands[j].Distance {
			return cands[i].Distance < cands[j].Distance
		}
		return cands[i].Seq < cands[j].Seq
	})
	if k > len(cands) {
		k = len(cands)
	}
	return cands[:k]
}
