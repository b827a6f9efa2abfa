package similarity

// Threshold is the inclusive similarity score at or above which two titles
// are considered duplicates.
const Threshold = 80.0

// Record is the minimal view of a test case the grouper needs.
type Record struct {
	ID    uint
	Title string
}

// Group is an ephemeral set of two or more records whose titles are similar
// above the threshold, with the arithmetic mean of all pairwise scores.
// Groups are never persisted; they are recomputed on every scan.
type Group struct {
	Records []Record
	Score   float64
}

// GroupDuplicates partitions records into duplicate groups with a single
// greedy pass: each not-yet-grouped record anchors a candidate group of all
// later not-yet-grouped records scoring at or above the threshold against
// it. Members similar to the anchor but not to each other still end up in
// one group; that chaining is the accepted contract of this grouper, not an
// oversight. Cost is O(n^2) score evaluations, acceptable for the hundreds
// of cases a suite holds.
func GroupDuplicates(records []Record) []Group {
	processed := make(map[uint]bool, len(records))
	var groups []Group

	for i, anchor := range records {
		if processed[anchor.ID] {
			continue
		}

		members := []Record{anchor}
		for j := i + 1; j < len(records); j++ {
			candidate := records[j]
			if processed[candidate.ID] {
				continue
			}
			if Score(anchor.Title, candidate.Title) >= Threshold {
				members = append(members, candidate)
			}
		}

		if len(members) < 2 {
			continue
		}

		for _, m := range members {
			processed[m.ID] = true
		}
		groups = append(groups, Group{
			Records: members,
			Score:   meanPairwiseScore(members),
		})
	}

	return groups
}

// meanPairwiseScore averages the scores of every member pair, not just the
// pairs against the anchor.
func meanPairwiseScore(members []Record) float64 {
	var sum float64
	var pairs int
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += Score(members[i].Title, members[j].Title)
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}
