package domain

import (
	"math"
	"sort"
)

// RatingDistribution counts reviews per star value. The buckets are a closed
// typed set so the invariant sum(buckets) == totalReviews stays checkable.
type RatingDistribution struct {
	OneStar   int
	TwoStar   int
	ThreeStar int
	FourStar  int
	FiveStar  int
}

// bucket returns a pointer to the counter for a star value, nil when the
// value is outside 1..5.
func (d *RatingDistribution) bucket(rating int) *int {
	switch rating {
	case 1:
		return &d.OneStar
	case 2:
		return &d.TwoStar
	case 3:
		return &d.ThreeStar
	case 4:
		return &d.FourStar
	case 5:
		return &d.FiveStar
	}
	return nil
}

// Count returns the number of reviews recorded for a star value.
func (d RatingDistribution) Count(rating int) int {
	if b := d.bucket(rating); b != nil {
		return *b
	}
	return 0
}

// Add records one review at the given star value.
func (d *RatingDistribution) Add(rating int) {
	if b := d.bucket(rating); b != nil {
		*b++
	}
}

// Remove withdraws one review at the given star value, flooring at zero.
func (d *RatingDistribution) Remove(rating int) {
	if b := d.bucket(rating); b != nil && *b > 0 {
		*b--
	}
}

// Total is the number of reviews across all buckets.
func (d RatingDistribution) Total() int {
	return d.OneStar + d.TwoStar + d.ThreeStar + d.FourStar + d.FiveStar
}

// Average is the weighted mean of star value by count, rounded to one
// decimal place. Zero when the distribution is empty.
func (d RatingDistribution) Average() float64 {
	total := d.Total()
	if total == 0 {
		return 0
	}
	sum := d.OneStar + 2*d.TwoStar + 3*d.ThreeStar + 4*d.FourStar + 5*d.FiveStar
	return math.Round(float64(sum)/float64(total)*10) / 10
}

// VoteCount pairs an attribute value with how often it was submitted.
type VoteCount struct {
	Value string
	Count int
}

// VoteTally is an insertion-ordered list of vote counts. A slice rather than
// a map so consensus tie-breaks are stable: the earliest recorded value wins.
type VoteTally []VoteCount

// Add records one vote for value, appending it on first sight.
func (t VoteTally) Add(value string) VoteTally {
	for i := range t {
		if t[i].Value == value {
			t[i].Count++
			return t
		}
	}
	return append(t, VoteCount{Value: value, Count: 1})
}

// Remove withdraws one vote for value, flooring at zero. The entry keeps its
// slot so a later re-vote does not change tie-break order.
func (t VoteTally) Remove(value string) VoteTally {
	for i := range t {
		if t[i].Value == value {
			if t[i].Count > 0 {
				t[i].Count--
			}
			return t
		}
	}
	return t
}

// Consensus returns the most voted value, nil when no votes are recorded.
// On equal counts the value recorded first wins.
func (t VoteTally) Consensus() *string {
	var best *string
	bestCount := 0
	for i := range t {
		if t[i].Count > bestCount {
			best = &t[i].Value
			bestCount = t[i].Count
		}
	}
	if best == nil {
		return nil
	}
	v := *best
	return &v
}

// PriceSamples is the list of submitted prices for one payment model.
type PriceSamples []int

// Add appends a sample.
func (s PriceSamples) Add(value int) PriceSamples {
	return append(s, value)
}

// Remove drops the first occurrence of value, if present.
func (s PriceSamples) Remove(value int) PriceSamples {
	for i := range s {
		if s[i] == value {
			return append(s[:i:i], s[i+1:]...)
		}
	}
	return s
}

// Median returns the standard median over a sorted copy: the middle element
// for odd lengths, the rounded mean of the two middle elements for even
// lengths. Nil when no samples exist.
func (s PriceSamples) Median() *int {
	if len(s) == 0 {
		return nil
	}
	sorted := append([]int(nil), s...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 != 0 {
		m := sorted[mid]
		return &m
	}
	m := int(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
	return &m
}

// VoteAggregate materializes a vote tally together with its derived
// consensus. The two always change in the same transaction.
type VoteAggregate struct {
	Consensus *string
	Votes     VoteTally
}

// Record adds a vote and recomputes the consensus.
func (a *VoteAggregate) Record(value string) {
	a.Votes = a.Votes.Add(value)
	a.Consensus = a.Votes.Consensus()
}

// Withdraw removes a vote and recomputes the consensus.
func (a *VoteAggregate) Withdraw(value string) {
	a.Votes = a.Votes.Remove(value)
	a.Consensus = a.Votes.Consensus()
}

// PriceAggregate materializes price samples together with their median.
type PriceAggregate struct {
	Median *int
	Values PriceSamples
}

// Record adds a sample and recomputes the median.
func (a *PriceAggregate) Record(value int) {
	a.Values = a.Values.Add(value)
	a.Median = a.Values.Median()
}

// Withdraw removes a sample and recomputes the median.
func (a *PriceAggregate) Withdraw(value int) {
	a.Values = a.Values.Remove(value)
	a.Median = a.Values.Median()
}
