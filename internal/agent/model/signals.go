package model

import (
	"encoding/json"
	"sort"
)

// HiringSignal is a lexical cue suggesting the visitor may be evaluating the
// portfolio owner for employment.
type HiringSignal string

const (
	SignalMentionedHiring HiringSignal = "mentioned_hiring"
	SignalDescribedRole   HiringSignal = "described_role"
	SignalTeamContext     HiringSignal = "team_context"
	SignalAskedTimeline   HiringSignal = "asked_timeline"
	SignalBudgetMentioned HiringSignal = "budget_mentioned"
)

// SignalSet accumulates hiring signals monotonically across a session.
// The only mutating operation is Add (set union); tags are never removed,
// so re-detecting the same query can never shrink the set.
type SignalSet struct {
	tags map[HiringSignal]struct{}
}

// NewSignalSet creates a set pre-populated with the given tags.
func NewSignalSet(tags ...HiringSignal) *SignalSet {
	s := &SignalSet{tags: make(map[HiringSignal]struct{}, len(tags))}
	s.Add(tags...)
	return s
}

// Add unions the given tags into the set. Re-adding an existing tag is a
// no-op. It returns the number of tags that were actually new.
func (s *SignalSet) Add(tags ...HiringSignal) int {
	if s.tags == nil {
		s.tags = make(map[HiringSignal]struct{}, len(tags))
	}
	added := 0
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := s.tags[t]; !ok {
			s.tags[t] = struct{}{}
			added++
		}
	}
	return added
}

// Has reports whether the tag is present.
func (s *SignalSet) Has(tag HiringSignal) bool {
	if s == nil {
		return false
	}
	_, ok := s.tags[tag]
	return ok
}

// Len returns the number of distinct tags accumulated so far.
func (s *SignalSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tags)
}

// Tags returns a sorted snapshot of the accumulated tags. Mutating the
// returned slice does not affect the set.
func (s *SignalSet) Tags() []HiringSignal {
	if s == nil {
		return nil
	}
	out := make([]HiringSignal, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted tags as plain strings for persistence and logs.
func (s *SignalSet) Strings() []string {
	tags := s.Tags()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

// MarshalJSON persists the set as a sorted string array.
func (s *SignalSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON restores the set from a string array.
func (s *SignalSet) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	s.tags = make(map[HiringSignal]struct{}, len(tags))
	for _, t := range tags {
		s.Add(HiringSignal(t))
	}
	return nil
}
