// Package domain contains core business entities and rules.
package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// MaxTitleLength is the longest title, in characters, a quote may carry.
const MaxTitleLength = 100

// now is the clock used for timestamps. Tests replace it to get deterministic values.
var now = func() time.Time { return time.Now().UTC() }

// Quote is a catalog entry with a title, free-text fields, a lifecycle status, and a tag set.
// This is a domain entity - it has no knowledge of storage or transport.
//
// ID is zero until the quote is first saved. Tags are kept normalized and are only
// reachable through the tag methods so the set cannot hold blank or mixed-case entries.
type Quote struct {
	ID          int64
	Title       string
	Description string
	Category    string
	Status      Status
	Author      string
	Source      string
	Publisher   string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	tags map[string]struct{}
}

// NewQuote creates an ACTIVE quote with no tags and both timestamps set to now.
func NewQuote(title, description string) *Quote {
	ts := now()

	return &Quote{
		Title:       title,
		Description: description,
		Status:      StatusActive,
		CreatedAt:   ts,
		UpdatedAt:   ts,
		tags:        make(map[string]struct{}),
	}
}

// NormalizeTag lower-cases and trims a tag. The second result is false for blank input.
func NormalizeTag(tag string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(tag))
	return t, t != ""
}

// NormalizeTags normalizes a list of tags, dropping blanks and duplicates.
// The result is sorted.
func NormalizeTags(tags []string) []string {
	set := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		if t, ok := NormalizeTag(raw); ok {
			set[t] = struct{}{}
		}
	}

	return sortedKeys(set)
}

// AddTag adds a normalized tag. Blank tags are ignored and leave UpdatedAt alone.
func (q *Quote) AddTag(tag string) {
	t, ok := NormalizeTag(tag)
	if !ok {
		return
	}

	if q.tags == nil {
		q.tags = make(map[string]struct{})
	}

	q.tags[t] = struct{}{}
	q.Touch()
}

// RemoveTag removes a tag, matching case-insensitively.
func (q *Quote) RemoveTag(tag string) {
	t, _ := NormalizeTag(tag)
	delete(q.tags, t)
	q.Touch()
}

// HasTag reports whether the quote carries the tag, matching case-insensitively.
func (q *Quote) HasTag(tag string) bool {
	t, ok := NormalizeTag(tag)
	if !ok {
		return false
	}

	_, found := q.tags[t]

	return found
}

// SetTags replaces the tag set with the normalized form of tags.
func (q *Quote) SetTags(tags []string) {
	q.tags = make(map[string]struct{}, len(tags))
	for _, t := range NormalizeTags(tags) {
		q.tags[t] = struct{}{}
	}

	q.Touch()
}

// Tags returns the tag set as a sorted slice. The slice is a copy and never nil.
func (q *Quote) Tags() []string {
	return sortedKeys(q.tags)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}

// TagCount returns the number of tags on the quote.
func (q *Quote) TagCount() int {
	return len(q.tags)
}

// SetStatus changes the lifecycle status and refreshes UpdatedAt.
func (q *Quote) SetStatus(s Status) {
	q.Status = s
	q.Touch()
}

// Touch refreshes UpdatedAt. It never moves the timestamp backwards.
func (q *Quote) Touch() {
	ts := now()
	if ts.Before(q.UpdatedAt) {
		return
	}

	q.UpdatedAt = ts
}

// Clone returns a deep copy of the quote.
func (q *Quote) Clone() *Quote {
	if q == nil {
		return nil
	}

	c := *q
	c.tags = maps.Clone(q.tags)

	if c.tags == nil {
		c.tags = make(map[string]struct{})
	}

	return &c
}

// String implements fmt.Stringer.
func (q *Quote) String() string {
	return fmt.Sprintf("Quote[id=%d, title=%q, category=%q, status=%s]", q.ID, q.Title, q.Category, q.Status)
}
