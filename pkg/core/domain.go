// Package core defines the domain model shared by every pit component:
// artifacts, versions, semantic diffs, storage contracts and the error
// taxonomy. It depends on nothing but the standard library.
package core

import "time"

// Artifact is a named, independently versioned text asset.
// Its history is a single append-only sequence of versions; divergent
// parallel histories are modeled as separate artifacts.
type Artifact struct {
	ID          string
	Name        string
	Description string
	// Head is the sequence number currently checked out. It always
	// references an existing version once the artifact has one.
	Head      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Version is an immutable snapshot of an artifact's content.
// Sequence numbers are 1-based, strictly increasing and gapless within
// an artifact. Only the tag set and the metric map may grow after
// creation; everything else is frozen.
type Version struct {
	ID       string
	Artifact string
	Sequence int
	// Fingerprint addresses the content blob in the ContentStore.
	Fingerprint Fingerprint
	// Variables holds template variable names extracted from the
	// content ({{name}} scan). Derived metadata, never authoritative.
	Variables []string
	Message   string
	Author    string
	Tags      []string
	// Metrics is populated by external test runs: name -> value,
	// last write wins per key.
	Metrics   map[string]float64
	CreatedAt time.Time
}

// HasTag reports whether the version carries the given tag.
func (v Version) HasTag(label string) bool {
	for _, t := range v.Tags {
		if t == label {
			return true
		}
	}
	return false
}

// Metric returns the named metric and whether it has been recorded.
func (v Version) Metric(name string) (float64, bool) {
	val, ok := v.Metrics[name]
	return val, ok
}

// Clone returns a deep copy so callers can hand versions across
// goroutines without sharing the tag slice or metric map.
func (v Version) Clone() Version {
	out := v
	out.Variables = append([]string(nil), v.Variables...)
	out.Tags = append([]string(nil), v.Tags...)
	if v.Metrics != nil {
		out.Metrics = make(map[string]float64, len(v.Metrics))
		for k, val := range v.Metrics {
			out.Metrics[k] = val
		}
	}
	return out
}
