package query

import "fmt"

// Canned query strings for the searches people actually run. Each
// returns a string accepted by Parse.

// HighSuccessRate matches versions whose success_rate metric is at
// least min.
func HighSuccessRate(min float64) string {
	return fmt.Sprintf("success_rate >= %g", min)
}

// LowLatency matches versions whose avg_latency_ms metric is below
// maxMs.
func LowLatency(maxMs float64) string {
	return fmt.Sprintf("avg_latency_ms < %g", maxMs)
}

// HasTag matches versions carrying the tag.
func HasTag(tag string) string {
	return fmt.Sprintf("tags contains '%s'", tag)
}

// CreatedAfter matches versions committed after date (YYYY-MM-DD).
func CreatedAfter(date string) string {
	return fmt.Sprintf("created_at > '%s'", date)
}

// ContentMatches matches versions whose content contains text
// (case-sensitive).
func ContentMatches(text string) string {
	return fmt.Sprintf("content contains '%s'", text)
}

// ByAuthor matches versions committed by author.
func ByAuthor(author string) string {
	return fmt.Sprintf("author = '%s'", author)
}
