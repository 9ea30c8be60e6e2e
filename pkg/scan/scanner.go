// Package scan flags security problems in prompt content: injection
// attempts, leaked credentials and PII, unsafe output requests. Like
// the semantic classifier it is a deterministic ordered rule table, so
// findings are auditable and stable across runs.
package scan

import (
	"regexp"
	"sort"
	"strings"
)

// Severity ranks findings.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// rank maps severities to comparable weights (higher is worse).
func rank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool { return rank(s) >= rank(min) }

// Category groups findings by vulnerability class.
type Category string

const (
	CategoryInjection    Category = "prompt-injection"
	CategoryCredential   Category = "credential-exposure"
	CategoryPII          Category = "pii-exposure"
	CategoryExfiltration Category = "data-exfiltration"
	CategoryUnsafeOutput Category = "unsafe-output"
)

// Finding is one matched vulnerability pattern.
type Finding struct {
	Category Category
	Severity Severity
	Message  string
	Line     int
	Snippet  string
}

// Result aggregates the findings for one scan.
type Result struct {
	Findings  []Finding
	RiskScore int
}

// Clean reports whether no findings were produced.
func (r Result) Clean() bool { return len(r.Findings) == 0 }

// pattern is one detection rule.
type pattern struct {
	re       *regexp.Regexp
	message  string
	severity Severity
	category Category
}

var patterns = []pattern{
	// Injection.
	{regexp.MustCompile(`(?i)(ignore|disregard|forget)\s+(previous|above|all)\s+instructions`), "direct instruction override", SeverityCritical, CategoryInjection},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an)\s`), "role change attempt", SeverityHigh, CategoryInjection},
	{regexp.MustCompile(`(?i)pretend\s+to\s+be`), "role change attempt", SeverityHigh, CategoryInjection},
	{regexp.MustCompile(`(?i)<\s*system\s*>|\[\s*system\s*\]`), "system prompt injection", SeverityCritical, CategoryInjection},
	{regexp.MustCompile(`(?i)end\s+of\s+(user|human)\s+input`), "context manipulation", SeverityHigh, CategoryInjection},
	{regexp.MustCompile(`(?i)jailbreak|do\s+anything\s+now`), "jailbreak attempt", SeverityHigh, CategoryInjection},
	{regexp.MustCompile(`(?i)developer\s+mode`), "developer mode bypass", SeverityHigh, CategoryInjection},
	{regexp.MustCompile(`(?i)ignore\s+your\s+(ethical|safety|content)\s+guidelines`), "safety bypass", SeverityCritical, CategoryInjection},

	// Credentials.
	{regexp.MustCompile(`(?i)(api[_-]?key|password|secret|token)\s*[=:]\s*['"][^'"]+['"]`), "credential literal", SeverityCritical, CategoryCredential},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`), "API key material", SeverityCritical, CategoryCredential},
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_\-.]{16,}`), "bearer token", SeverityHigh, CategoryCredential},

	// PII.
	{regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`), "credit card number", SeverityCritical, CategoryPII},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "SSN pattern", SeverityCritical, CategoryPII},
	{regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "email address", SeverityMedium, CategoryPII},

	// Exfiltration.
	{regexp.MustCompile(`(?i)send\s+(all|the)\s+data\s+to`), "data exfiltration attempt", SeverityHigh, CategoryExfiltration},

	// Unsafe output.
	{regexp.MustCompile(`(?i)(execute|run)\s+(this|the\s+following)\s+(code|command)`), "execution request", SeverityHigh, CategoryUnsafeOutput},
	{regexp.MustCompile(`(?i)\b(eval|exec)\s*\(`), "dynamic evaluation", SeverityHigh, CategoryUnsafeOutput},
	{regexp.MustCompile(`(?i)<\s*script`), "script tag injection", SeverityHigh, CategoryUnsafeOutput},
}

// Scanner scans prompt content against the rule table. Stateless and
// safe for concurrent use.
type Scanner struct {
	minSeverity Severity
}

// New creates a scanner reporting findings at or above min severity.
func New(min Severity) *Scanner {
	if min == "" {
		min = SeverityInfo
	}
	return &Scanner{minSeverity: min}
}

// Scan checks content line by line and returns ordered findings:
// by line, then by severity descending.
func (s *Scanner) Scan(content string) Result {
	var res Result
	for i, line := range strings.Split(content, "\n") {
		for _, p := range patterns {
			loc := p.re.FindString(line)
			if loc == "" {
				continue
			}
			if !p.severity.AtLeast(s.minSeverity) {
				continue
			}
			res.Findings = append(res.Findings, Finding{
				Category: p.category,
				Severity: p.severity,
				Message:  p.message,
				Line:     i + 1,
				Snippet:  snippet(loc),
			})
			res.RiskScore += rank(p.severity) * 5
		}
	}
	sort.SliceStable(res.Findings, func(i, j int) bool {
		if res.Findings[i].Line != res.Findings[j].Line {
			return res.Findings[i].Line < res.Findings[j].Line
		}
		return rank(res.Findings[i].Severity) > rank(res.Findings[j].Severity)
	})
	return res
}

// snippet truncates matched text for display without leaking an entire
// credential into the report.
func snippet(match string) string {
	const max = 60
	if len(match) <= max {
		return match
	}
	return match[:max] + "..."
}
