package models

// Severity is the priority label attached to an Issue. Any string is
// accepted; only the constants below are counted in a summary.
type Severity string

// Category tags the kind of finding an Issue reports. Any string is
// accepted.
type Category string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

const (
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryQuality     Category = "quality"
)

// Issue is a single reported finding.
type Issue struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description" yaml:"description"`
	Severity       Severity `json:"severity" yaml:"severity"`
	IssueType      Category `json:"issue_type" yaml:"issue_type"`
	FilePath       string   `json:"file_path" yaml:"file_path"`
	LineNumber     uint32   `json:"line_number" yaml:"line_number"`
	CodeSnippet    string   `json:"code_snippet" yaml:"code_snippet"`
	Recommendation string   `json:"recommendation" yaml:"recommendation"`
}

// AnalysisSummary holds issue counts by severity.
type AnalysisSummary struct {
	TotalIssues    int `json:"total_issues" yaml:"total_issues"`
	HighSeverity   int `json:"high_severity" yaml:"high_severity"`
	MediumSeverity int `json:"medium_severity" yaml:"medium_severity"`
	LowSeverity    int `json:"low_severity" yaml:"low_severity"`
}

// AnalysisResult is the payload returned by analyze_directory.
type AnalysisResult struct {
	TotalFiles    int             `json:"total_files" yaml:"total_files"`
	AnalyzedFiles int             `json:"analyzed_files" yaml:"analyzed_files"`
	Issues        []Issue         `json:"issues" yaml:"issues"`
	Summary       AnalysisSummary `json:"summary" yaml:"summary"`
}

// Summarize counts issues by severity. TotalIssues is the length of the
// list, so it only equals the sum of the three buckets when every issue
// carries a known severity.
func Summarize(issues []Issue) AnalysisSummary {
	return AnalysisSummary{
		TotalIssues:    len(issues),
		HighSeverity:   countSeverity(issues, SeverityHigh),
		MediumSeverity: countSeverity(issues, SeverityMedium),
		LowSeverity:    countSeverity(issues, SeverityLow),
	}
}

func countSeverity(issues []Issue, severity Severity) int {
	n := 0
	for _, issue := range issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}
