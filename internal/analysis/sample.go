package analysis

import "drillsargeant/internal/models"

const (
	sampleTotalFiles    = 127
	sampleAnalyzedFiles = 89
)

// sampleIssues returns a fresh copy of the illustrative findings on every
// call so callers never share a backing array.
func sampleIssues() []models.Issue {
	return []models.Issue{
		{
			ID:             "security_1",
			Title:          "Potential XSS Vulnerability",
			Description:    "Direct innerHTML assignment without sanitization",
			Severity:       models.SeverityHigh,
			IssueType:      models.CategorySecurity,
			FilePath:       "src/components/App.tsx",
			LineNumber:     42,
			CodeSnippet:    "element.innerHTML = userInput;",
			Recommendation: "Use textContent or sanitize input before assignment",
		},
		{
			ID:             "performance_1",
			Title:          "Inefficient CSS Selector",
			Description:    "Complex CSS selector may impact performance",
			Severity:       models.SeverityMedium,
			IssueType:      models.CategoryPerformance,
			FilePath:       "src/styles/main.css",
			LineNumber:     15,
			CodeSnippet:    "div > ul > li:nth-child(odd) > a[href*='example']",
			Recommendation: "Consider using CSS classes for better performance",
		},
		{
			ID:             "quality_1",
			Title:          "Unused Variable",
			Description:    "Variable declared but never used",
			Severity:       models.SeverityLow,
			IssueType:      models.CategoryQuality,
			FilePath:       "src/utils/helpers.js",
			LineNumber:     8,
			CodeSnippet:    "const unusedVar = 'not used';",
			Recommendation: "Remove unused variables to improve code clarity",
		},
	}
}
