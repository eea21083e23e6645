package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"drillsargeant/internal/models"

	"gopkg.in/yaml.v3"
)

// Formats lists the accepted values for Export.
var Formats = []string{"text", "json", "markdown", "yaml"}

// Export renders result in the named format.
func Export(format string, result models.AnalysisResult) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return ExportText(result), nil
	case "json":
		return ExportJSON(result)
	case "markdown", "md":
		return ExportMarkdown(result), nil
	case "yaml", "yml":
		return ExportYAML(result)
	default:
		return "", fmt.Errorf("unsupported format %q (want one of %s)", format, strings.Join(Formats, "|"))
	}
}

// ExportText returns one line per issue followed by the summary.
func ExportText(result models.AnalysisResult) string {
	var b strings.Builder
	for _, issue := range result.Issues {
		fmt.Fprintf(&b, "[%s] %s:%d %s (%s)\n", issue.Severity, issue.FilePath, issue.LineNumber, issue.Title, issue.IssueType)
		if issue.CodeSnippet != "" {
			fmt.Fprintf(&b, "  %s\n", issue.CodeSnippet)
		}
		if issue.Recommendation != "" {
			fmt.Fprintf(&b, "  -> %s\n", issue.Recommendation)
		}
	}
	s := result.Summary
	fmt.Fprintf(&b, "\n%d issues (%d high, %d medium, %d low) in %d of %d files\n",
		s.TotalIssues, s.HighSeverity, s.MediumSeverity, s.LowSeverity, result.AnalyzedFiles, result.TotalFiles)
	return b.String()
}

// ExportJSON returns the indented JSON encoding of result.
func ExportJSON(result models.AnalysisResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExportYAML returns the YAML encoding of result.
func ExportYAML(result models.AnalysisResult) (string, error) {
	data, err := yaml.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExportMarkdown returns a Markdown report with a summary table and one
// section per issue.
func ExportMarkdown(result models.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("# DrillSargeant Report\n\n")

	s := result.Summary
	b.WriteString("| Files | Analyzed | Issues | High | Medium | Low |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n\n",
		result.TotalFiles, result.AnalyzedFiles, s.TotalIssues, s.HighSeverity, s.MediumSeverity, s.LowSeverity)

	if len(result.Issues) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}

	for _, issue := range result.Issues {
		fmt.Fprintf(&b, "## [%s] %s\n\n", strings.ToUpper(string(issue.Severity)), escapeMarkdown(issue.Title))
		fmt.Fprintf(&b, "- **Category:** %s\n", issue.IssueType)
		fmt.Fprintf(&b, "- **Location:** `%s:%d`\n", issue.FilePath, issue.LineNumber)
		if issue.Description != "" {
			fmt.Fprintf(&b, "- **Description:** %s\n", escapeMarkdown(issue.Description))
		}
		if issue.Recommendation != "" {
			fmt.Fprintf(&b, "- **Recommendation:** %s\n", escapeMarkdown(issue.Recommendation))
		}
		if issue.CodeSnippet != "" {
			fence := codeFence(issue.CodeSnippet)
			fmt.Fprintf(&b, "\n%s\n%s\n%s\n", fence, issue.CodeSnippet, fence)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// codeFence returns a backtick fence longer than any backtick run in code,
// and never shorter than three.
func codeFence(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r != '`' {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`")
	return replacer.Replace(s)
}
