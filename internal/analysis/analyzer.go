// Package analysis produces the analyze_directory payload.
//
// The result is fixed sample data: the directory argument is logged and
// otherwise ignored, and no file under it is opened.
package analysis

import (
	"drillsargeant/internal/models"

	"github.com/sirupsen/logrus"
)

// Analyzer builds AnalysisResult values.
type Analyzer struct {
	log logrus.FieldLogger
}

// NewAnalyzer creates an Analyzer. A nil logger uses the logrus standard
// logger.
func NewAnalyzer(log logrus.FieldLogger) *Analyzer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Analyzer{log: log}
}

// Analyze returns the sample result for path. It accepts any string and
// never touches the filesystem.
func (a *Analyzer) Analyze(path string) models.AnalysisResult {
	a.log.WithField("path", path).Info("Analyzing directory")

	issues := sampleIssues()
	return models.AnalysisResult{
		TotalFiles:    sampleTotalFiles,
		AnalyzedFiles: sampleAnalyzedFiles,
		Issues:        issues,
		Summary:       models.Summarize(issues),
	}
}
