package writer

import (
	"os"
	"time"

	"github.com/rxtech-lab/argo-optimizer/internal/optimizer"
	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/internal/version"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SearchReport is the yaml record of a finished search. A later search can
// be resumed from it, skipping every parameter set it already holds.
type SearchReport struct {
	Version   string               `yaml:"version"`
	RunID     string               `yaml:"run_id"`
	CreatedAt time.Time            `yaml:"created_at"`
	Summary   optimizer.Summary    `yaml:"summary"`
	Results   []types.SearchResult `yaml:"results"`
}

func NewSearchReport(summary optimizer.Summary, results []types.SearchResult) SearchReport {
	return SearchReport{
		Version:   version.GetVersion(),
		RunID:     summary.RunID,
		CreatedAt: time.Now().UTC(),
		Summary:   summary,
		Results:   results,
	}
}

// Keys returns the parameter set keys of every result in the report.
func (r SearchReport) Keys() []string {
	keys := make([]string, 0, len(r.Results))
	for _, result := range r.Results {
		keys = append(keys, result.Parameters.Key())
	}

	return keys
}

func WriteSearchReport(path string, report SearchReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to marshal search report", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to write search report %s", path)
	}

	return nil
}

// ReadSearchReport reads a report and checks that this binary can resume it.
func ReadSearchReport(path string) (SearchReport, error) {
	var report SearchReport

	data, err := os.ReadFile(path)
	if err != nil {
		return report, errors.Wrapf(errors.ErrCodeReportReadFailed, err, "failed to read search report %s", path)
	}

	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, errors.Wrapf(errors.ErrCodeReportReadFailed, err, "failed to parse search report %s", path)
	}

	if err := version.CheckVersionCompatibility(version.GetVersion(), report.Version); err != nil {
		return report, err
	}

	return report, nil
}
