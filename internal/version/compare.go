package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
)

// CheckVersionCompatibility reports whether a search report written by
// reportVersion can be resumed by a binary at currentVersion.
//
// Major and minor must match; patch may differ. A "main" build on either side
// skips the check.
//
//   - current 0.3.1, report 0.3.0 -> OK
//   - current 0.4.0, report 0.3.0 -> ERROR
//   - current main, report 0.3.0 -> OK
func CheckVersionCompatibility(currentVersion, reportVersion string) error {
	currentVersion = strings.TrimPrefix(currentVersion, "v")
	reportVersion = strings.TrimPrefix(reportVersion, "v")

	if currentVersion == "main" || reportVersion == "main" {
		return nil
	}

	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid current version '%s'", currentVersion)
	}

	report, err := semver.NewVersion(reportVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid report version '%s'", reportVersion)
	}

	if current.Major() != report.Major() || current.Minor() != report.Minor() {
		return errors.Newf(errors.ErrCodeReportVersionMismatch,
			"report was written by %d.%d.x but this binary is %d.%d.x",
			report.Major(), report.Minor(), current.Major(), current.Minor())
	}

	return nil
}
