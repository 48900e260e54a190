package evaluation

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
)

// Report is an ordered list of metrics ready for rendering. The order
// is fixed at construction and preserved verbatim in the output.
type Report struct {
	Metrics []Metric `json:"metrics"`
}

// Render returns the report text, one "<name>: <value>" line per
// metric. Values use the shortest decimal form that round-trips.
func (r *Report) Render() string {
	var b strings.Builder
	for _, m := range r.Metrics {
		b.WriteString(m.Name)
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(m.Value, 'g', -1, 64))
		b.WriteByte('\n')
	}
	return b.String()
}

// String implements fmt.Stringer.
func (r *Report) String() string {
	return r.Render()
}

// Write stores the rendered report at path. The file appears atomically
// so a crash mid-write never leaves a truncated report behind.
func (r *Report) Write(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.ArtifactError("creating report directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return apperrors.ArtifactError("creating report temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(r.Render()); err != nil {
		tmp.Close()
		return apperrors.ArtifactError("writing report", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.ArtifactError("closing report temp file", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.ArtifactError("moving report into place", err)
	}
	return nil
}
