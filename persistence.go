package contraptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Record is the persisted form of one contraption. Properties are not
// persisted; they are resolved by type from the live registry on load.
type Record struct {
	Location  Location           `json:"location"`
	Type      string             `json:"type"`
	Resources map[string]float64 `json:"resources"`
}

// validate checks the fields every record needs.
func (r Record) validate() error {
	switch {
	case strings.TrimSpace(r.Type) == "":
		return errors.New("missing type")
	case r.Location.World == "":
		return errors.New("missing location world")
	}
	return nil
}

// Store persists the contraption population wholesale.
type Store interface {
	// Name identifies the store in load reports and logs.
	Name() string

	// Save replaces the stored population with records.
	Save(ctx context.Context, records []Record) error

	// Load returns every readable record. Records that cannot be decoded are
	// reported as failures and skipped; err is only set when nothing could
	// be read at all.
	Load(ctx context.Context) (records []Record, failures []LoadFailure, err error)
}

// LoadFailure names one skipped file or record and why.
type LoadFailure struct {
	Source string
	Err    error
}

func (f LoadFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

func (f LoadFailure) Unwrap() error {
	return f.Err
}

// LoadReport summarises a best-effort bulk load. The caller decides whether
// a partial load is acceptable.
type LoadReport struct {
	Loaded   int
	Failures []LoadFailure
}

// OK reports whether nothing was skipped.
func (r LoadReport) OK() bool {
	return len(r.Failures) == 0
}

// Err joins every failure, or returns nil.
func (r LoadReport) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

func (r *LoadReport) fail(source string, err error) {
	r.Failures = append(r.Failures, LoadFailure{Source: source, Err: err})
}
