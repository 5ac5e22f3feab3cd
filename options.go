// Package coda provides uniform, read-only, hierarchical access to
// scientific/earth-observation product files stored in heterogeneous
// binary formats. Open a product, navigate it with a Cursor, and read
// typed values; the underlying container format (CDF, GRIB, ...) is
// transparent once the product is open (spec.md §1).
package coda

import "github.com/stcorp/coda-go/internal/colog"

// Options controls process-wide behavior, mirroring the teacher's
// constructor-injected Options struct (saferwall/pe's pe.Options passed
// into pe.New) rather than the original's implicit thread-local globals —
// see DESIGN.md's Open Question on thread-local emulation.
type Options struct {
	// PerformBoundaryChecks gates array-index and navigation bounds
	// checking (spec.md §4.8, §4.12). Defaults to true; disabling it
	// trades safety for speed on trusted, already-validated inputs.
	PerformBoundaryChecks bool

	// PerformConversions enables the numerator/denominator/offset
	// conversion and invalid-value sentinel substitution on float reads
	// (spec.md §4.8).
	PerformConversions bool

	// UseFastSizeExpressions is recorded in the options but is not
	// consulted by any backend or by the cursor; bit-size expressions are
	// evaluated the same way whether it is set or not.
	UseFastSizeExpressions bool

	// UseMmap is recorded in the options but is not consulted: bitio.Open
	// always tries to memory-map the file and reads it into memory when
	// mapping fails, whether UseMmap is set or not.
	UseMmap bool

	// BypassSpecialTypes makes the cursor treat Special types (time,
	// complex, vsf-integer) as their base type for navigation purposes.
	BypassSpecialTypes bool

	// ReadAllDefinitions is recorded in the options but is not consulted;
	// codadef.Load parses every product definition in an archive at load
	// time whether it is set or not.
	ReadAllDefinitions bool

	// Logger receives diagnostic messages from the CDF and GRIB backends
	// (recoverable per-record anomalies, skipped elements); the codadef
	// loader does not log.
	Logger colog.Logger
}

// DefaultOptions returns the conservative default configuration: boundary
// checks and conversions on.
func DefaultOptions() *Options {
	return &Options{
		PerformBoundaryChecks: true,
		PerformConversions:    true,
		UseMmap:               true,
	}
}

func (o *Options) helper() *colog.Helper {
	if o == nil || o.Logger == nil {
		return colog.NewHelper(nil)
	}
	return colog.NewHelper(o.Logger)
}
