package converter

import (
	"fmt"
	"io"
)

// Reporter prints the human-readable progress lines of a conversion run.
// Write errors are ignored: the report is informational and the JSON
// outputs are the product.
type Reporter struct {
	w io.Writer
}

// NewReporter creates a Reporter writing to w (stdout in the commands).
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Skip reports a missing TEI source by its configured path.
func (r *Reporter) Skip(path string) {
	fmt.Fprintf(r.w, "SKIP: %s not found\n", path)
}

// Parsing reports the start of a pair.
func (r *Reporter) Parsing(path string) {
	fmt.Fprintf(r.w, "Parsing %s...\n", path)
}

// Headwords reports the forward table size.
func (r *Reporter) Headwords(n int) {
	fmt.Fprintf(r.w, "  -> %d headwords\n", n)
}

// Saved reports a written forward table.
func (r *Reporter) Saved(name string, size int64) {
	fmt.Fprintf(r.w, "  -> Saved %s (%s KB)\n", name, kilobytes(size))
}

// Reverse reports a written reverse table.
func (r *Reporter) Reverse(headwords int, name string, size int64) {
	fmt.Fprintf(r.w, "  -> Reverse: %d headwords -> %s (%s KB)\n", headwords, name, kilobytes(size))
}

// DryRun reports a pair that was parsed but not written.
func (r *Reporter) DryRun(reverseHeadwords int) {
	fmt.Fprintf(r.w, "  -> Dry run: %d reverse headwords, nothing written\n", reverseHeadwords)
}

// Done prints the completion notice.
func (r *Reporter) Done() {
	fmt.Fprintln(r.w, "Done!")
}

// kilobytes formats a byte count as whole kilobytes (1 KB = 1024 bytes),
// rounded half to even.
func kilobytes(size int64) string {
	return fmt.Sprintf("%.0f", float64(size)/1024)
}
