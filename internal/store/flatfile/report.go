package flatfile

import (
	"fmt"

	"github.com/gosuda/rentals/internal/domain"
)

// Report describes one LoadAll run.
type Report struct {
	// Read counts the non-blank lines seen per kind.
	Read map[domain.Kind]int
	// Loaded counts the records that made it into the snapshot per kind.
	// Orphan payments are read but not loaded.
	Loaded map[domain.Kind]int
	// Warnings lists every skipped line, dropped or orphaned record and
	// per-file I/O problem, in the order they occurred.
	Warnings []error
}

func newReport() *Report {
	return &Report{
		Read:   make(map[domain.Kind]int, len(domain.Kinds())),
		Loaded: make(map[domain.Kind]int, len(domain.Kinds())),
	}
}

func (r *Report) warn(errs ...error) {
	r.Warnings = append(r.Warnings, errs...)
}

// Totals returns the loaded and read record counts over all kinds.
func (r *Report) Totals() (loaded, read int) {
	for _, k := range domain.Kinds() {
		loaded += r.Loaded[k]
		read += r.Read[k]
	}
	return loaded, read
}

// Summary renders "loaded N of M records".
func (r *Report) Summary() string {
	loaded, read := r.Totals()
	return fmt.Sprintf("loaded %d of %d records", loaded, read)
}
