// Package flatfile persists a snapshot as five comma-delimited text files.
//
// Loading follows domain.LoadOrder so that records are resolved only after
// every kind they reference has been read. Saving stages all five files and
// commits them together.
package flatfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/rentals/internal/domain"
	"github.com/gosuda/rentals/internal/record"
	"github.com/gosuda/rentals/internal/resolve"
	"github.com/gosuda/rentals/internal/store"
)

// File names inside the data directory.
const (
	TenantsFile    = "tenants.txt"
	HostsFile      = "hosts.txt"
	PropertiesFile = "properties.txt"
	AgreementsFile = "rental_agreements.txt"
	PaymentsFile   = "payments.txt"
)

// FileName returns the data file holding records of kind k.
func FileName(k domain.Kind) string {
	switch k {
	case domain.KindTenant:
		return TenantsFile
	case domain.KindHost:
		return HostsFile
	case domain.KindProperty:
		return PropertiesFile
	case domain.KindAgreement:
		return AgreementsFile
	case domain.KindPayment:
		return PaymentsFile
	default:
		return ""
	}
}

// SaveNotifier is told about every committed save.
type SaveNotifier interface {
	NotifySaved(ctx context.Context, dir string, snap *store.Snapshot) error
}

type Option func(*Coordinator)

// WithPropertyLayout selects the layout property rows are written in.
func WithPropertyLayout(layout record.PropertyLayout) Option {
	return func(c *Coordinator) { c.layout = layout }
}

// WithNotifier registers a notifier called after each successful SaveAll.
// Notification errors are logged and never fail the save.
func WithNotifier(n SaveNotifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// Coordinator is the single entry point for reading and writing the data
// directory. It is meant for one in-process writer calling it sequentially.
type Coordinator struct {
	dir      string
	layout   record.PropertyLayout
	notifier SaveNotifier

	createTemp func(dir, pattern string) (*os.File, error)
}

func New(dir string, opts ...Option) *Coordinator {
	c := &Coordinator{dir: dir, layout: record.LayoutTagged, createTemp: os.CreateTemp}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Dir() string { return c.dir }

func (c *Coordinator) path(k domain.Kind) string {
	return filepath.Join(c.dir, FileName(k))
}

// LoadAll reads every data file and returns whatever could be loaded. Bad
// lines, dangling references and unreadable files become warnings in the
// report. The returned error is non-nil only when ctx is done, in which case
// the snapshot holds the kinds loaded so far.
func (c *Coordinator) LoadAll(ctx context.Context) (*store.Snapshot, *Report, error) {
	snap := store.NewSnapshot()
	rep := newReport()

	for _, kind := range domain.LoadOrder() {
		if err := ctx.Err(); err != nil {
			return snap, rep, fmt.Errorf("flatfile.LoadAll: %w", err)
		}

		switch kind {
		case domain.KindTenant:
			load(c.path(kind), record.Tenants, snap.Tenants, rep)
		case domain.KindHost:
			load(c.path(kind), record.Hosts, snap.Hosts, rep)
		case domain.KindProperty:
			load(c.path(kind), record.Properties(c.layout), snap.Properties, rep)
		case domain.KindAgreement:
			raw := store.New[*domain.RentalAgreement](kind)
			load(c.path(kind), record.Agreements, raw, rep)

			res := resolve.Agreements(snap.Tenants, snap.Properties, raw.All())
			for _, a := range res.Resolved {
				snap.Agreements.Upsert(a)
			}
			rep.warn(res.Warnings...)
		case domain.KindPayment:
			raw := store.New[*domain.Payment](kind)
			load(c.path(kind), record.Payments, raw, rep)

			res := resolve.Payments(snap.Agreements, snap.Tenants, raw.All())
			for _, p := range res.Attached {
				snap.Payments.Upsert(p)
			}
			snap.Orphans = res.Orphans
			rep.warn(res.Warnings...)
		}
		rep.Loaded[kind] = snap.Len(kind)
	}

	resolve.Hosts(snap.Hosts.All(), snap.Properties.All(), snap.Agreements.All())

	log.Info().
		Str("dir", c.dir).
		Int("warnings", len(rep.Warnings)).
		Int("orphans", len(snap.Orphans)).
		Msg("flatfile.LoadAll: " + rep.Summary())

	return snap, rep, nil
}

// SaveAll rewrites all five files from snap. Every file is encoded and staged
// to a temporary file first, concurrently and independently; if any of them
// fails, nothing on disk changes and the failures come back joined in one
// error, in file order. Otherwise the staged files are renamed into place.
// snap must not be modified while SaveAll runs.
func (c *Coordinator) SaveAll(ctx context.Context, snap *store.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("flatfile.SaveAll: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("flatfile.SaveAll: %w", &domain.IOError{Op: "create directory", Path: c.dir, Err: err})
	}

	kinds := domain.Kinds()
	results := make([]stagedFile, len(kinds))
	errs := make([]error, len(kinds))

	var g errgroup.Group
	for i, kind := range kinds {
		g.Go(func() error {
			results[i], errs[i] = c.stage(kind, snap)
			return nil
		})
	}
	_ = g.Wait()

	var (
		staged   []stagedFile
		failures []error
	)
	for i, kind := range kinds {
		if errs[i] != nil {
			log.Error().Err(errs[i]).Str("kind", string(kind)).Msg("flatfile.SaveAll: staging failed")
			failures = append(failures, errs[i])
			continue
		}
		staged = append(staged, results[i])
	}

	if len(failures) > 0 {
		for _, sf := range staged {
			sf.discard()
		}
		return fmt.Errorf("flatfile.SaveAll: nothing written: %w", errors.Join(failures...))
	}

	for _, sf := range staged {
		if err := sf.commit(); err != nil {
			log.Error().Err(err).Str("file", sf.path).Msg("flatfile.SaveAll: commit failed")
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("flatfile.SaveAll: %w", errors.Join(failures...))
	}

	log.Info().Str("dir", c.dir).Int("orphans", len(snap.Orphans)).Msg("flatfile.SaveAll: saved")

	if c.notifier != nil {
		if err := c.notifier.NotifySaved(ctx, c.dir, snap); err != nil {
			log.Warn().Err(err).Msg("flatfile.SaveAll: save notification failed")
		}
	}
	return nil
}

func (c *Coordinator) stage(kind domain.Kind, snap *store.Snapshot) (stagedFile, error) {
	switch kind {
	case domain.KindTenant:
		return stage(c.createTemp, c.path(kind), record.Tenants, snap.Tenants.All())
	case domain.KindHost:
		return stage(c.createTemp, c.path(kind), record.Hosts, snap.Hosts.All())
	case domain.KindProperty:
		return stage(c.createTemp, c.path(kind), record.Properties(c.layout), snap.Properties.All())
	case domain.KindAgreement:
		return stage(c.createTemp, c.path(kind), record.Agreements, snap.Agreements.All())
	case domain.KindPayment:
		return stage(c.createTemp, c.path(kind), record.Payments, snap.AllPayments())
	default:
		return stagedFile{}, fmt.Errorf("flatfile: unknown kind %q", kind)
	}
}
