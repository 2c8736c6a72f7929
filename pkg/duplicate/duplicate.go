// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package duplicate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/copies/pkg/fsutil"
	"github.com/walteh/copies/pkg/imaging"
	"github.com/walteh/copies/pkg/log"
	"github.com/walteh/copies/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 📢 Notifier receives one notice per file-level action
type Notifier interface {
	LogFileOperation(ctx context.Context, op log.FileOperation)
}

// 🔧 Options contains the parameters of a run
type Options struct {
	// Source is the directory whose direct children are duplicated
	Source string
	// Target is the directory duplicates are written to, created if missing
	Target string
	// Copies is the number of duplicates per file; <= 0 writes none
	Copies int
	// Convert turns image files into CMYK JPEGs
	Convert bool
	// Quality is the JPEG quality for converted images; 0 means the default
	Quality int
	// AutoOrient applies the EXIF orientation of images before converting
	AutoOrient bool
	// ImageExtensions overrides imaging.DefaultExtensions
	ImageExtensions []string
	// Ignore holds doublestar patterns matched against file names
	Ignore []string
	// KeepGoing reports copy failures and continues instead of stopping
	KeepGoing bool
	// Notifier receives notices; nil prints to stdout
	Notifier Notifier
	// Tracker records every duplicate written; nil records nothing
	Tracker *status.Tracker
}

// 📊 Report counts what a run did
type Report struct {
	Files      int // Regular files processed
	Skipped    int // Directories and other non-regular entries
	Ignored    int // Files matched by an ignore pattern
	Converted  int // Files converted to CMYK JPEG
	Fallbacks  int // Files whose conversion failed
	Duplicates int // Duplicates written
	Failures   int // Duplicates that could not be written
}

// Summary returns the report in the form the console logger prints
func (r *Report) Summary() log.Summary {
	return log.Summary{
		Files:      r.Files,
		Skipped:    r.Skipped,
		Ignored:    r.Ignored,
		Converted:  r.Converted,
		Fallbacks:  r.Fallbacks,
		Duplicates: r.Duplicates,
		Failures:   r.Failures,
	}
}

// duplicator holds the state of one run
type duplicator struct {
	opts     Options
	exts     []string
	notifier Notifier
	report   *Report
	errs     []error
}

// 🏃 Duplicate writes opts.Copies duplicates of every regular file directly
// inside opts.Source into opts.Target. The returned report is non-nil
// whenever the source was valid, including when an error is returned.
func Duplicate(ctx context.Context, opts Options) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	// Ensure source folder exists
	info, err := os.Stat(opts.Source)
	if err != nil || !info.IsDir() {
		return nil, errors.Errorf("%w: source folder %q does not exist", ErrInvalidSource, opts.Source)
	}

	entries, err := os.ReadDir(opts.Source)
	if err != nil {
		return nil, errors.Errorf("%w: listing %q: %v", ErrInvalidSource, opts.Source, err)
	}

	// Create target folder if it doesn't exist
	if err := os.MkdirAll(opts.Target, 0o755); err != nil {
		return nil, errors.Errorf("%w %q: %v", ErrCreateTarget, opts.Target, err)
	}

	d := &duplicator{
		opts:     opts,
		exts:     opts.ImageExtensions,
		notifier: opts.Notifier,
		report:   &Report{},
	}
	if d.exts == nil {
		d.exts = imaging.DefaultExtensions
	}
	if d.notifier == nil {
		d.notifier = log.New(os.Stdout, *logger)
	}

	logger.Debug().
		Str("source", opts.Source).
		Str("target", opts.Target).
		Int("copies", opts.Copies).
		Bool("convert", opts.Convert).
		Int("entries", len(entries)).
		Msg("duplicating files")

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return d.report, errors.Errorf("duplicating interrupted: %w", err)
		}

		if !entry.Type().IsRegular() {
			d.report.Skipped++
			logger.Debug().Str("entry", entry.Name()).Stringer("type", entry.Type()).Msg("skipping non-regular entry")
			continue
		}

		if d.shouldIgnore(ctx, entry.Name()) {
			d.report.Ignored++
			continue
		}

		d.report.Files++
		if err := d.processFile(ctx, entry.Name()); err != nil {
			return d.report, err
		}
	}

	if len(d.errs) > 0 {
		return d.report, errors.Join(d.errs...)
	}
	return d.report, nil
}

// 🔍 shouldIgnore checks if a file name matches an ignore pattern
func (d *duplicator) shouldIgnore(ctx context.Context, name string) bool {
	logger := zerolog.Ctx(ctx)
	for _, pattern := range d.opts.Ignore {
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			logger.Debug().Str("pattern", pattern).Str("file", name).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			logger.Debug().Str("file", name).Str("pattern", pattern).Msg("file ignored by pattern")
			return true
		}
	}
	return false
}

// duplicateName returns the name of the i'th duplicate
func duplicateName(base string, i int, ext string) string {
	return fmt.Sprintf("%s_copy%d%s", base, i, ext)
}

// 📄 processFile writes the duplicates of a single file. It only returns an
// error when a copy failed and KeepGoing is off.
func (d *duplicator) processFile(ctx context.Context, name string) error {
	if d.opts.Copies <= 0 {
		zerolog.Ctx(ctx).Debug().Str("file", name).Int("copies", d.opts.Copies).Msg("no duplicates requested")
		return nil
	}

	base, ext := fsutil.SplitName(name)
	src := filepath.Join(d.opts.Source, name)

	if d.opts.Convert && imaging.IsImage(ext, d.exts) {
		outcome := imaging.Convert(ctx, src, d.opts.Quality, imaging.WithAutoOrient(d.opts.AutoOrient))
		if outcome.OK() {
			return d.writeConverted(ctx, name, base, outcome.JPEG())
		}

		// Fallback to original copy logic
		d.report.Fallbacks++
		d.notifier.LogFileOperation(ctx, log.FileOperation{
			Action: log.ActionFallback,
			Source: name,
			Err:    outcome.Err(),
		})
		return d.copyDuplicates(ctx, name, src, base, ext, status.KindFallback)
	}

	return d.copyDuplicates(ctx, name, src, base, ext, status.KindCopied)
}

// 🎨 writeConverted writes the same CMYK JPEG encoding to every duplicate
func (d *duplicator) writeConverted(ctx context.Context, name, base string, data []byte) error {
	targets := make([]string, 0, d.opts.Copies)
	for i := 1; i <= d.opts.Copies; i++ {
		dup := duplicateName(base, i, ".jpg")
		dst := filepath.Join(d.opts.Target, dup)

		before := d.checksumBefore(ctx, dst)
		if err := fsutil.WriteFileAtomic(dst, data, 0o644); err != nil {
			if ferr := d.fail(ctx, name, dup, err); ferr != nil {
				// report what is already on disk before stopping
				d.converted(ctx, name, targets)
				return ferr
			}
			continue
		}

		d.report.Duplicates++
		targets = append(targets, dup)
		d.track(ctx, name, dup, dst, status.KindConverted, before)
	}

	d.converted(ctx, name, targets)
	return nil
}

// converted counts a converted file and emits its notice, unless none of
// its duplicates were written
func (d *duplicator) converted(ctx context.Context, name string, targets []string) {
	if len(targets) == 0 {
		return
	}
	d.report.Converted++
	d.notifier.LogFileOperation(ctx, log.FileOperation{
		Action:  log.ActionConverted,
		Source:  name,
		Targets: targets,
	})
}

// 📋 copyDuplicates writes byte-identical, metadata-preserving duplicates
func (d *duplicator) copyDuplicates(ctx context.Context, name, src, base, ext string, kind status.Kind) error {
	for i := 1; i <= d.opts.Copies; i++ {
		dup := duplicateName(base, i, ext)
		dst := filepath.Join(d.opts.Target, dup)

		before := d.checksumBefore(ctx, dst)
		if err := fsutil.CopyFile(src, dst); err != nil {
			if ferr := d.fail(ctx, name, dup, err); ferr != nil {
				return ferr
			}
			continue
		}

		d.report.Duplicates++
		d.track(ctx, name, dup, dst, kind, before)
		d.notifier.LogFileOperation(ctx, log.FileOperation{
			Action:  log.ActionCopied,
			Source:  name,
			Targets: []string{dup},
		})
	}
	return nil
}

// 💥 fail records a copy failure. It returns the error to stop the run with,
// or nil when KeepGoing is set.
func (d *duplicator) fail(ctx context.Context, name, dup string, err error) error {
	cerr := &CopyError{Source: name, Target: dup, Err: err}
	d.report.Failures++

	if !d.opts.KeepGoing {
		return errors.WithStack(cerr)
	}

	d.errs = append(d.errs, cerr)
	d.notifier.LogFileOperation(ctx, log.FileOperation{
		Action:  log.ActionFailed,
		Source:  name,
		Targets: []string{dup},
		Err:     err,
	})
	return nil
}

// checksumBefore returns the checksum of dst before it is overwritten, or ""
// when nothing is tracked.
func (d *duplicator) checksumBefore(ctx context.Context, dst string) string {
	if d.opts.Tracker == nil {
		return ""
	}
	sum, _, err := status.ChecksumFile(dst)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", dst).Msg("reading previous duplicate")
	}
	return sum
}

// track records a written duplicate with the tracker, if any
func (d *duplicator) track(ctx context.Context, name, dup, dst string, kind status.Kind, before string) {
	if d.opts.Tracker == nil {
		return
	}
	sum, size, err := status.ChecksumFile(dst)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", dst).Msg("hashing duplicate")
		return
	}
	d.opts.Tracker.Track(ctx, status.Entry{
		Source:   name,
		Target:   dup,
		Kind:     kind,
		Status:   status.Compare(before, sum),
		Size:     size,
		Checksum: sum,
	})
}
