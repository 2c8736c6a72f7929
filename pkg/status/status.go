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

package status

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/copies/pkg/fsutil"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 📊 FileStatus represents a target's state relative to before the run
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusNew                  // Target did not exist
	StatusModified             // Target existed with different content
	StatusUnchanged            // Target existed with identical content
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s FileStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *FileStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "new":
		*s = StatusNew
	case "modified":
		*s = StatusModified
	case "unchanged":
		*s = StatusUnchanged
	case "unknown":
		*s = StatusUnknown
	default:
		return errors.Errorf("unknown file status %q", text)
	}
	return nil
}

// 🏷️ Kind is how a duplicate was produced
type Kind string

const (
	KindCopied    Kind = "copied"    // plain byte copy
	KindConverted Kind = "converted" // CMYK JPEG encoding
	KindFallback  Kind = "fallback"  // byte copy after a failed conversion
)

// 📄 Entry describes one duplicate
type Entry struct {
	Source   string     `json:"source" yaml:"source"`
	Target   string     `json:"target" yaml:"target"`
	Kind     Kind       `json:"kind" yaml:"kind"`
	Status   FileStatus `json:"status" yaml:"status"`
	Size     int64      `json:"size" yaml:"size"`
	Checksum string     `json:"sha256" yaml:"sha256"`
}

// 📦 Manifest is the on-disk record of a run
type Manifest struct {
	Source string  `json:"source" yaml:"source"`
	Target string  `json:"target" yaml:"target"`
	Files  []Entry `json:"files" yaml:"files"`
}

// 🔧 Tracker records duplicates as they are written
type Tracker struct {
	source string
	target string

	mu      sync.Mutex
	entries map[string]Entry
}

// 🏭 NewTracker creates a tracker for a run from source into target
func NewTracker(source, target string) *Tracker {
	return &Tracker{
		source:  source,
		target:  target,
		entries: make(map[string]Entry),
	}
}

// 🔍 Checksum returns the hex SHA-256 of r's content and its length
func Checksum(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, errors.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// 🔍 ChecksumFile returns the checksum of the file at path. A missing file
// yields an empty checksum and no error.
func ChecksumFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, errors.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return Checksum(f)
}

// Compare classifies a target given its checksum before and after a write.
func Compare(before, after string) FileStatus {
	switch {
	case before == "":
		return StatusNew
	case before == after:
		return StatusUnchanged
	default:
		return StatusModified
	}
}

// 📝 Track records an entry, replacing any previous entry for the same target
func (t *Tracker) Track(ctx context.Context, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[e.Target] = e
	zerolog.Ctx(ctx).Debug().
		Str("source", e.Source).
		Str("target", e.Target).
		Str("kind", string(e.Kind)).
		Str("status", e.Status.String()).
		Int64("size", e.Size).
		Msg("tracked duplicate")
}

// 📋 Entries returns the tracked entries sorted by target name
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}

// 📦 Manifest returns the run's manifest
func (t *Tracker) Manifest() Manifest {
	return Manifest{
		Source: t.source,
		Target: t.target,
		Files:  t.Entries(),
	}
}

// 💾 WriteManifest writes the manifest to path as YAML (.yaml, .yml) or
// JSON (.json)
func (t *Tracker) WriteManifest(ctx context.Context, path string) error {
	m := t.Manifest()

	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(m)
	case ".json":
		data, err = json.MarshalIndent(m, "", "  ")
		data = append(data, '\n')
	default:
		return errors.Errorf("unsupported manifest extension %q", ext)
	}
	if err != nil {
		return errors.Errorf("encoding manifest: %w", err)
	}

	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.Errorf("writing manifest: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("files", len(m.Files)).Msg("wrote manifest")
	return nil
}
