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

// Package fsutil holds the file primitives the duplicator builds on.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ✂️ SplitName splits a file name into base and extension at the last dot.
// Leading dots belong to the base, so ".bashrc" has no extension.
func SplitName(name string) (base, ext string) {
	ext = filepath.Ext(name)
	base = name[:len(name)-len(ext)]
	if strings.Trim(base, ".") == "" {
		return name, ""
	}
	return base, ext
}

// 📋 CopyFile copies the contents of src to dst, then carries over the
// permission bits and the access and modification times. An existing dst is
// overwritten.
func CopyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return errors.Errorf("reading source file info: %w", err)
	}

	destination, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return errors.Errorf("copying file content: %w", err)
	}
	if err := destination.Close(); err != nil {
		return errors.Errorf("closing destination file: %w", err)
	}

	return copyMetadata(src, dst, info)
}

// copyMetadata applies the mode and timestamps of info to dst.
func copyMetadata(src, dst string, info os.FileInfo) error {
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return errors.Errorf("setting file mode: %w", err)
	}
	if err := os.Chtimes(dst, accessTime(src, info), info.ModTime()); err != nil {
		return errors.Errorf("setting file times: %w", err)
	}
	return nil
}

// 💾 WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("setting temp file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}
