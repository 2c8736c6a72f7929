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
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrInvalidSource means the source path is missing or not a directory.
	ErrInvalidSource = errors.Base("invalid source folder")
	// ErrCreateTarget means the target directory could not be created.
	ErrCreateTarget = errors.Base("cannot create target folder")
	// ErrCopy means a duplicate could not be written.
	ErrCopy = errors.Base("copy failed")
)

// 💥 CopyError describes a duplicate that could not be written.
type CopyError struct {
	Source string // Source file name
	Target string // Duplicate file name
	Err    error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copying %s to %s: %v", e.Source, e.Target, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// Is reports ErrCopy as matching so callers can test with errors.Is.
func (e *CopyError) Is(target error) bool { return target == ErrCopy }
