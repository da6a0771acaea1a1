// Copyright 2025 The extfs Authors.
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

package ext2

import "errors"

// Errors returned by this package. Disk-data problems are always surfaced as
// recoverable errors so that the caller can apply the superblock's error
// policy; only caller contract violations panic. I/O failures from the
// underlying device are wrapped and can be unwrapped with errors.Is/As.
var (
	// ErrCorruptSuperBlock indicates the superblock has a bad magic signature
	// or an invalid size exponent.
	ErrCorruptSuperBlock = errors.New("ext2: corrupt superblock")

	// ErrCorruptDirent indicates a directory entry with a malformed record
	// length: zero, unaligned, shorter than the entry itself, or running past
	// the end of its block.
	ErrCorruptDirent = errors.New("ext2: corrupt directory entry")

	// ErrBadInode indicates an inode number outside the valid range for the
	// volume, typically read from a corrupt directory entry.
	ErrBadInode = errors.New("ext2: inode number out of range")

	// ErrNotDir is returned when a path component other than the last one
	// resolves to something that is not a directory.
	ErrNotDir = errors.New("ext2: not a directory")

	// ErrNotExist is returned when a path component cannot be found.
	ErrNotExist = errors.New("ext2: no such file or directory")
)
