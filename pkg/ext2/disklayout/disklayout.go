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

// Package disklayout provides Go implementations of the on-disk data
// structures of the ext2 filesystem.
//
// All fields are stored on disk in little-endian order and the structs here
// are laid out so that they can be (un)marshalled directly with
// encoding/binary. Nothing in this package performs I/O; reading the
// structures off a device is the driver's job.
//
// The filesystem is split into block groups, each carrying its own block
// usage bitmap, inode usage bitmap and inode table. Group 0 starts at the
// block containing the superblock, which always lives at byte offset 1024
// regardless of the block size.
package disklayout

// MinBlockSize is the smallest supported block size and also the size of the
// superblock. Block sizes are expressed as MinBlockSize shifted left by the
// superblock's log block size field.
const MinBlockSize = 1024

// SbOffset is the absolute byte offset of the superblock on the device.
const SbOffset = 1024

// Magic is the signature identifying a volume as ext2. Stored in the
// superblock's magic field.
const Magic = 0xef53
