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

package disklayout

// GroupDescSize is the on-disk size of a group descriptor record.
const GroupDescSize = 32

// GroupDesc is one entry of the block group descriptor table. The table is an
// array with one record per group and is stored in the block(s) immediately
// following the superblock (and its backups, where present).
type GroupDesc struct {
	// BlockBitmap is the id of the first block of the block usage bitmap for
	// this group. Each bitmap fits in a single block, which caps the group
	// size at 8 times the block size in blocks.
	BlockBitmap uint32

	// InodeBitmap is the id of the first block of the inode usage bitmap.
	InodeBitmap uint32

	// InodeTable is the id of the first block of the inode table.
	InodeTable uint32

	FreeBlocksCount uint16
	FreeInodesCount uint16
	UsedDirsCount   uint16
	_               uint16
	_               [12]byte
}
