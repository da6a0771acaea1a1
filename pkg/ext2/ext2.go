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

// Package ext2 implements a read-only driver for the ext2 filesystem.
//
// The driver covers the read path only: superblock and group descriptor
// interpretation, bounded caching of the per-group usage bitmaps,
// cross-structure consistency checking, resolution of logical file blocks
// through the direct/indirect/double-indirect/triple-indirect pointer chains,
// and directory entry enumeration. Write support, journaling, extended
// attributes and ACLs are out of scope, as is the virtual-filesystem dispatch
// layer that would sit on top.
package ext2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/extfs-dev/extfs/pkg/ext2/disklayout"
)

// maxLogBlockSize bounds the superblock's block size exponent. The largest
// block size ever produced by mke2fs is 64 KiB (exponent 6); anything above
// is treated as corruption rather than risking a giant shift.
const maxLogBlockSize = 6

// maxGroupsCount bounds the derived group count before the descriptor table
// is allocated. The cap corresponds to a 16 MiB descriptor table, far beyond
// any volume ext2 can address; a count above it can only come from a
// corrupt or hostile superblock, and allocating a table for it would abort
// the process instead of returning an error.
const maxGroupsCount = 1 << 19

// Filesystem is a mounted ext2 volume. It is created by Mount and is
// read-only: no operation mutates the device.
//
// The superblock and the group descriptor table are loaded once at mount time
// and live for the duration of the mount. The two bitmap caches are populated
// lazily as groups are referenced.
type Filesystem struct {
	// mu serializes all bitmap cache mutations. The LRU reordering and
	// eviction sequence is not safely interleavable: a concurrent reader
	// could observe a half-shifted slot-to-group mapping.
	mu sync.Mutex

	// dev is the underlying block device. io.ReaderAt permits concurrent
	// reads, so operations that do not touch the caches run lock-free.
	dev io.ReaderAt

	// sb is the superblock. Immutable after Mount.
	sb disklayout.SuperBlock

	// blkSize and groupsCount are derived from sb once so every computation
	// in the driver agrees on them.
	blkSize     uint64
	groupsCount uint32

	// descs is the group descriptor table, indexed by group. Immutable after
	// Mount.
	descs []disklayout.GroupDesc

	// blockBitmaps and inodeBitmaps cache the per-group usage bitmaps. Both
	// run the same bounded-LRU algorithm; they differ only in which
	// descriptor field locates the source block. Protected by mu.
	blockBitmaps *bitmapCache
	inodeBitmaps *bitmapCache
}

// Mount reads the superblock and the group descriptor table from dev and
// returns a mounted filesystem. dev must remain usable for the lifetime of
// the returned Filesystem.
func Mount(dev io.ReaderAt) (*Filesystem, error) {
	sb, err := readSuperBlock(dev)
	if err != nil {
		return nil, err
	}

	fs := &Filesystem{
		dev:         dev,
		sb:          sb,
		blkSize:     sb.BlockSize(),
		groupsCount: sb.GroupsCount(),
	}

	if fs.descs, err = readGroupDescriptors(dev, &sb); err != nil {
		return nil, err
	}

	fs.blockBitmaps = &bitmapCache{fs: fs, kind: blockBitmap}
	fs.inodeBitmaps = &bitmapCache{fs: fs, kind: inodeBitmap}

	if sb.State != disklayout.StateValid {
		logrus.WithField("state", sb.State).Warn("ext2: filesystem was not unmounted cleanly")
	}
	return fs, nil
}

// readSuperBlock reads and validates the superblock at its fixed offset.
func readSuperBlock(dev io.ReaderAt) (disklayout.SuperBlock, error) {
	var sb disklayout.SuperBlock
	buf := make([]byte, disklayout.MinBlockSize)
	if _, err := dev.ReadAt(buf, disklayout.SbOffset); err != nil {
		return sb, fmt.Errorf("ext2: read superblock: %w", err)
	}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &sb); err != nil {
		return sb, fmt.Errorf("ext2: decode superblock: %w", err)
	}

	if sb.Magic != disklayout.Magic {
		return sb, fmt.Errorf("%w: magic %#x", ErrCorruptSuperBlock, sb.Magic)
	}
	if sb.LogBlockSize > maxLogBlockSize {
		return sb, fmt.Errorf("%w: block size exponent %d", ErrCorruptSuperBlock, sb.LogBlockSize)
	}
	if sb.LogFragSize > maxLogBlockSize || sb.LogFragSize < -maxLogBlockSize {
		return sb, fmt.Errorf("%w: fragment size exponent %d", ErrCorruptSuperBlock, sb.LogFragSize)
	}
	if sb.BlocksPerGroup == 0 || sb.InodesPerGroup == 0 {
		return sb, fmt.Errorf("%w: zero blocks or inodes per group", ErrCorruptSuperBlock)
	}
	if sb.BlocksPerGroup > uint32(sb.BlockSize())*8 || sb.InodesPerGroup > uint32(sb.BlockSize())*8 {
		// Each usage bitmap must fit in a single block.
		return sb, fmt.Errorf("%w: group larger than its bitmap", ErrCorruptSuperBlock)
	}
	if sb.BlocksCount <= sb.FirstDataBlock {
		return sb, fmt.Errorf("%w: %d blocks with first data block %d", ErrCorruptSuperBlock, sb.BlocksCount, sb.FirstDataBlock)
	}
	groups := sb.GroupsCount()
	if groups > maxGroupsCount {
		return sb, fmt.Errorf("%w: %d block groups", ErrCorruptSuperBlock, groups)
	}
	// The inode space must describe the same number of groups as the block
	// space does.
	if (sb.InodesCount+sb.InodesPerGroup-1)/sb.InodesPerGroup != groups {
		return sb, fmt.Errorf("%w: %d inodes cannot span %d groups of %d", ErrCorruptSuperBlock, sb.InodesCount, groups, sb.InodesPerGroup)
	}
	return sb, nil
}

// readGroupDescriptors reads the descriptor table from the blocks immediately
// following the superblock. The load is atomic: if any constituent block read
// fails no partial table is returned.
func readGroupDescriptors(dev io.ReaderAt, sb *disklayout.SuperBlock) ([]disklayout.GroupDesc, error) {
	groupsCount := sb.GroupsCount()
	descPerBlock := sb.DescPerBlock()
	firstBlock := sb.FirstDataBlock + 1

	descs := make([]disklayout.GroupDesc, 0, groupsCount)
	for i := uint32(0); i < sb.DescBlocksCount(); i++ {
		buf, err := readBlock(dev, sb.BlockSize(), firstBlock+i)
		if err != nil {
			return nil, fmt.Errorf("ext2: read group descriptor table: %w", err)
		}

		n := descPerBlock
		if remaining := groupsCount - uint32(len(descs)); remaining < n {
			n = remaining
		}
		for j := uint32(0); j < n; j++ {
			var gd disklayout.GroupDesc
			rec := buf[j*disklayout.GroupDescSize : (j+1)*disklayout.GroupDescSize]
			if err := binary.Read(bytes.NewReader(rec), binary.LittleEndian, &gd); err != nil {
				return nil, fmt.Errorf("ext2: decode group descriptor: %w", err)
			}
			descs = append(descs, gd)
		}
	}
	return descs, nil
}

// readBlock reads one whole block off the device.
func readBlock(dev io.ReaderAt, blkSize uint64, blk uint32) ([]byte, error) {
	buf := make([]byte, blkSize)
	if _, err := dev.ReadAt(buf, int64(uint64(blk)*blkSize)); err != nil {
		return nil, fmt.Errorf("ext2: read block %d: %w", blk, err)
	}
	return buf, nil
}

func (fs *Filesystem) readBlock(blk uint32) ([]byte, error) {
	return readBlock(fs.dev, fs.blkSize, blk)
}

// SuperBlock returns a copy of the on-disk superblock.
func (fs *Filesystem) SuperBlock() disklayout.SuperBlock { return fs.sb }

// BlockSize returns the filesystem block size in bytes.
func (fs *Filesystem) BlockSize() uint64 { return fs.blkSize }

// GroupsCount returns the number of block groups on the volume.
func (fs *Filesystem) GroupsCount() uint32 { return fs.groupsCount }

// Descriptor returns the group descriptor for the given group.
//
// Passing a group id >= GroupsCount() is a bug in the caller, not bad disk
// data, and panics.
func (fs *Filesystem) Descriptor(group uint32) disklayout.GroupDesc {
	if group >= fs.groupsCount {
		panic(fmt.Sprintf("ext2: group %d out of range (%d groups)", group, fs.groupsCount))
	}
	return fs.descs[group]
}
