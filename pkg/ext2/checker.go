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

import "github.com/sirupsen/logrus"

// The consistency checks below are diagnostic. Every group is always
// examined, every violation is logged, and the number of violations is
// returned; nothing is halted or repaired. Callers decide whether to treat a
// nonzero count as fatal according to the superblock's error policy.

// CheckDescriptors verifies that every group descriptor's block bitmap, inode
// bitmap and inode table blocks fall inside the group they describe.
func (fs *Filesystem) CheckDescriptors() int {
	violations := 0
	for i := uint32(0); i < fs.groupsCount; i++ {
		gd := fs.descs[i]
		start := fs.sb.GroupFirstBlock(i)
		end := start + fs.sb.BlocksPerGroup

		if gd.BlockBitmap < start || gd.BlockBitmap >= end {
			logrus.WithFields(logrus.Fields{"group": i, "block": gd.BlockBitmap}).
				Warn("ext2: block bitmap outside its group")
			violations++
		}
		if gd.InodeBitmap < start || gd.InodeBitmap >= end {
			logrus.WithFields(logrus.Fields{"group": i, "block": gd.InodeBitmap}).
				Warn("ext2: inode bitmap outside its group")
			violations++
		}
		if gd.InodeTable < start || gd.InodeTable >= end {
			logrus.WithFields(logrus.Fields{"group": i, "block": gd.InodeTable}).
				Warn("ext2: inode table outside its group")
			violations++
		}
	}
	return violations
}

// CheckBlockBitmaps verifies, for every group, that the structural blocks
// (the group's leading block, the descriptor table backup, both bitmaps and
// the inode table) are marked used in the group's block bitmap and that the
// bitmap's free count matches the descriptor. The per-group free counts are
// then aggregated and compared against the superblock.
func (fs *Filesystem) CheckBlockBitmaps() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	descBlocks := fs.sb.DescBlocksCount()
	tableBlocks := fs.sb.InodeTableBlocksPerGroup()

	violations := 0
	var bitmapTotal uint32
	for i := uint32(0); i < fs.groupsCount; i++ {
		gd := fs.descs[i]
		slot, err := fs.blockBitmaps.load(i)
		if err != nil {
			logrus.WithFields(logrus.Fields{"group": i, "error": err}).
				Warn("ext2: cannot read block bitmap")
			violations++
			continue
		}
		bm := fs.blockBitmaps.bitmap(slot)

		// Bit 0 covers the group's leading block: the superblock (or its
		// backup) for group 0, otherwise the group's first structural block.
		if !bitSet(bm, 0) {
			logrus.WithField("group", i).Warn("ext2: leading block marked free")
			violations++
		}
		for j := uint32(0); j < descBlocks; j++ {
			if !bitSet(bm, j+1) {
				logrus.WithFields(logrus.Fields{"group": i, "descBlock": j}).
					Warn("ext2: descriptor table block marked free")
				violations++
			}
		}
		if !fs.blockInUse(gd.BlockBitmap, bm) {
			logrus.WithField("group", i).Warn("ext2: block bitmap marked free")
			violations++
		}
		if !fs.blockInUse(gd.InodeBitmap, bm) {
			logrus.WithField("group", i).Warn("ext2: inode bitmap marked free")
			violations++
		}
		for j := uint32(0); j < tableBlocks; j++ {
			if !fs.blockInUse(gd.InodeTable+j, bm) {
				logrus.WithFields(logrus.Fields{"group": i, "tableBlock": j}).
					Warn("ext2: inode table block marked free")
				violations++
			}
		}

		free := countFreeBits(bm)
		if uint32(gd.FreeBlocksCount) != free {
			logrus.WithFields(logrus.Fields{"group": i, "descriptor": gd.FreeBlocksCount, "bitmap": free}).
				Warn("ext2: wrong free blocks count for group")
			violations++
		}
		bitmapTotal += free
	}

	if fs.sb.FreeBlocksCount != bitmapTotal {
		logrus.WithFields(logrus.Fields{"superblock": fs.sb.FreeBlocksCount, "bitmaps": bitmapTotal}).
			Warn("ext2: wrong free blocks count in superblock")
		violations++
	}
	return violations
}

// CheckInodeBitmaps verifies every group's free inode count against its inode
// bitmap and aggregates the counts against the superblock. The inode bitmap
// spans InodesPerGroup bits, so only its first InodesPerGroup/8 bytes are
// meaningful.
func (fs *Filesystem) CheckInodeBitmaps() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	bitmapLen := fs.sb.InodesPerGroup / 8

	violations := 0
	var bitmapTotal uint32
	for i := uint32(0); i < fs.groupsCount; i++ {
		gd := fs.descs[i]
		slot, err := fs.inodeBitmaps.load(i)
		if err != nil {
			logrus.WithFields(logrus.Fields{"group": i, "error": err}).
				Warn("ext2: cannot read inode bitmap")
			violations++
			continue
		}
		bm := fs.inodeBitmaps.bitmap(slot)

		free := countFreeBits(bm[:bitmapLen])
		if uint32(gd.FreeInodesCount) != free {
			logrus.WithFields(logrus.Fields{"group": i, "descriptor": gd.FreeInodesCount, "bitmap": free}).
				Warn("ext2: wrong free inodes count for group")
			violations++
		}
		bitmapTotal += free
	}

	if fs.sb.FreeInodesCount != bitmapTotal {
		logrus.WithFields(logrus.Fields{"superblock": fs.sb.FreeInodesCount, "bitmaps": bitmapTotal}).
			Warn("ext2: wrong free inodes count in superblock")
		violations++
	}
	return violations
}
