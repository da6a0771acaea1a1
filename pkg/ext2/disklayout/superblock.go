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

// Filesystem states stored in SuperBlock.State. The state is set to
// StateHasErrors while the filesystem is mounted and restored to StateValid
// on a clean unmount.
const (
	// StateValid indicates the filesystem was unmounted cleanly.
	StateValid = 1

	// StateHasErrors indicates the filesystem was not unmounted cleanly and
	// may contain errors.
	StateHasErrors = 2
)

// Error policies stored in SuperBlock.Errors. They tell the driver what to do
// when an inconsistency is detected.
const (
	// ErrorsContinue: carry on as if nothing happened.
	ErrorsContinue = 1

	// ErrorsRemountRO: remount the filesystem read-only.
	ErrorsRemountRO = 2

	// ErrorsPanic: halt.
	ErrorsPanic = 3
)

// SuperBlock is the ext2 superblock as stored on disk. It occupies the
// 1024-byte region at byte offset SbOffset regardless of the block size.
// Immutable once loaded for a mount; it is re-read only on remount.
//
// The byte offset of each field is noted on the right.
type SuperBlock struct {
	InodesCount         uint32 // 0x00
	BlocksCount         uint32 // 0x04
	ReservedBlocksCount uint32 // 0x08
	FreeBlocksCount     uint32 // 0x0C
	FreeInodesCount     uint32 // 0x10
	FirstDataBlock      uint32 // 0x14
	LogBlockSize        uint32 // 0x18

	// LogFragSize is signed: a negative exponent shifts right instead of
	// left. See FragmentSize.
	LogFragSize int32 // 0x1C

	BlocksPerGroup uint32 // 0x20
	FragsPerGroup  uint32 // 0x24
	InodesPerGroup uint32 // 0x28
	MountTime      uint32 // 0x2C
	WriteTime      uint16 // 0x30
	MountCount     uint16 // 0x32
	MaxMountCount  uint16 // 0x34
	Magic          uint16 // 0x36
	State          uint16 // 0x38
	Errors         uint16 // 0x3A
	_              uint16 // 0x3C
	LastCheck      uint32 // 0x3E
	CheckInterval  uint32 // 0x42
	_              [954]byte
}

// BlockSize returns the filesystem block size in bytes.
func (sb *SuperBlock) BlockSize() uint64 {
	return MinBlockSize << sb.LogBlockSize
}

// FragmentSize returns the fragment size in bytes. Unlike the block size
// exponent, the fragment exponent may be negative, in which case it shifts
// right rather than left.
func (sb *SuperBlock) FragmentSize() uint64 {
	if sb.LogFragSize >= 0 {
		return MinBlockSize << uint(sb.LogFragSize)
	}
	return MinBlockSize >> uint(-sb.LogFragSize)
}

// FragsPerBlock returns the number of fragments per block.
func (sb *SuperBlock) FragsPerBlock() uint32 {
	return uint32(sb.BlockSize() / sb.FragmentSize())
}

// GroupsCount returns the total number of block groups on the volume. Block 0
// is not part of group 0 on 1 KiB block filesystems, which is why the count
// is relative to FirstDataBlock.
func (sb *SuperBlock) GroupsCount() uint32 {
	return (sb.BlocksCount - sb.FirstDataBlock + sb.BlocksPerGroup - 1) / sb.BlocksPerGroup
}

// InodesPerBlock returns the number of inode records per block.
func (sb *SuperBlock) InodesPerBlock() uint32 {
	return uint32(sb.BlockSize()) / InodeSize
}

// InodeTableBlocksPerGroup returns the number of blocks occupied by the inode
// table of every group.
func (sb *SuperBlock) InodeTableBlocksPerGroup() uint32 {
	return sb.InodesPerGroup / sb.InodesPerBlock()
}

// DescPerBlock returns the number of group descriptor records per block.
func (sb *SuperBlock) DescPerBlock() uint32 {
	return uint32(sb.BlockSize()) / GroupDescSize
}

// DescBlocksCount returns the number of blocks occupied by the group
// descriptor table.
func (sb *SuperBlock) DescBlocksCount() uint32 {
	return (sb.GroupsCount() + sb.DescPerBlock() - 1) / sb.DescPerBlock()
}

// GroupFirstBlock returns the first block belonging to the given group.
func (sb *SuperBlock) GroupFirstBlock(group uint32) uint32 {
	return sb.FirstDataBlock + group*sb.BlocksPerGroup
}
