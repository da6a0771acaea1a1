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

const (
	// InodeSize is the on-disk size of an inode record.
	InodeSize = 128

	// NumDirectBlocks is the number of direct block pointers at the start of
	// an inode's block array.
	NumDirectBlocks = 12

	// IndirectBlock is the block array index of the indirect block pointer.
	IndirectBlock = 12

	// DoubleIndirectBlock is the block array index of the double-indirect
	// block pointer.
	DoubleIndirectBlock = 13

	// TripleIndirectBlock is the block array index of the triple-indirect
	// block pointer.
	TripleIndirectBlock = 14

	// NumBlockEntries is the total length of the inode block array.
	NumBlockEntries = 15
)

// Reserved inode numbers. Inode numbering starts at 1; inode 0 marks an
// unused directory entry.
const (
	// BadBlocksInode tracks bad blocks.
	BadBlocksInode = 1

	// RootInode is the root directory.
	RootInode = 2
)

// File format values encoded in the top bits of Inode.Mode.
const (
	ModeFormatMask = 0xf000

	ModeSocket      = 0xc000
	ModeSymlink     = 0xa000
	ModeRegular     = 0x8000
	ModeBlockDevice = 0x6000
	ModeDirectory   = 0x4000
	ModeCharDevice  = 0x2000
	ModeFIFO        = 0x1000
)

// Inode is the ext2 inode record as stored in the inode table. All times are
// seconds since the epoch. BlocksCount counts 512-byte sectors, not
// filesystem blocks.
type Inode struct {
	Mode       uint16 // 0
	UID        uint16 // 2
	SizeLo     uint32 // 4
	AccessTime int32  // 8
	ChangeTime int32  // 12
	ModifyTime int32  // 16
	DeleteTime int32  // 20
	GID        uint16 // 24
	LinksCount uint16 // 26

	// BlocksCount is the number of 512-byte sectors reserved for this inode's
	// data, not an index into Block.
	BlocksCount uint32 // 28

	Flags uint32 // 32
	OSD1  uint32 // 36

	// Block holds the data block pointers: NumDirectBlocks direct pointers
	// followed by the indirect, double-indirect and triple-indirect block
	// pointers. A pointer of 0 is an unallocated hole.
	Block [NumBlockEntries]uint32 // 40

	Generation uint32   // 100
	FileACL    uint32   // 104
	DirACL     uint32   // 108
	ObsoFaddr  uint32   // 112
	OSD2       [12]byte // 116
}

// Size returns the file size in bytes. For regular files the DirACL field is
// reused as the upper 32 bits of the size under revision 1; revision 0 images
// always store 0 there, so folding it in is safe for both revisions.
func (in *Inode) Size() uint64 {
	if in.IsRegular() {
		return uint64(in.DirACL)<<32 | uint64(in.SizeLo)
	}
	return uint64(in.SizeLo)
}

// IsRegular reports whether the inode is a regular file.
func (in *Inode) IsRegular() bool { return in.Mode&ModeFormatMask == ModeRegular }

// IsDir reports whether the inode is a directory.
func (in *Inode) IsDir() bool { return in.Mode&ModeFormatMask == ModeDirectory }

// IsSymlink reports whether the inode is a symbolic link.
func (in *Inode) IsSymlink() bool { return in.Mode&ModeFormatMask == ModeSymlink }
