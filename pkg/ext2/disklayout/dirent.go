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
	// DirentFixedSize is the size of the fixed part of a directory entry:
	// inode number, record length, name length and file type. The name bytes
	// follow immediately after.
	DirentFixedSize = 8

	// MaxFileName is the maximum length of an entry name.
	MaxFileName = 255
)

// File type tags stored in a directory entry. Revision 0 kept a 16-bit name
// length instead; since names never exceed 255 bytes the upper byte was
// recycled as the file type in later revisions.
const (
	FileTypeUnknown     = 0
	FileTypeRegular     = 1
	FileTypeDirectory   = 2
	FileTypeCharDevice  = 3
	FileTypeBlockDevice = 4
	FileTypeFIFO        = 5
	FileTypeSocket      = 6
	FileTypeSymlink     = 7
)

// DirentHeader is the fixed prefix of a directory entry record. Records are
// packed back to back inside a directory data block and never span block
// boundaries; a record's length absorbs whatever padding is needed to reach
// the next 4-byte aligned entry or the end of the block.
type DirentHeader struct {
	// Inode is the inode number of the named file. 0 marks an unused record
	// (a tombstone left behind by an unlink, or leading padding).
	Inode uint32

	// RecordLength is the byte distance from this record to the next. It must
	// be at least DirentFixedSize+NameLength, a multiple of 4, and must not
	// carry the cursor past the end of the block.
	RecordLength uint16

	NameLength uint8
	FileType   uint8
}
