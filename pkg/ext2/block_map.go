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

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/extfs-dev/extfs/pkg/ext2/disklayout"
)

// ResolveBlock maps a file-relative block index to a physical block number by
// walking the inode's block pointer array.
//
// With N pointers per indirection block (block size / 4), the index ranges
// are:
//
//	[0, 12)              direct pointers
//	[12, 12+N)           via the indirect block
//	[12+N, 12+N+N²)      via the double-indirect block
//	[12+N+N², 12+N+N²+N³) via the triple-indirect block
//
// A returned physical block of 0 means the index falls in an unallocated
// hole; callers should treat the region as zero-filled rather than as an
// error. An index beyond the triple-indirect range is a caller bug and
// panics.
func (fs *Filesystem) ResolveBlock(in *disklayout.Inode, fileBlk uint64) (uint32, error) {
	n := fs.blkSize / 4
	const direct = uint64(disklayout.NumDirectBlocks)

	switch {
	case fileBlk < direct:
		return in.Block[fileBlk], nil

	case fileBlk < direct+n:
		return fs.indirectLookup(in.Block[disklayout.IndirectBlock], fileBlk-direct)

	case fileBlk < direct+n+n*n:
		r := fileBlk - direct - n
		ind, err := fs.indirectLookup(in.Block[disklayout.DoubleIndirectBlock], r/n)
		if err != nil || ind == 0 {
			return ind, err
		}
		return fs.indirectLookup(ind, r%n)

	case fileBlk < direct+n+n*n+n*n*n:
		r := fileBlk - direct - n - n*n
		dbl, err := fs.indirectLookup(in.Block[disklayout.TripleIndirectBlock], r/(n*n))
		if err != nil || dbl == 0 {
			return dbl, err
		}
		ind, err := fs.indirectLookup(dbl, (r/n)%n)
		if err != nil || ind == 0 {
			return ind, err
		}
		return fs.indirectLookup(ind, r%n)

	default:
		panic(fmt.Sprintf("ext2: file block %d beyond the triple-indirect range", fileBlk))
	}
}

// indirectLookup reads one pointer out of an indirection block. A zero block
// number anywhere along a chain denotes a hole and short-circuits to 0.
func (fs *Filesystem) indirectLookup(blk uint32, idx uint64) (uint32, error) {
	if blk == 0 {
		return 0, nil
	}
	buf, err := fs.readBlock(blk)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[idx*4:]), nil
}

// File reads the data of an inode through its block map. It implements
// io.ReaderAt; holes read as zero bytes. Reads past the inode's size return
// io.EOF, partially filling the buffer if the read straddles the end.
type File struct {
	fs    *Filesystem
	inode *disklayout.Inode
	size  uint64
}

var _ io.ReaderAt = (*File)(nil)

// FileReader returns a reader over the inode's data.
func (fs *Filesystem) FileReader(in *disklayout.Inode) *File {
	return &File{fs: fs, inode: in, size: in.Size()}
}

// Size returns the inode's file size in bytes.
func (f *File) Size() uint64 { return f.size }

// ReadAt implements io.ReaderAt.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("ext2: negative read offset %d", off)
	}
	if uint64(off) >= f.size {
		return 0, io.EOF
	}

	var eof error
	if uint64(off)+uint64(len(p)) > f.size {
		p = p[:f.size-uint64(off)]
		eof = io.EOF
	}

	blkSize := f.fs.blkSize
	read := 0
	for read < len(p) {
		fileBlk := (uint64(off) + uint64(read)) / blkSize
		within := (uint64(off) + uint64(read)) % blkSize

		chunk := blkSize - within
		if rest := uint64(len(p) - read); rest < chunk {
			chunk = rest
		}
		dst := p[read : read+int(chunk)]

		phys, err := f.fs.ResolveBlock(f.inode, fileBlk)
		if err != nil {
			return read, err
		}
		if phys == 0 {
			// Hole: zero-filled.
			clear(dst)
		} else {
			devOff := int64(uint64(phys)*blkSize + within)
			if _, err := f.fs.dev.ReadAt(dst, devOff); err != nil {
				return read, fmt.Errorf("ext2: read block %d: %w", phys, err)
			}
		}
		read += int(chunk)
	}
	return read, eof
}
