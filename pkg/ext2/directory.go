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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/extfs-dev/extfs/pkg/ext2/disklayout"
)

// DirEntry is one decoded directory entry.
type DirEntry struct {
	// Inode is the entry's inode number. 0 marks a deleted entry whose
	// record still occupies space in the block.
	Inode uint32

	// FileType is one of the disklayout.FileType* values.
	FileType uint8

	// Name is the entry name, at most disklayout.MaxFileName bytes.
	Name string

	recLen uint16
}

// Unused reports whether the entry is a deletion tombstone.
func (d *DirEntry) Unused() bool { return d.Inode == 0 }

// RecordSize returns the on-disk record length, which covers the name plus
// any slack up to the next entry or block end.
func (d *DirEntry) RecordSize() uint16 { return d.recLen }

// DirentIterator walks the directory entries packed into a single block.
// Records never span block boundaries: the last record in a block is padded
// out to the block end.
//
// Usage follows bufio.Scanner:
//
//	it := ext2.NewDirentIterator(blk)
//	for it.Next() {
//		ent := it.Entry()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
type DirentIterator struct {
	blk []byte
	off uint32
	ent DirEntry
	err error
}

// NewDirentIterator returns an iterator over one directory block.
func NewDirentIterator(blk []byte) *DirentIterator {
	return &DirentIterator{blk: blk}
}

// Next advances to the next entry, including tombstones. It returns false at
// the block end or on a malformed record; the caller distinguishes the two
// with Err.
func (it *DirentIterator) Next() bool {
	if it.err != nil || it.off >= uint32(len(it.blk)) {
		return false
	}
	if uint32(len(it.blk))-it.off < disklayout.DirentFixedSize {
		it.err = it.corrupt("truncated record header")
		return false
	}

	var hdr disklayout.DirentHeader
	if err := binary.Read(bytes.NewReader(it.blk[it.off:it.off+disklayout.DirentFixedSize]), binary.LittleEndian, &hdr); err != nil {
		it.err = fmt.Errorf("ext2: decode dirent at offset %d: %w", it.off, err)
		return false
	}

	recLen := uint32(hdr.RecordLength)
	switch {
	case recLen == 0:
		it.err = it.corrupt("zero record length")
	case recLen%4 != 0:
		it.err = it.corrupt(fmt.Sprintf("record length %d not a multiple of 4", recLen))
	case recLen < disklayout.DirentFixedSize+uint32(hdr.NameLength):
		it.err = it.corrupt(fmt.Sprintf("record length %d too short for name length %d", recLen, hdr.NameLength))
	case it.off+recLen > uint32(len(it.blk)):
		it.err = it.corrupt(fmt.Sprintf("record length %d runs past the block end", recLen))
	}
	if it.err != nil {
		return false
	}

	name := it.blk[it.off+disklayout.DirentFixedSize : it.off+disklayout.DirentFixedSize+uint32(hdr.NameLength)]
	it.ent = DirEntry{
		Inode:    hdr.Inode,
		FileType: hdr.FileType,
		Name:     string(name),
		recLen:   hdr.RecordLength,
	}
	it.off += recLen
	return true
}

// Entry returns the entry decoded by the last successful Next.
func (it *DirentIterator) Entry() DirEntry { return it.ent }

// Err returns the first malformed-record error, if any.
func (it *DirentIterator) Err() error { return it.err }

// Reset rewinds the iterator to the start of the block.
func (it *DirentIterator) Reset() {
	it.off = 0
	it.err = nil
	it.ent = DirEntry{}
}

func (it *DirentIterator) corrupt(msg string) error {
	return fmt.Errorf("%w: offset %d: %s", ErrCorruptDirent, it.off, msg)
}

// ReadDir decodes every live entry of a directory inode, walking its data
// blocks in order. Tombstones are skipped.
func (fs *Filesystem) ReadDir(in *disklayout.Inode) ([]DirEntry, error) {
	if !in.IsDir() {
		return nil, fmt.Errorf("%w: mode %#o", ErrNotDir, in.Mode)
	}

	f := fs.FileReader(in)
	nblocks := (f.Size() + fs.blkSize - 1) / fs.blkSize
	buf := make([]byte, fs.blkSize)

	var entries []DirEntry
	for blk := uint64(0); blk < nblocks; blk++ {
		chunk := buf
		if rest := f.Size() - blk*fs.blkSize; rest < fs.blkSize {
			chunk = buf[:rest]
		}
		if _, err := f.ReadAt(chunk, int64(blk*fs.blkSize)); err != nil && err != io.EOF {
			return nil, err
		}
		it := NewDirentIterator(chunk)
		for it.Next() {
			if ent := it.Entry(); !ent.Unused() {
				entries = append(entries, ent)
			}
		}
		if err := it.Err(); err != nil {
			return nil, fmt.Errorf("ext2: directory block %d: %w", blk, err)
		}
	}
	return entries, nil
}
