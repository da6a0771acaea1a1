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
	"testing"

	"github.com/extfs-dev/extfs/pkg/ext2/disklayout"
)

// Test images use 1 KiB blocks so the superblock occupies block 1, the first
// block of group 0. Each group is laid out the way mke2fs does it:
//
//	[leading block][descriptor table][block bitmap][inode bitmap][inode table][data...]
//
// Group 0's leading block holds the superblock; later groups carry backups.
const (
	testBlockSize = 1024

	// reservedInodes is the number of inodes set aside at the front of the
	// inode space; the first usable inode is reservedInodes+1.
	reservedInodes = 10
)

// imageBuilder assembles a consistent ext2 image in memory.
type imageBuilder struct {
	t  *testing.T
	sb disklayout.SuperBlock

	buf      []byte
	blockBMs [][]byte
	inodeBMs [][]byte
	dirs     []uint16 // per-group directory count

	descBlocks  uint32
	tableBlocks uint32
	nextData    []uint32 // per-group next unallocated data block
	nextInode   uint32
}

func newImageBuilder(t *testing.T, groups, blocksPerGroup, inodesPerGroup uint32) *imageBuilder {
	t.Helper()
	if inodesPerGroup%8 != 0 {
		t.Fatalf("inodesPerGroup %d must be a multiple of 8", inodesPerGroup)
	}

	b := &imageBuilder{
		t: t,
		sb: disklayout.SuperBlock{
			InodesCount:    groups * inodesPerGroup,
			BlocksCount:    1 + groups*blocksPerGroup,
			FirstDataBlock: 1,
			LogBlockSize:   0,
			LogFragSize:    0,
			BlocksPerGroup: blocksPerGroup,
			FragsPerGroup:  blocksPerGroup,
			InodesPerGroup: inodesPerGroup,
			Magic:          disklayout.Magic,
			State:          disklayout.StateValid,
			Errors:         disklayout.ErrorsContinue,
		},
		descBlocks:  (groups*disklayout.GroupDescSize + testBlockSize - 1) / testBlockSize,
		tableBlocks: inodesPerGroup / (testBlockSize / disklayout.InodeSize),
		nextInode:   reservedInodes + 1,
		dirs:        make([]uint16, groups),
	}
	b.buf = make([]byte, uint64(b.sb.BlocksCount)*testBlockSize)

	structural := 3 + b.descBlocks + b.tableBlocks
	for g := uint32(0); g < groups; g++ {
		bm := make([]byte, testBlockSize)
		for bit := uint32(0); bit < structural; bit++ {
			bm[bit/8] |= 1 << (bit % 8)
		}
		// Bits past the end of the group cover no blocks; mke2fs marks them
		// used so they never get allocated.
		for bit := blocksPerGroup; bit < testBlockSize*8; bit++ {
			bm[bit/8] |= 1 << (bit % 8)
		}
		b.blockBMs = append(b.blockBMs, bm)

		im := make([]byte, testBlockSize)
		for i := inodesPerGroup / 8; i < testBlockSize; i++ {
			im[i] = 0xff
		}
		b.inodeBMs = append(b.inodeBMs, im)

		b.nextData = append(b.nextData, b.groupStart(g)+structural)
	}
	for n := uint32(1); n <= reservedInodes; n++ {
		b.markInode(n)
	}
	return b
}

func (b *imageBuilder) groupStart(g uint32) uint32 {
	return b.sb.FirstDataBlock + g*b.sb.BlocksPerGroup
}

func (b *imageBuilder) markInode(n uint32) {
	g := (n - 1) / b.sb.InodesPerGroup
	bit := (n - 1) % b.sb.InodesPerGroup
	b.inodeBMs[g][bit/8] |= 1 << (bit % 8)
}

// allocBlock claims the next free data block in group g.
func (b *imageBuilder) allocBlock(g uint32) uint32 {
	blk := b.nextData[g]
	if blk >= b.groupStart(g)+b.sb.BlocksPerGroup {
		b.t.Fatalf("group %d out of data blocks", g)
	}
	b.nextData[g]++
	bit := (blk - b.sb.FirstDataBlock) % b.sb.BlocksPerGroup
	b.blockBMs[g][bit/8] |= 1 << (bit % 8)
	return blk
}

// allocInode claims the next free inode number.
func (b *imageBuilder) allocInode() uint32 {
	n := b.nextInode
	if n > b.sb.InodesCount {
		b.t.Fatalf("out of inodes")
	}
	b.nextInode++
	b.markInode(n)
	return n
}

func (b *imageBuilder) writeBlock(blk uint32, data []byte) {
	copy(b.buf[uint64(blk)*testBlockSize:], data)
}

func (b *imageBuilder) writeInode(n uint32, in *disklayout.Inode) {
	g := (n - 1) / b.sb.InodesPerGroup
	index := (n - 1) % b.sb.InodesPerGroup
	perBlock := uint32(testBlockSize / disklayout.InodeSize)
	blk := b.groupStart(g) + 3 + b.descBlocks + index/perBlock

	var rec bytes.Buffer
	if err := binary.Write(&rec, binary.LittleEndian, in); err != nil {
		b.t.Fatalf("encode inode %d: %v", n, err)
	}
	copy(b.buf[uint64(blk)*testBlockSize+uint64(index%perBlock)*disklayout.InodeSize:], rec.Bytes())
}

// addFile stores content in freshly allocated group-0 blocks behind a new
// regular file inode. Content must fit in the direct pointers.
func (b *imageBuilder) addFile(content []byte) uint32 {
	in := disklayout.Inode{
		Mode:       disklayout.ModeRegular | 0644,
		SizeLo:     uint32(len(content)),
		LinksCount: 1,
	}
	nblocks := (len(content) + testBlockSize - 1) / testBlockSize
	if nblocks > disklayout.NumDirectBlocks {
		b.t.Fatalf("file of %d bytes needs indirection", len(content))
	}
	for i := 0; i < nblocks; i++ {
		blk := b.allocBlock(0)
		end := min((i+1)*testBlockSize, len(content))
		b.writeBlock(blk, content[i*testBlockSize:end])
		in.Block[i] = blk
	}
	n := b.allocInode()
	b.writeInode(n, &in)
	return n
}

// addInode writes a caller-built inode (e.g. one with indirect pointers) and
// returns its number.
func (b *imageBuilder) addInode(in *disklayout.Inode) uint32 {
	n := b.allocInode()
	b.writeInode(n, in)
	return n
}

type testDirent struct {
	name  string
	ino   uint32
	ftype uint8
}

// writeDirInode lays the entries out as packed records, the last record of
// each block padded to the block end, and writes the directory inode as
// number n (which must already be marked allocated).
func (b *imageBuilder) writeDirInode(n uint32, entries []testDirent) {
	recLen := func(name string) uint32 { return (disklayout.DirentFixedSize + uint32(len(name)) + 3) &^ 3 }

	var blocks [][]byte
	blk := make([]byte, 0, testBlockSize)
	lastOff := -1
	for _, ent := range entries {
		need := recLen(ent.name)
		if uint32(len(blk))+need > testBlockSize {
			pad := blk[:testBlockSize]
			binary.LittleEndian.PutUint16(pad[lastOff+4:], uint16(testBlockSize-lastOff))
			blocks = append(blocks, pad)
			blk = make([]byte, 0, testBlockSize)
			lastOff = -1
		}
		lastOff = len(blk)
		var rec [disklayout.DirentFixedSize]byte
		binary.LittleEndian.PutUint32(rec[0:], ent.ino)
		binary.LittleEndian.PutUint16(rec[4:], uint16(need))
		rec[6] = uint8(len(ent.name))
		rec[7] = ent.ftype
		blk = append(blk, rec[:]...)
		blk = append(blk, ent.name...)
		for uint32(len(blk))%4 != 0 {
			blk = append(blk, 0)
		}
	}
	if lastOff >= 0 {
		pad := blk[:testBlockSize]
		binary.LittleEndian.PutUint16(pad[lastOff+4:], uint16(testBlockSize-lastOff))
		blocks = append(blocks, pad)
	}

	in := disklayout.Inode{
		Mode:       disklayout.ModeDirectory | 0755,
		SizeLo:     uint32(len(blocks) * testBlockSize),
		LinksCount: 2,
	}
	for i, data := range blocks {
		blk := b.allocBlock(0)
		b.writeBlock(blk, data)
		in.Block[i] = blk
	}
	b.writeInode(n, &in)
	b.dirs[(n-1)/b.sb.InodesPerGroup]++
}

// bytes finalizes the superblock, descriptor table and bitmaps and returns
// the image.
func (b *imageBuilder) bytes() []byte {
	groups := b.sb.GroupsCount()

	var descTab bytes.Buffer
	b.sb.FreeBlocksCount = 0
	b.sb.FreeInodesCount = 0
	for g := uint32(0); g < groups; g++ {
		freeBlocks := countZeroBits(b.blockBMs[g])
		freeInodes := countZeroBits(b.inodeBMs[g][:b.sb.InodesPerGroup/8])
		b.sb.FreeBlocksCount += freeBlocks
		b.sb.FreeInodesCount += freeInodes

		start := b.groupStart(g)
		gd := disklayout.GroupDesc{
			BlockBitmap:     start + 1 + b.descBlocks,
			InodeBitmap:     start + 2 + b.descBlocks,
			InodeTable:      start + 3 + b.descBlocks,
			FreeBlocksCount: uint16(freeBlocks),
			FreeInodesCount: uint16(freeInodes),
			UsedDirsCount:   b.dirs[g],
		}
		if err := binary.Write(&descTab, binary.LittleEndian, &gd); err != nil {
			b.t.Fatalf("encode group descriptor: %v", err)
		}
	}

	var sb bytes.Buffer
	if err := binary.Write(&sb, binary.LittleEndian, &b.sb); err != nil {
		b.t.Fatalf("encode superblock: %v", err)
	}

	for g := uint32(0); g < groups; g++ {
		start := b.groupStart(g)
		b.writeBlock(start, sb.Bytes())
		tab := descTab.Bytes()
		for i := uint32(0); i < b.descBlocks; i++ {
			end := min(int(i+1)*testBlockSize, len(tab))
			b.writeBlock(start+1+i, tab[i*testBlockSize:end])
		}
		b.writeBlock(start+1+b.descBlocks, b.blockBMs[g])
		b.writeBlock(start+2+b.descBlocks, b.inodeBMs[g])
	}
	return b.buf
}

// mount builds the image and mounts it.
func (b *imageBuilder) mount() *Filesystem {
	b.t.Helper()
	fs, err := Mount(bytes.NewReader(b.bytes()))
	if err != nil {
		b.t.Fatalf("Mount: %v", err)
	}
	return fs
}

func countZeroBits(buf []byte) uint32 {
	var sum uint32
	for _, by := range buf {
		for bit := 0; bit < 8; bit++ {
			if by&(1<<bit) == 0 {
				sum++
			}
		}
	}
	return sum
}

// blockDevice is an image wrapper that counts reads per block and can be told
// to fail reads of specific blocks.
type blockDevice struct {
	data  []byte
	reads map[uint32]int
	fail  map[uint32]bool
}

func newBlockDevice(data []byte) *blockDevice {
	return &blockDevice{data: data, reads: make(map[uint32]int), fail: make(map[uint32]bool)}
}

func (d *blockDevice) ReadAt(p []byte, off int64) (int, error) {
	blk := uint32(off / testBlockSize)
	d.reads[blk]++
	if d.fail[blk] {
		return 0, fmt.Errorf("injected failure at block %d", blk)
	}
	if off >= int64(len(d.data)) {
		return 0, fmt.Errorf("read past device end: offset %d", off)
	}
	return copy(p, d.data[off:]), nil
}
