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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/extfs-dev/extfs/pkg/ext2/disklayout"
)

func TestMount(t *testing.T) {
	b := newImageBuilder(t, 2, 256, 64)
	b.writeDirInode(disklayout.RootInode, []testDirent{
		{".", disklayout.RootInode, disklayout.FileTypeDirectory},
		{"..", disklayout.RootInode, disklayout.FileTypeDirectory},
	})
	fs := b.mount()

	if got := fs.BlockSize(); got != testBlockSize {
		t.Errorf("BlockSize() = %d, want %d", got, testBlockSize)
	}
	if got := fs.GroupsCount(); got != 2 {
		t.Errorf("GroupsCount() = %d, want 2", got)
	}

	sb := fs.SuperBlock()
	if sb.Magic != disklayout.Magic {
		t.Errorf("superblock magic = %#x, want %#x", sb.Magic, disklayout.Magic)
	}

	// The descriptor table must identify each group's own metadata blocks.
	for g := uint32(0); g < 2; g++ {
		start := sb.GroupFirstBlock(g)
		want := disklayout.GroupDesc{
			BlockBitmap: start + 2,
			InodeBitmap: start + 3,
			InodeTable:  start + 4,
		}
		got := fs.Descriptor(g)
		got.FreeBlocksCount, got.FreeInodesCount, got.UsedDirsCount = 0, 0, 0
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("group %d descriptor mismatch (-want +got):\n%s", g, diff)
		}
	}
}

func TestMountRejectsCorruptSuperBlock(t *testing.T) {
	base := func() []byte {
		b := newImageBuilder(t, 1, 256, 64)
		b.writeDirInode(disklayout.RootInode, []testDirent{
			{".", disklayout.RootInode, disklayout.FileTypeDirectory},
		})
		return b.bytes()
	}

	for _, tc := range []struct {
		name    string
		corrupt func(img []byte)
	}{
		{
			name: "bad magic",
			corrupt: func(img []byte) {
				binary.LittleEndian.PutUint16(img[1024+0x36:], 0xbeef)
			},
		},
		{
			name: "oversized block exponent",
			corrupt: func(img []byte) {
				binary.LittleEndian.PutUint32(img[1024+0x18:], 31)
			},
		},
		{
			name: "zero blocks per group",
			corrupt: func(img []byte) {
				binary.LittleEndian.PutUint32(img[1024+0x20:], 0)
			},
		},
		{
			name: "group exceeds its bitmap",
			corrupt: func(img []byte) {
				binary.LittleEndian.PutUint32(img[1024+0x20:], testBlockSize*8+1)
			},
		},
		{
			name: "blocks count below the first data block",
			corrupt: func(img []byte) {
				binary.LittleEndian.PutUint32(img[1024+0x04:], 1)
			},
		},
		{
			// Valid magic, hostile geometry: ~2^32 blocks in groups of one
			// would derive a multi-gigabyte descriptor table. The mount must
			// fail before sizing any allocation off these fields.
			name: "astronomical groups count",
			corrupt: func(img []byte) {
				binary.LittleEndian.PutUint32(img[1024+0x04:], 0xfffffffe) // blocks count
				binary.LittleEndian.PutUint32(img[1024+0x20:], 1)          // blocks per group
			},
		},
		{
			name: "inode space disagrees with block space",
			corrupt: func(img []byte) {
				binary.LittleEndian.PutUint32(img[1024+0x00:], 129) // 3 groups of 64 inodes
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			img := base()
			tc.corrupt(img)
			if _, err := Mount(bytes.NewReader(img)); !errors.Is(err, ErrCorruptSuperBlock) {
				t.Errorf("Mount = %v, want ErrCorruptSuperBlock", err)
			}
		})
	}
}

func TestMountFailsOnShortDevice(t *testing.T) {
	if _, err := Mount(bytes.NewReader(make([]byte, 512))); err == nil {
		t.Error("Mount on a 512-byte device succeeded")
	}
}

func TestDescriptorPanicsOutOfRange(t *testing.T) {
	b := newImageBuilder(t, 1, 256, 64)
	b.writeDirInode(disklayout.RootInode, []testDirent{
		{".", disklayout.RootInode, disklayout.FileTypeDirectory},
	})
	fs := b.mount()

	defer func() {
		if recover() == nil {
			t.Error("Descriptor(1) on a one-group volume did not panic")
		}
	}()
	fs.Descriptor(1)
}

// TestGroupDescriptorLoadIsAtomic checks that a read failure in the middle of
// the descriptor table fails the whole mount rather than leaving a truncated
// table.
func TestGroupDescriptorLoadIsAtomic(t *testing.T) {
	// 40 groups of 64 blocks: the descriptor table spans two blocks
	// (32 descriptors fit in one).
	b := newImageBuilder(t, 40, 64, 8)
	b.writeDirInode(disklayout.RootInode, []testDirent{
		{".", disklayout.RootInode, disklayout.FileTypeDirectory},
	})
	dev := newBlockDevice(b.bytes())
	dev.fail[3] = true // second descriptor table block

	if _, err := Mount(dev); err == nil {
		t.Error("Mount with an unreadable descriptor block succeeded")
	}
}
