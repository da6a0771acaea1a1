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

import "fmt"

// MaxGroupLoaded is the maximum number of bitmap blocks each cache keeps in
// memory per mount.
const MaxGroupLoaded = 8

// bitmapKind selects which descriptor field locates a cache's source block.
type bitmapKind int

const (
	blockBitmap bitmapKind = iota
	inodeBitmap
)

func (k bitmapKind) String() string {
	if k == blockBitmap {
		return "block bitmap"
	}
	return "inode bitmap"
}

// bitmapCache is a bounded cache of per-group usage bitmaps. One instance
// caches block bitmaps and one caches inode bitmaps; both run the same
// algorithm.
//
// The cache has two regimes. If the volume has at most MaxGroupLoaded groups
// the slots are addressed directly by group id and nothing is ever evicted.
// Otherwise the slots form an LRU list with the most recently used entry at
// index 0; a miss on a full cache evicts the tail.
//
// All methods require the owning Filesystem's mu.
type bitmapCache struct {
	fs   *Filesystem
	kind bitmapKind

	// groups[i] is the group whose bitmap lives in bufs[i]. In the LRU regime
	// only the first loaded entries are meaningful and their order encodes
	// recency; in the direct regime slot i belongs to group i and a nil
	// bufs[i] marks an empty slot.
	groups [MaxGroupLoaded]uint32
	bufs   [MaxGroupLoaded][]byte

	// loaded is the current LRU list length. It stays 0 in the direct regime.
	loaded int
}

// load ensures the bitmap for group is resident and returns its slot index.
// A failed read leaves the cache in its prior state.
//
// Passing a group id >= the volume's group count is a caller bug and panics.
func (c *bitmapCache) load(group uint32) (int, error) {
	if group >= c.fs.groupsCount {
		panic(fmt.Sprintf("ext2: %v cache: group %d out of range (%d groups)", c.kind, group, c.fs.groupsCount))
	}

	// Fast path: the most recently used slot already holds the group.
	if c.loaded > 0 && c.groups[0] == group {
		return 0, nil
	}

	if c.fs.groupsCount <= MaxGroupLoaded {
		// Small volume: slots map 1:1 to groups, no eviction.
		if c.bufs[group] != nil {
			if c.groups[group] != group {
				panic(fmt.Sprintf("ext2: %v cache: slot %d holds group %d", c.kind, group, c.groups[group]))
			}
			return int(group), nil
		}
		buf, err := c.read(group)
		if err != nil {
			return 0, err
		}
		c.groups[group] = group
		c.bufs[group] = buf
		return int(group), nil
	}

	// Scan the LRU list for the group.
	i := 0
	for i < c.loaded && c.groups[i] != group {
		i++
	}
	if i < c.loaded {
		// Hit: move the entry to the front, shifting the more recently used
		// entries down one slot and preserving their relative order.
		g, b := c.groups[i], c.bufs[i]
		for j := i; j > 0; j-- {
			c.groups[j] = c.groups[j-1]
			c.bufs[j] = c.bufs[j-1]
		}
		c.groups[0], c.bufs[0] = g, b
		return 0, nil
	}

	// Miss: read before touching the list so a failure cannot leave a
	// corrupt placeholder behind.
	buf, err := c.read(group)
	if err != nil {
		return 0, err
	}
	if c.loaded < MaxGroupLoaded {
		c.loaded++
	} else {
		// Release the least recently used bitmap.
		c.bufs[MaxGroupLoaded-1] = nil
	}
	for j := c.loaded - 1; j > 0; j-- {
		c.groups[j] = c.groups[j-1]
		c.bufs[j] = c.bufs[j-1]
	}
	c.groups[0], c.bufs[0] = group, buf
	return 0, nil
}

// bitmap returns the bitmap buffer held in slot. The slot must have been
// returned by load.
func (c *bitmapCache) bitmap(slot int) []byte {
	if c.bufs[slot] == nil {
		panic(fmt.Sprintf("ext2: %v cache: slot %d not loaded", c.kind, slot))
	}
	return c.bufs[slot]
}

// read fetches the group's bitmap block from the device.
func (c *bitmapCache) read(group uint32) ([]byte, error) {
	gd := c.fs.Descriptor(group)
	blk := gd.BlockBitmap
	if c.kind == inodeBitmap {
		blk = gd.InodeBitmap
	}
	return c.fs.readBlock(blk)
}

// bitSet tests a single bit of a bitmap. Bit 0 is the lowest bit of the first
// byte.
func bitSet(bitmap []byte, bit uint32) bool {
	return bitmap[bit/8]&(1<<(bit%8)) != 0
}

// blockInUse reports whether blk is marked used in its group-relative bitmap.
func (fs *Filesystem) blockInUse(blk uint32, bitmap []byte) bool {
	return bitSet(bitmap, (blk-fs.sb.FirstDataBlock)%fs.sb.BlocksPerGroup)
}

// nibbleFreeMap[n] is the number of zero bits in the 4-bit value n.
var nibbleFreeMap = [16]uint32{4, 3, 3, 2, 3, 2, 2, 1, 3, 2, 2, 1, 2, 1, 1, 0}

// countFreeBits returns the number of zero (free) bits in the buffer.
func countFreeBits(bitmap []byte) uint32 {
	var sum uint32
	for _, b := range bitmap {
		sum += nibbleFreeMap[b&0xf] + nibbleFreeMap[b>>4]
	}
	return sum
}
