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

	"github.com/extfs-dev/extfs/pkg/ext2/disklayout"
)

// inodeGroup returns the block group inode number n lives in. Inode numbers
// start at 1.
func (fs *Filesystem) inodeGroup(n uint32) uint32 {
	return (n - 1) / fs.sb.InodesPerGroup
}

// inodeIndex returns n's index within its group's inode table.
func (fs *Filesystem) inodeIndex(n uint32) uint32 {
	return (n - 1) % fs.sb.InodesPerGroup
}

// Inode reads inode number n from its group's inode table. Inode number 0 is
// invalid by construction and panics; a number that maps past the last group
// returns ErrBadInode.
func (fs *Filesystem) Inode(n uint32) (*disklayout.Inode, error) {
	if n == 0 {
		panic("ext2: inode number 0")
	}
	group := fs.inodeGroup(n)
	if group >= fs.groupsCount {
		return nil, fmt.Errorf("%w: inode %d maps to group %d of %d", ErrBadInode, n, group, fs.groupsCount)
	}

	index := fs.inodeIndex(n)
	tableBlk := fs.descs[group].InodeTable + index/fs.sb.InodesPerBlock()
	buf, err := fs.readBlock(tableBlk)
	if err != nil {
		return nil, err
	}

	within := (index % fs.sb.InodesPerBlock()) * disklayout.InodeSize
	in := new(disklayout.Inode)
	if err := binary.Read(bytes.NewReader(buf[within:within+disklayout.InodeSize]), binary.LittleEndian, in); err != nil {
		return nil, fmt.Errorf("ext2: decode inode %d: %w", n, err)
	}
	return in, nil
}
