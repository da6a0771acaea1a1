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
	"fmt"
	"strings"

	"github.com/extfs-dev/extfs/pkg/ext2/disklayout"
)

// Root returns the root directory inode.
func (fs *Filesystem) Root() (*disklayout.Inode, error) {
	return fs.Inode(disklayout.RootInode)
}

// LookupPath resolves a slash-separated path from the root directory and
// returns the inode number and inode it lands on. Empty components and "."
// are skipped; symlinks along the way are not followed. It returns ErrNotDir
// when a non-final component is not a directory and ErrNotExist when a
// component is missing.
func (fs *Filesystem) LookupPath(path string) (uint32, *disklayout.Inode, error) {
	n := uint32(disklayout.RootInode)
	in, err := fs.Inode(n)
	if err != nil {
		return 0, nil, err
	}

	for _, comp := range strings.Split(path, "/") {
		if comp == "" || comp == "." {
			continue
		}
		if !in.IsDir() {
			return 0, nil, fmt.Errorf("%w: %q", ErrNotDir, comp)
		}
		child, err := fs.lookupOne(in, comp)
		if err != nil {
			return 0, nil, fmt.Errorf("%q: %w", comp, err)
		}
		if in, err = fs.Inode(child); err != nil {
			return 0, nil, err
		}
		n = child
	}
	return n, in, nil
}

// lookupOne scans one directory for an entry named name.
func (fs *Filesystem) lookupOne(dir *disklayout.Inode, name string) (uint32, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	for _, ent := range entries {
		if ent.Name == name {
			return ent.Inode, nil
		}
	}
	return 0, ErrNotExist
}
