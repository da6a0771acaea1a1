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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/extfs-dev/extfs/pkg/ext2/disklayout"
)

// Ls implements subcommands.Command for the "ls" command.
type Ls struct{}

// Name implements subcommands.Command.Name.
func (*Ls) Name() string {
	return "ls"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Ls) Synopsis() string {
	return "list a directory inside an image"
}

// Usage implements subcommands.Command.Usage.
func (*Ls) Usage() string {
	return `ls <image> [path]

List the entries of the directory at path (default "/").

`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Ls) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Ls) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() < 1 || f.NArg() > 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	path := "/"
	if f.NArg() == 2 {
		path = f.Arg(1)
	}

	img, err := openImage(f.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	defer img.Close()

	_, dir, err := img.fs.LookupPath(path)
	if err != nil {
		fatalf("%v", err)
	}
	entries, err := img.fs.ReadDir(dir)
	if err != nil {
		fatalf("%v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, ent := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\n", ent.Inode, fileTypeString(ent.FileType), ent.Name)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

func fileTypeString(t uint8) string {
	switch t {
	case disklayout.FileTypeRegular:
		return "file"
	case disklayout.FileTypeDirectory:
		return "dir"
	case disklayout.FileTypeCharDevice:
		return "chardev"
	case disklayout.FileTypeBlockDevice:
		return "blockdev"
	case disklayout.FileTypeFIFO:
		return "fifo"
	case disklayout.FileTypeSocket:
		return "socket"
	case disklayout.FileTypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}
