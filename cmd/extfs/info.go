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

// Info implements subcommands.Command for the "info" command.
type Info struct{}

// Name implements subcommands.Command.Name.
func (*Info) Name() string {
	return "info"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Info) Synopsis() string {
	return "print superblock and block group summary for an image"
}

// Usage implements subcommands.Command.Usage.
func (*Info) Usage() string {
	return `info <image>

Print the superblock fields and a per-group descriptor summary.

`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Info) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Info) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	img, err := openImage(f.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	defer img.Close()

	sb := img.fs.SuperBlock()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "inodes count:\t%d\n", sb.InodesCount)
	fmt.Fprintf(w, "blocks count:\t%d\n", sb.BlocksCount)
	fmt.Fprintf(w, "free blocks:\t%d\n", sb.FreeBlocksCount)
	fmt.Fprintf(w, "free inodes:\t%d\n", sb.FreeInodesCount)
	fmt.Fprintf(w, "first data block:\t%d\n", sb.FirstDataBlock)
	fmt.Fprintf(w, "block size:\t%d\n", sb.BlockSize())
	fmt.Fprintf(w, "fragment size:\t%d\n", sb.FragmentSize())
	fmt.Fprintf(w, "blocks per group:\t%d\n", sb.BlocksPerGroup)
	fmt.Fprintf(w, "inodes per group:\t%d\n", sb.InodesPerGroup)
	fmt.Fprintf(w, "group count:\t%d\n", sb.GroupsCount())
	fmt.Fprintf(w, "mount count:\t%d\n", sb.MountCount)
	fmt.Fprintf(w, "state:\t%s\n", stateString(sb.State))
	w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "group\tblock bitmap\tinode bitmap\tinode table\tfree blocks\tfree inodes\tdirs")
	for i := uint32(0); i < img.fs.GroupsCount(); i++ {
		d := img.fs.Descriptor(i)
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			i, d.BlockBitmap, d.InodeBitmap, d.InodeTable,
			d.FreeBlocksCount, d.FreeInodesCount, d.UsedDirsCount)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

func stateString(s uint16) string {
	switch s {
	case disklayout.StateValid:
		return "clean"
	case disklayout.StateHasErrors:
		return "has errors"
	default:
		return fmt.Sprintf("unknown (%d)", s)
	}
}
