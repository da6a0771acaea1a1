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
	"time"

	"github.com/google/subcommands"
)

// Stat implements subcommands.Command for the "stat" command.
type Stat struct{}

// Name implements subcommands.Command.Name.
func (*Stat) Name() string {
	return "stat"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Stat) Synopsis() string {
	return "print the inode behind a path inside an image"
}

// Usage implements subcommands.Command.Usage.
func (*Stat) Usage() string {
	return `stat <image> <path>

Resolve path and print its inode fields.

`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Stat) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Stat) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	img, err := openImage(f.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	defer img.Close()

	n, in, err := img.fs.LookupPath(f.Arg(1))
	if err != nil {
		fatalf("%v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "inode:\t%d\n", n)
	fmt.Fprintf(w, "mode:\t%#o\n", in.Mode)
	fmt.Fprintf(w, "uid:\t%d\n", in.UID)
	fmt.Fprintf(w, "gid:\t%d\n", in.GID)
	fmt.Fprintf(w, "size:\t%d\n", in.Size())
	fmt.Fprintf(w, "links:\t%d\n", in.LinksCount)
	fmt.Fprintf(w, "blocks:\t%d\n", in.BlocksCount)
	fmt.Fprintf(w, "atime:\t%s\n", time.Unix(int64(in.AccessTime), 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "ctime:\t%s\n", time.Unix(int64(in.ChangeTime), 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "mtime:\t%s\n", time.Unix(int64(in.ModifyTime), 0).UTC().Format(time.RFC3339))
	w.Flush()
	return subcommands.ExitSuccess
}
