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
	"io"
	"os"

	"github.com/google/subcommands"
)

// Cat implements subcommands.Command for the "cat" command.
type Cat struct{}

// Name implements subcommands.Command.Name.
func (*Cat) Name() string {
	return "cat"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Cat) Synopsis() string {
	return "write a file inside an image to stdout"
}

// Usage implements subcommands.Command.Usage.
func (*Cat) Usage() string {
	return `cat <image> <path>

Copy the regular file at path to stdout. Holes read as zero bytes.

`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Cat) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Cat) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	img, err := openImage(f.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	defer img.Close()

	_, in, err := img.fs.LookupPath(f.Arg(1))
	if err != nil {
		fatalf("%v", err)
	}
	if !in.IsRegular() {
		fatalf("%q is not a regular file", f.Arg(1))
	}

	r := img.fs.FileReader(in)
	if _, err := io.Copy(os.Stdout, io.NewSectionReader(r, 0, int64(r.Size()))); err != nil {
		fatalf("%v", err)
	}
	return subcommands.ExitSuccess
}
