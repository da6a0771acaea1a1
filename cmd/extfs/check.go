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

	"github.com/google/subcommands"
)

// Check implements subcommands.Command for the "check" command.
type Check struct{}

// Name implements subcommands.Command.Name.
func (*Check) Name() string {
	return "check"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Check) Synopsis() string {
	return "run read-only consistency checks on an image"
}

// Usage implements subcommands.Command.Usage.
func (*Check) Usage() string {
	return `check <image>

Verify group descriptor ranges and cross-check both usage bitmaps against
the free counts. Each violation is logged; the exit status is non-zero if
any were found.

`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Check) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Check) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	img, err := openImage(f.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	defer img.Close()

	violations := img.fs.CheckDescriptors()
	violations += img.fs.CheckBlockBitmaps()
	violations += img.fs.CheckInodeBitmaps()

	if violations > 0 {
		fmt.Printf("%d violations found\n", violations)
		return subcommands.ExitFailure
	}
	fmt.Println("clean")
	return subcommands.ExitSuccess
}
