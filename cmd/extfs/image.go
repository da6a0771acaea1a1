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
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/extfs-dev/extfs/pkg/ext2"
)

// image is a mounted filesystem image held open with a shared advisory lock,
// so a concurrent writer (e.g. a loop mount) can't change it underneath us.
type image struct {
	f    *os.File
	lock *flock.Flock
	fs   *ext2.Filesystem
}

// openImage locks, opens, and mounts the image at path.
func openImage(path string) (*image, error) {
	lock := flock.New(path)
	locked, err := lock.TryRLock()
	if err != nil {
		return nil, fmt.Errorf("locking %q: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("image %q is locked by another process", path)
	}

	f, err := os.Open(path)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	fs, err := ext2.Mount(f)
	if err != nil {
		f.Close()
		lock.Unlock()
		return nil, fmt.Errorf("mounting %q: %w", path, err)
	}
	return &image{f: f, lock: lock, fs: fs}, nil
}

func (img *image) Close() {
	img.f.Close()
	img.lock.Unlock()
}

// fatalf logs the error and exits. Subcommand bodies use it for failures
// after argument parsing.
func fatalf(format string, args ...any) {
	logrus.Errorf(format, args...)
	os.Exit(1)
}
