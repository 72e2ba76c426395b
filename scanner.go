// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package caseloader

import (
	"fmt"
	"os"
	"path/filepath"

	forgefs "github.com/input-output-hk/catalyst-forge-libs/fs"
)

// Filesystem is the filesystem surface the loader needs. *billy.FS from
// catalyst-forge-libs satisfies it, for both the OS filesystem and the
// in-memory one used in tests.
type Filesystem interface {
	Exists(path string) (bool, error)
	Open(name string) (forgefs.File, error)
	ReadDir(dirname string) ([]os.FileInfo, error)
}

// ScanDir returns the immediate children of root, each joined with root. A
// missing root yields an empty listing and no error. There is no recursion,
// no filtering by file type, and no ordering beyond what the directory
// listing provides.
func ScanDir(fsys Filesystem, root string) ([]string, error) {
	exists, err := fsys.Exists(root)
	if err != nil {
		return nil, fmt.Errorf("checking root %s: %w", root, err)
	}
	if !exists {
		return nil, nil
	}
	infos, err := fsys.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}
	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		paths = append(paths, filepath.Join(root, info.Name()))
	}
	return paths, nil
}
