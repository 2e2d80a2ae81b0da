// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"os"
	"path/filepath"
)

// Empty is used when a command or sub-command receives no argument and has no execution.
type Empty struct{}

// HomeFlag points the commands at the directory holding the configuration
// file and the snapshots.
type HomeFlag struct {
	Home string `description:"Path to the manifest home directory" long:"home"`
}

// HomePath returns the home of the flag, or DefaultHome when unset.
func (f HomeFlag) HomePath() string {
	if f.Home != "" {
		return f.Home
	}
	return DefaultHome()
}

// DefaultHome is ~/.manifest, or .manifest in the working directory when the
// user has no home.
func DefaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".manifest"
	}
	return filepath.Join(dir, ".manifest")
}

// ConfigPath is the configuration file of home.
func ConfigPath(home string) string {
	return filepath.Join(home, configFileName)
}

type Output string

const (
	OutputHuman Output = "human"
	OutputJSON  Output = "json"
)

func (o Output) IsJSON() bool {
	return o == OutputJSON
}

type OutputFlag struct {
	Output Output `choice:"human" choice:"json" default:"human" description:"Specify the output format" long:"output"`
}
