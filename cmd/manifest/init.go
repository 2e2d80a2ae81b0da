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

package main

import (
	"context"
	"fmt"

	"github.com/CKS-Systems/manifest-sub000/config"
	vgfs "github.com/CKS-Systems/manifest-sub000/libs/fs"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/jessevdk/go-flags"
)

type InitCmd struct {
	config.HomeFlag

	Force bool `description:"Erase existing configuration at the specified path" long:"force" short:"f"`
}

var initCmd InitCmd

func (opts *InitCmd) Execute(_ []string) error {
	logger := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer logger.AtExit()

	home := opts.HomePath()
	configExists, err := vgfs.FileExists(config.ConfigPath(home))
	if err != nil {
		return fmt.Errorf("couldn't verify configuration presence: %w", err)
	}
	if configExists && !opts.Force {
		return fmt.Errorf("configuration already exists at `%s` please remove it first or re-run using -f", config.ConfigPath(home))
	}

	cfg := config.NewDefaultConfig(home)
	path, err := config.Write(home, cfg, opts.Force)
	if err != nil {
		return fmt.Errorf("couldn't save configuration file: %w", err)
	}
	if err := vgfs.EnsureDir(cfg.Snapshot.DBPath); err != nil {
		return fmt.Errorf("couldn't create snapshot directory: %w", err)
	}

	logger.Info("configuration generated successfully", logging.String("path", path))
	return nil
}

func Init(_ context.Context, parser *flags.Parser) error {
	initCmd = InitCmd{}

	short := "Initializes a manifest home"
	long := "Generate the default configuration and the snapshot directory in the home"

	_, err := parser.AddCommand("init", short, long, &initCmd)
	return err
}
