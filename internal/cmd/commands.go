package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/content-forge/gocmis/internal/cmd/base"
	"github.com/content-forge/gocmis/internal/cmd/commands/download"
	"github.com/content-forge/gocmis/internal/cmd/commands/query"
	"github.com/content-forge/gocmis/internal/cmd/commands/repo"
	versioncmd "github.com/content-forge/gocmis/internal/cmd/commands/version"
)

// Commands is the CLI's subcommand registry.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	newBase := func() *base.Command {
		return &base.Command{UI: ui, Log: log}
	}

	Commands = map[string]cli.CommandFactory{
		"repo": func() (cli.Command, error) {
			return &repo.Command{Command: newBase()}, nil
		},
		"query": func() (cli.Command, error) {
			return &query.Command{Command: newBase()}, nil
		},
		"download": func() (cli.Command, error) {
			return &download.Command{Command: newBase()}, nil
		},
		"version": func() (cli.Command, error) {
			return &versioncmd.Command{Command: newBase()}, nil
		},
	}
}
