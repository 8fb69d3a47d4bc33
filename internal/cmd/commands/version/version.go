package version

import (
	"github.com/content-forge/gocmis/internal/cmd/base"
	"github.com/content-forge/gocmis/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: gocmis version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
