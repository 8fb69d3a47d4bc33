package repo

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/content-forge/gocmis/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Show repository information and capabilities"
}

func (c *Command) Help() string {
	return `Usage: gocmis repo -url=<service-url>

  Prints the repository's identity, product information and capability map.
  Without -repo the endpoint's first repository is used.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("repo", flag.ExitOnError))
	c.ConnectionFlags(f)
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	client, err := c.Client()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	ctx := context.Background()

	repository, err := c.Repository(ctx, client)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error resolving repository: %v", err))
		return 1
	}
	info, err := repository.Info()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading repository info: %v", err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Repository:   %s (%s)", info.Name, info.ID))
	c.UI.Output(fmt.Sprintf("Description:  %s", info.Description))
	c.UI.Output(fmt.Sprintf("Product:      %s %s (%s)", info.ProductName, info.ProductVersion, info.VendorName))
	c.UI.Output(fmt.Sprintf("CMIS version: %s", info.CMISVersionSupported))
	c.UI.Output(fmt.Sprintf("Root folder:  %s", info.RootFolderID))

	caps := repository.Capabilities()
	names := make([]string, 0, len(caps))
	for name := range caps {
		names = append(names, name)
	}
	sort.Strings(names)
	c.UI.Output("Capabilities:")
	for _, name := range names {
		c.UI.Output(fmt.Sprintf("  %-24s %v", name, caps[name]))
	}
	return 0
}
