package query

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/content-forge/gocmis/internal/cmd/base"
	"github.com/content-forge/gocmis/pkg/cmis"
)

type Command struct {
	*base.Command

	flagMaxItems  int
	flagSkipCount int
}

func (c *Command) Synopsis() string {
	return "Run a CMIS Query Language statement"
}

func (c *Command) Help() string {
	return `Usage: gocmis query -url=<service-url> <statement>

  Runs the statement against the repository and prints one line per result
  with the object id, base type and name. Select cmis:objectId and
  cmis:baseTypeId (or use SELECT *) for fully identified results.

  Example:
    gocmis query -url=http://localhost:8081/browser \
      "SELECT * FROM cmis:document WHERE cmis:name LIKE 'report%'"` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("query", flag.ExitOnError))
	c.ConnectionFlags(f)
	f.IntVar(&c.flagMaxItems, "max-items", 0, "Page size; 0 leaves the server default")
	f.IntVar(&c.flagSkipCount, "skip-count", 0, "Number of leading results to skip")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	statement := strings.TrimSpace(strings.Join(f.Args(), " "))
	if statement == "" {
		c.UI.Error("a query statement is required")
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

	var opts []cmis.RequestOption
	if c.flagMaxItems > 0 {
		opts = append(opts, cmis.WithMaxItems(c.flagMaxItems))
	}
	if c.flagSkipCount > 0 {
		opts = append(opts, cmis.WithSkipCount(c.flagSkipCount))
	}
	rs, err := repository.Query(ctx, statement, opts...)
	if err != nil {
		c.UI.Error(fmt.Sprintf("query failed: %v", err))
		return 1
	}
	results, err := rs.Results()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading results: %v", err))
		return 1
	}

	for _, obj := range results {
		props, err := obj.Properties(ctx)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error reading result properties: %v", err))
			return 1
		}
		id, _ := props["cmis:objectId"].ID()
		name, _ := props["cmis:name"].String()
		if id == "" && name == "" {
			// projection without identity: print the selected columns instead
			c.UI.Output(renderRow(props))
			continue
		}
		c.UI.Output(fmt.Sprintf("%s\t%s\t%s", id, obj.BaseType(), name))
	}
	if n, ok := rs.NumItems(); ok {
		c.UI.Output(fmt.Sprintf("%d of %d total", len(results), n))
	}
	return 0
}

func renderRow(props map[string]cmis.Value) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, props[k].Raw()))
	}
	return strings.Join(parts, "\t")
}
