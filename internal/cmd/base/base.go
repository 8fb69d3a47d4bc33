// Package base carries the pieces shared by every CLI command: the UI,
// the logger, the connection flags, and the client constructor they feed.
package base

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/content-forge/gocmis/pkg/cmis"
	"github.com/content-forge/gocmis/pkg/cmis/httptransport"
)

// Command is embedded by every CLI command.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger

	flagURL      string
	flagUsername string
	flagPassword string
	flagRepo     string
	flagTimeout  time.Duration
}

// FlagSet wraps the standard flag set and renders its help text.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps a standard flag set.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help renders the flag set's usage block.
func (f *FlagSet) Help() string {
	var b strings.Builder
	b.WriteString("\n\nOptions:\n")
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&b, "  -%s\n        %s", fl.Name, fl.Usage)
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&b, " (default %q)", fl.DefValue)
		}
		b.WriteString("\n")
	})
	return b.String()
}

// ConnectionFlags registers the flags every repository-touching command
// shares.
func (c *Command) ConnectionFlags(f *FlagSet) {
	f.StringVar(
		&c.flagURL, "url", "",
		"[GOCMIS_URL] Browser binding service document URL",
	)
	f.StringVar(
		&c.flagUsername, "username", "",
		"[GOCMIS_USERNAME] Username for basic authentication",
	)
	f.StringVar(
		&c.flagPassword, "password", "",
		"[GOCMIS_PASSWORD] Password for basic authentication",
	)
	f.StringVar(
		&c.flagRepo, "repo", "",
		"Repository id; defaults to the first repository the endpoint serves",
	)
	f.DurationVar(
		&c.flagTimeout, "timeout", 60*time.Second,
		"Per-request timeout",
	)
}

// RepositoryID returns the -repo flag value.
func (c *Command) RepositoryID() string { return c.flagRepo }

// Repository resolves the repository named by the -repo flag, or the
// endpoint's first repository when the flag is unset.
func (c *Command) Repository(ctx context.Context, client *cmis.Client) (*cmis.Repository, error) {
	if c.flagRepo != "" {
		return client.Repository(ctx, c.flagRepo)
	}
	return client.DefaultRepository(ctx)
}

// Client builds a CMIS client from the connection flags. Flags left unset
// fall back to the environment variables named in their usage strings.
func (c *Command) Client() (*cmis.Client, error) {
	if c.flagURL == "" {
		c.flagURL = os.Getenv("GOCMIS_URL")
	}
	if c.flagUsername == "" {
		c.flagUsername = os.Getenv("GOCMIS_USERNAME")
	}
	if c.flagPassword == "" {
		c.flagPassword = os.Getenv("GOCMIS_PASSWORD")
	}
	if c.flagURL == "" {
		return nil, fmt.Errorf("the -url flag or GOCMIS_URL is required")
	}
	transport, err := httptransport.New(httptransport.Config{
		Username: c.flagUsername,
		Password: c.flagPassword,
		Timeout:  c.flagTimeout,
		Logger:   c.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("building transport: %w", err)
	}
	client, err := cmis.NewClient(cmis.Config{
		ServiceURL: c.flagURL,
		Transport:  transport,
		Logger:     c.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("building client: %w", err)
	}
	return client, nil
}
