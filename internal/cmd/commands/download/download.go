package download

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/content-forge/gocmis/internal/cmd/base"
	"github.com/content-forge/gocmis/pkg/cmis"
)

type Command struct {
	*base.Command

	// Fs is the destination filesystem. Tests inject a memory-backed one.
	Fs afero.Fs

	flagOutput string
	flagPath   string
	flagID     string
}

func (c *Command) Synopsis() string {
	return "Download a document's content stream"
}

func (c *Command) Help() string {
	return `Usage: gocmis download -url=<service-url> -path=/some/document
       gocmis download -url=<service-url> -id=<object-id>

  Fetches the document's content stream and writes it to -output, or to a
  file named after the document in the current directory.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("download", flag.ExitOnError))
	c.ConnectionFlags(f)
	f.StringVar(&c.flagPath, "path", "", "Repository path of the document")
	f.StringVar(&c.flagID, "id", "", "Object id of the document")
	f.StringVar(&c.flagOutput, "output", "", "Destination file; defaults to the document's name")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if (c.flagPath == "") == (c.flagID == "") {
		c.UI.Error("exactly one of -path and -id is required")
		return 1
	}
	if c.Fs == nil {
		c.Fs = afero.NewOsFs()
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

	var obj cmis.CmisObject
	if c.flagPath != "" {
		obj, err = repository.GetObjectByPath(ctx, c.flagPath)
	} else {
		obj, err = repository.GetObject(ctx, c.flagID)
	}
	if err != nil {
		c.UI.Error(fmt.Sprintf("error fetching object: %v", err))
		return 1
	}
	doc, ok := obj.(*cmis.Document)
	if !ok {
		c.UI.Error("object is not a document")
		return 1
	}

	content, _, err := doc.ContentStream(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error fetching content: %v", err))
		return 1
	}
	defer content.Close()

	dest := c.flagOutput
	if dest == "" {
		name, err := doc.Name(ctx)
		if err != nil || strings.TrimSpace(name) == "" {
			c.UI.Error("document has no usable name; pass -output")
			return 1
		}
		dest = filepath.Base(name)
	}

	out, err := c.Fs.Create(dest)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating %s: %v", dest, err))
		return 1
	}
	defer out.Close()

	n, err := io.Copy(out, content)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error writing %s: %v", dest, err))
		return 1
	}
	c.UI.Output(fmt.Sprintf("wrote %d bytes to %s", n, dest))
	return 0
}
