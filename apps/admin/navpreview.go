package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/edumanage/edumanage/core/menu"
	"github.com/edumanage/edumanage/core/nav"
)

type navPreviewOptions struct {
	roles     []string
	path      string
	file      string
	deep      bool
	collapsed bool
}

// navPreview prints the sidebar a user with `roles` sees at `path`. With a
// file, the raw hierarchy payload is normalized instead of reading the database.
func (cli *commandLine) navPreview(opts navPreviewOptions) error {
	var tree []*menu.Item
	if opts.file != "" {
		raw, err := os.ReadFile(opts.file)
		if err != nil {
			return errors.Wrap(err, "reading hierarchy file")
		}
		tree = menu.BuildTree(menu.Normalize(raw, cli.logger))
	} else {
		var err error
		tree, err = menu.NewService(cli.menuRepo).Tree(context.Background(), opts.roles)
		if err != nil {
			return errors.Wrap(err, "building menu tree")
		}
	}

	var navOpts []nav.Option
	if opts.deep {
		navOpts = append(navOpts, nav.WithDeepMatch())
	}
	if opts.collapsed {
		navOpts = append(navOpts, nav.WithCollapsed())
	}
	navigator := nav.New(navOpts...)
	navigator.Mount(tree)

	fmt.Fprintln(cli.out, nav.RenderText(navigator.View(opts.path)))
	return nil
}
