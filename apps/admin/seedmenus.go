package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/menu"
)

// seedMenus creates the menus of a YAML file in order. Parents are referenced
// by name and must be listed (or stored) before their children. Menus whose
// name already exists are left untouched.
func (cli *commandLine) seedMenus(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading seed file")
	}
	var seeds []menu.NewMenu
	if err := yaml.Unmarshal(raw, &seeds); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}

	ctx := context.Background()
	svc := menu.NewService(cli.menuRepo)
	var created, skipped int
	for _, nm := range seeds {
		nm := nm
		name := core.CleanString(nm.Name, true /* lower */)
		if _, err := cli.menuRepo.GetMenu(ctx, menu.GetFilter{Name: name}); err == nil {
			skipped++
			continue
		} else if err != menu.ErrNotFound {
			return errors.Wrapf(err, "menu %q", name)
		}

		if parent := core.CleanString(nm.Parent, true /* lower */); parent != "" {
			p, err := cli.menuRepo.GetMenu(ctx, menu.GetFilter{Name: parent})
			if err != nil {
				if err == menu.ErrNotFound {
					return errors.Errorf("menu %q: parent %q not found", name, parent)
				}
				return errors.Wrapf(err, "menu %q", name)
			}
			nm.ParentMenuID = &p.ID
		}

		if err := nm.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "menu %q", name)
		}
		if _, err := svc.Create(ctx, nm); err != nil {
			return errors.Wrapf(err, "menu %q", name)
		}
		created++
	}

	cli.logger.Info("menus seeded", map[string]interface{}{"created": created, "skipped": skipped, "file": path})
	fmt.Fprintf(cli.out, "%d menu(s) created, %d skipped\n", created, skipped)
	return nil
}
