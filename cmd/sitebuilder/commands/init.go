package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force     bool   `help:"Overwrite existing configuration file"`
	Directory string `short:"d" name:"directory" help:"Directory to initialize the site in" default:"."`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	cfgPath := root.Config
	if i.Directory != "." {
		cfgPath = filepath.Join(i.Directory, filepath.Base(root.Config))
	}

	fmt.Printf("Writing configuration to %s\n", cfgPath)
	if err := config.Init(cfgPath, i.Force); err != nil {
		return err
	}

	// Scaffold the conventional directories next to the config file.
	base := filepath.Dir(cfgPath)
	for _, dir := range []string{"content", "static", "layouts"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	welcome := filepath.Join(base, "content", "welcome.md")
	if _, err := os.Stat(welcome); os.IsNotExist(err) {
		if err := os.WriteFile(welcome, []byte(starterDocument), 0o644); err != nil {
			return fmt.Errorf("write starter document: %w", err)
		}
	}

	fmt.Println("Site initialized. Run 'sitebuilder serve' to preview it.")
	return nil
}

const starterDocument = `---
title: Welcome
date: 2024-01-01
draft: false
---

# Welcome

This is your first page. Edit ` + "`content/welcome.md`" + ` or add more
Markdown files next to it, then run ` + "`sitebuilder build`" + `.
`
