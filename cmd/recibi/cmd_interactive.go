package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"recibi/cmd/recibi/ui"
)

// runInteractive opens the receipt form.
func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, cleanup, err := openSession(cfg)
	if err != nil {
		return fmt.Errorf("%s", ui.Describe(err))
	}
	defer cleanup()

	opts := ui.Options{
		Styles: ui.NewStyles(ui.ThemeFor(cfg.UI.Theme)),
		Source: cfg.Data.Path,
	}
	if cfg.Receipt.OpenAfter {
		opts.Open = openFile
	}

	p := tea.NewProgram(ui.NewFormModel(ctrl, opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("form error: %w", err)
	}

	if last := ctrl.Session().LastPath; last != "" {
		fmt.Fprintf(os.Stdout, "Último recibí: %s\n", last)
	}
	return nil
}

// openFile hands path to the desktop's default application.
func openFile(path string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		c = exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		c = exec.Command("open", path)
	default:
		c = exec.Command("xdg-open", path)
	}
	return c.Start()
}
