package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"recibi/cmd/recibi/ui"
	"recibi/internal/form"
	"recibi/internal/receipt"
)

// runPreview prints the receipt fields as markdown without rendering.
func runPreview(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, cleanup, err := openSession(cfg)
	if err != nil {
		return fmt.Errorf("%s", ui.Describe(err))
	}
	defer cleanup()

	prompter := form.FlagPrompter{HolderID: flagHolder, AcceptSuggested: flagYes}
	res, err := ctrl.Prepare(ctx, inputFromFlags(ctrl), prompter)
	if err != nil {
		return fmt.Errorf("%s", ui.Describe(err))
	}

	out, err := renderMarkdown(previewMarkdown(res), ui.ThemeFor(cfg.UI.Theme).IsDark)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// previewMarkdown lists every template field of the result.
func previewMarkdown(res *form.Result) string {
	var sb strings.Builder
	sb.WriteString("# " + res.Context.FileName + "\n\n")
	if res.Context.Minor {
		sb.WriteString("Menor de edad, recibí a nombre de la titular.\n\n")
	}
	sb.WriteString("| Campo | Valor |\n|---|---|\n")
	for _, k := range res.Context.Keys() {
		v := res.Context.Get(k)
		if v == "" {
			v = "-"
		}
		sb.WriteString(fmt.Sprintf("| `%s` | %s |\n", k, escapeCell(v)))
	}
	if res.Context.Get(receipt.KeyAmount) != res.Request.Amount.StringFixed(2) {
		sb.WriteString(fmt.Sprintf("\nCuantía introducida %s €, tras copago %s €.\n",
			res.Request.Amount.StringFixed(2), res.Context.Get(receipt.KeyAmount)))
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func renderMarkdown(md string, dark bool) (string, error) {
	var (
		renderer *glamour.TermRenderer
		err      error
	)
	if dark {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(100),
		)
	} else {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(100),
		)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return renderer.Render(md)
}
