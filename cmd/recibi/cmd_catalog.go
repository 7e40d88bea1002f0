package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recibi/cmd/recibi/ui"
	"recibi/internal/aid"
)

// runCatalog prints the aid catalog. It does not need a spreadsheet.
func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, copay, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("%s", ui.Describe(err))
	}

	styles := ui.NewStyles(ui.ThemeFor(cfg.UI.Theme))
	fmt.Print(catalogTable(catalog, copay).View(styles))
	return nil
}

func catalogTable(catalog *aid.Catalog, copay *aid.Copay) *ui.SimpleTable {
	table := ui.NewSimpleTable(
		fmt.Sprintf("Códigos de ayuda (%d)", catalog.Len()),
		[]string{"Código", "Descripción", "Predefinida", "Máximo", "Copago"},
	)
	for _, code := range catalog.Codes() {
		def, max, share := "", "", ""
		if d, ok := catalog.DefaultAmount(code); ok {
			def = d.StringFixed(2)
		}
		if m, ok := catalog.MaxAmount(code); ok {
			max = m.StringFixed(2)
		}
		if copay.Applies(code) {
			share = copay.Rate().Shift(2).String() + "%"
		}
		table.AddRow(string(code), catalog.Describe(code), def, max, share)
	}
	return table
}
