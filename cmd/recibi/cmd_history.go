package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"recibi/cmd/recibi/ui"
	"recibi/internal/beneficiary"
	"recibi/internal/journal"
)

// runHistory lists journal entries, optionally for one beneficiary.
func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var entries []journal.Entry
	if len(args) == 1 {
		entries, err = store.ForBeneficiary(beneficiary.NormalizeID(args[0]))
	} else {
		entries, err = store.List(flagLimit)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No hay recibís registrados.")
		return nil
	}

	styles := ui.NewStyles(ui.ThemeFor(cfg.UI.Theme))
	fmt.Print(historyTable(entries).View(styles))
	return nil
}

func historyTable(entries []journal.Entry) *ui.SimpleTable {
	table := ui.NewSimpleTable(
		fmt.Sprintf("Recibís emitidos (%d)", len(entries)),
		[]string{"Fecha", "Nº SIRIA", "Titular", "Ayuda", "Cuantía", "Pago", "Archivo"},
	)
	for _, e := range entries {
		table.AddRow(
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.BeneficiaryID,
			e.HolderID,
			e.AidCode,
			e.Amount.StringFixed(2),
			e.PaymentMethod,
			filepath.Base(e.FilePath),
		)
	}
	return table
}
