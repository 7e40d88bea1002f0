package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recibi/cmd/recibi/ui"
	"recibi/internal/form"
)

// inputFromFlags builds the form input, filling the amount and professional
// defaults the interactive form would preselect.
func inputFromFlags(ctrl *form.Controller) form.Input {
	in := form.Input{
		BeneficiaryID: flagID,
		AidCode:       flagCode,
		Amount:        flagAmount,
		Professional:  flagProfessional,
		PaymentMethod: flagPayment,
	}
	if in.Amount == "" {
		if def, ok := ctrl.DefaultAmount(flagCode); ok {
			in.Amount = def
		}
	}
	if in.Professional == "" {
		if profs := ctrl.Professionals(); len(profs) > 0 {
			in.Professional = profs[0]
		}
	}
	return in
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// runGenerate writes one receipt from flags.
func runGenerate(cmd *cobra.Command, args []string) error {
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

	in := inputFromFlags(ctrl)
	prompter := form.FlagPrompter{HolderID: flagHolder, AcceptSuggested: flagYes}

	res, err := ctrl.Generate(ctx, in, prompter)
	if err != nil {
		logger.Debug("Generate failed", zap.Error(err))
		return fmt.Errorf("%s", ui.Describe(err))
	}

	fmt.Printf("Documento generado correctamente: %s\n", res.Path)
	fmt.Printf("  Ayuda:    %s - %s\n", res.Request.AidCode, res.Context.Get("descripcion_ayuda"))
	fmt.Printf("  Cuantía:  %s €\n", res.Context.Get("cuantia"))
	if res.Guardian != nil {
		fmt.Printf("  Titular:  %s (%s)\n", res.Guardian.ID, res.Holder.State)
	}
	if res.JournalID != "" {
		logger.Debug("Recorded in journal", zap.String("id", res.JournalID))
	}

	if flagOpen || cfg.Receipt.OpenAfter {
		if err := openFile(res.Path); err != nil {
			logger.Warn("Could not open document", zap.String("path", res.Path), zap.Error(err))
		}
	}
	return nil
}
