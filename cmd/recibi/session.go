package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"recibi/internal/aid"
	"recibi/internal/beneficiary"
	"recibi/internal/config"
	"recibi/internal/form"
	"recibi/internal/journal"
	"recibi/internal/logging"
	"recibi/internal/receipt"
)

// resolveWorkspace returns the --workspace flag or the current directory.
func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	cwd, _ := os.Getwd()
	return cwd
}

// loadConfig reads the config file, applies --data and resolves paths
// against the workspace.
func loadConfig() (*config.Config, error) {
	ws := resolveWorkspace()
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath(ws)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataPath != "" {
		cfg.Data.Path = dataPath
	}
	cfg.ResolvePaths(ws)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := logging.Initialize(ws, cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	logging.Boot("config %s, data %s", path, cfg.Data.Path)
	return cfg, nil
}

// loadCatalog builds the aid catalog and co-payment rule from cfg.
func loadCatalog(cfg *config.Config) (*aid.Catalog, *aid.Copay, error) {
	catalog, err := aid.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, err
	}

	rate := decimal.Zero
	if s := strings.TrimSpace(cfg.Copay.Rate); s != "" {
		if rate, err = decimal.NewFromString(s); err != nil {
			return nil, nil, fmt.Errorf("invalid copay.rate %q: %w", s, err)
		}
	}
	codes := make([]aid.Code, 0, len(cfg.Copay.Codes))
	for _, c := range cfg.Copay.Codes {
		code := aid.Code(strings.TrimSpace(c))
		if !catalog.Has(code) {
			logging.BootWarn("copay code %s is not in the catalog", code)
		}
		codes = append(codes, code)
	}
	return catalog, aid.NewCopay(rate, codes), nil
}

// openSession loads the spreadsheet and wires the form controller. The
// returned cleanup closes the journal.
func openSession(cfg *config.Config) (*form.Controller, func(), error) {
	if cfg.Data.Path == "" {
		return nil, nil, fmt.Errorf("no beneficiary spreadsheet: pass --data or set data.path")
	}

	repo, err := beneficiary.Load(cfg.Data.Path, cfg.Data)
	if err != nil {
		return nil, nil, err
	}
	catalog, copay, err := loadCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}

	session := &form.Session{
		Repository: repo,
		Catalog:    catalog,
		Copay:      copay,
		Assembler:  receipt.NewAssembler(catalog, copay, cfg.Receipt.ChildLabel, nil),
		Renderer:   receipt.NewDocxRenderer(cfg.Receipt.Template),
		OutputDir:  cfg.Receipt.OutputDir,
	}

	cleanup := func() {}
	if cfg.Journal.Enabled {
		store, err := openJournal(cfg)
		if err != nil {
			logger.Warn("Journal unavailable, receipts will not be recorded", zap.Error(err))
		} else {
			session.Journal = store
			cleanup = func() { store.Close() }
		}
	}

	logger.Debug("Session ready",
		zap.Int("beneficiaries", repo.Len()),
		zap.Int("aid_codes", catalog.Len()),
		zap.Int("professionals", len(repo.Professionals())))
	return form.NewController(session), cleanup, nil
}

func openJournal(cfg *config.Config) (*journal.Store, error) {
	if !cfg.Journal.Enabled {
		return nil, fmt.Errorf("journal disabled in config")
	}
	return journal.Open(cfg.Journal.Path)
}
