package config

import "fmt"

// DataConfig describes the beneficiary workbook layout.
type DataConfig struct {
	// Path to the .xlsx workbook. May be passed on the command line instead.
	Path string `yaml:"path"`

	// HeaderRow is the zero-based row holding column titles on the first sheet.
	HeaderRow int `yaml:"header_row"`

	// ProfessionalsSheet lists the professionals offered in the form.
	ProfessionalsSheet string `yaml:"professionals_sheet"`

	// ProfessionalsColumns are read top to bottom, in order.
	ProfessionalsColumns []string `yaml:"professionals_columns"`

	// ProfessionalsFirstRow and ProfessionalsLastRow are 1-based, inclusive.
	ProfessionalsFirstRow int `yaml:"professionals_first_row"`
	ProfessionalsLastRow  int `yaml:"professionals_last_row"`

	Columns ColumnsConfig `yaml:"columns"`
}

// ColumnsConfig maps record fields to header titles.
type ColumnsConfig struct {
	ID             string `yaml:"id"`
	FirstName      string `yaml:"first_name"`
	LastName       string `yaml:"last_name"`
	DocumentNumber string `yaml:"document_number"`
	DocumentExpiry string `yaml:"document_expiry"`
	HouseholdID    string `yaml:"household_id"`
	HolderID       string `yaml:"holder_id"`
	LegalStatus    string `yaml:"legal_status"`
	BirthDate      string `yaml:"birth_date"`
	CaseNumber     string `yaml:"case_number"`
}

// DefaultDataConfig matches the regional beneficiary workbook.
func DefaultDataConfig() DataConfig {
	return DataConfig{
		HeaderRow:             4,
		ProfessionalsSheet:    "LISTADOS (no tocar)",
		ProfessionalsColumns:  []string{"B", "C"},
		ProfessionalsFirstRow: 4,
		ProfessionalsLastRow:  7,
		Columns: ColumnsConfig{
			ID:             "Nº SIRIA BENEFICIARIA/O",
			FirstName:      "NOMBRE",
			LastName:       "APELLIDOS",
			DocumentNumber: "NÚMERO NIE",
			DocumentExpiry: "CADUCIDAD NIE",
			HouseholdID:    "Nº SIRIA  UNIDAD CONVIVENCIAL (SI APLICA)",
			HolderID:       "Nº DE SIRIA TITULAR UNIDAD FAMILIAR",
			LegalStatus:    "SITUACIÓN LEGAL/ADMINISTRATIVA ACTUAL",
			BirthDate:      "FECHA NACIMIENTO",
			CaseNumber:     "Nº EXPEDIENTE OAR",
		},
	}
}

// Required returns every configured column title.
func (c ColumnsConfig) Required() []string {
	return []string{
		c.ID, c.FirstName, c.LastName, c.DocumentNumber, c.DocumentExpiry,
		c.HouseholdID, c.HolderID, c.LegalStatus, c.BirthDate, c.CaseNumber,
	}
}

// Validate checks the layout is usable.
func (d DataConfig) Validate() error {
	if d.HeaderRow < 0 {
		return fmt.Errorf("data.header_row must be >= 0")
	}
	if d.ProfessionalsFirstRow < 1 || d.ProfessionalsLastRow < d.ProfessionalsFirstRow {
		return fmt.Errorf("data.professionals rows must satisfy 1 <= first <= last")
	}
	for _, title := range d.Columns.Required() {
		if title == "" {
			return fmt.Errorf("data.columns: every column title must be set")
		}
	}
	return nil
}
