// Package aid holds the aid catalog and the co-payment calculator.
package aid

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"recibi/internal/apperr"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Code identifies an aid, e.g. "ATSANGA".
type Code string

// Entry is one catalog row.
type Entry struct {
	Code          Code
	Description   string
	DefaultAmount decimal.Decimal
	HasDefault    bool
	MaxAmount     decimal.Decimal
	HasMax        bool
}

// Catalog is the immutable set of aid codes. Safe for concurrent reads.
type Catalog struct {
	order   []Code
	entries map[Code]Entry
}

type catalogFile struct {
	Codes []struct {
		Code        string  `yaml:"code"`
		Description string  `yaml:"description"`
		Default     *string `yaml:"default"`
		Max         *string `yaml:"max"`
	} `yaml:"codes"`
}

// DefaultCatalog returns the catalog shipped with the binary.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(embeddedCatalog)
	if err != nil {
		panic(fmt.Sprintf("aid: embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog YAML file. An empty path yields DefaultCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Load("aid.LoadCatalog", "cannot read catalog "+path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperr.Load("aid.ParseCatalog", "malformed catalog", err)
	}

	c := &Catalog{entries: make(map[Code]Entry, len(f.Codes))}
	for i, raw := range f.Codes {
		code := Code(strings.TrimSpace(raw.Code))
		if code == "" {
			return nil, apperr.Load("aid.ParseCatalog", fmt.Sprintf("entry %d has no code", i), nil)
		}
		if _, dup := c.entries[code]; dup {
			return nil, apperr.Load("aid.ParseCatalog", fmt.Sprintf("duplicate code %s", code), nil)
		}

		e := Entry{Code: code, Description: raw.Description}
		if raw.Default != nil {
			d, err := decimal.NewFromString(strings.TrimSpace(*raw.Default))
			if err != nil {
				return nil, apperr.Load("aid.ParseCatalog", fmt.Sprintf("bad default for %s", code), err)
			}
			e.DefaultAmount, e.HasDefault = d, true
		}
		if raw.Max != nil {
			m, err := decimal.NewFromString(strings.TrimSpace(*raw.Max))
			if err != nil {
				return nil, apperr.Load("aid.ParseCatalog", fmt.Sprintf("bad max for %s", code), err)
			}
			e.MaxAmount, e.HasMax = m, true
		}
		if e.HasDefault && e.HasMax && e.DefaultAmount.GreaterThan(e.MaxAmount) {
			return nil, apperr.Load("aid.ParseCatalog", fmt.Sprintf("default above max for %s", code), nil)
		}

		c.order = append(c.order, code)
		c.entries[code] = e
	}
	if len(c.order) == 0 {
		return nil, apperr.Load("aid.ParseCatalog", "catalog is empty", nil)
	}
	return c, nil
}

// Codes returns all codes in display order.
func (c *Catalog) Codes() []Code {
	out := make([]Code, len(c.order))
	copy(out, c.order)
	return out
}

// DefaultCode is the form's initial selection.
func (c *Catalog) DefaultCode() Code {
	return c.order[0]
}

func (c *Catalog) Lookup(code Code) (Entry, bool) {
	e, ok := c.entries[code]
	return e, ok
}

func (c *Catalog) Has(code Code) bool {
	_, ok := c.entries[code]
	return ok
}

// Describe returns the description of code, or "" when unknown.
func (c *Catalog) Describe(code Code) string {
	return c.entries[code].Description
}

// DefaultAmount returns the predefined amount for code, if any.
func (c *Catalog) DefaultAmount(code Code) (decimal.Decimal, bool) {
	e, ok := c.entries[code]
	if !ok || !e.HasDefault {
		return decimal.Zero, false
	}
	return e.DefaultAmount, true
}

// MaxAmount returns the cap for code. false means unbounded or unknown.
func (c *Catalog) MaxAmount(code Code) (decimal.Decimal, bool) {
	e, ok := c.entries[code]
	if !ok || !e.HasMax {
		return decimal.Zero, false
	}
	return e.MaxAmount, true
}

func (c *Catalog) Len() int {
	return len(c.order)
}
