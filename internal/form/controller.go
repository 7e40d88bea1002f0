// Package form validates operator input and drives receipt generation.
package form

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"recibi/internal/aid"
	"recibi/internal/apperr"
	"recibi/internal/beneficiary"
	"recibi/internal/journal"
	"recibi/internal/logging"
	"recibi/internal/receipt"
)

// Input holds the raw form field values.
type Input struct {
	BeneficiaryID string
	AidCode       string
	Amount        string
	Professional  string
	PaymentMethod string
}

// Recorder stores issued receipts. *journal.Store satisfies it.
type Recorder interface {
	Record(e *journal.Entry) error
}

// Session is the state of one operator session: the loaded data, the
// collaborators and the last generated document.
type Session struct {
	Repository *beneficiary.Repository
	Catalog    *aid.Catalog
	Copay      *aid.Copay
	Assembler  *receipt.Assembler
	Renderer   receipt.Renderer
	// Journal may be nil.
	Journal   Recorder
	OutputDir string
	Now       func() time.Time

	LastPath   string
	LastResult *Result
}

// Result describes a generated receipt.
type Result struct {
	Path      string
	Context   *receipt.Context
	Request   receipt.Request
	Guardian  *beneficiary.Record
	Holder    *GuardianResolution
	JournalID string
}

// Controller validates input and generates receipts for a Session.
type Controller struct {
	s *Session
}

// NewController creates a Controller over s.
func NewController(s *Session) *Controller {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Copay == nil {
		s.Copay = aid.DefaultCopay()
	}
	return &Controller{s: s}
}

// Session returns the controller's session.
func (c *Controller) Session() *Session {
	return c.s
}

// ParseAmount parses a euro amount written with either decimal separator.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	s = strings.TrimSpace(strings.TrimSuffix(s, "€"))
	return decimal.NewFromString(s)
}

// Validate checks in and converts it to a request. It never touches the
// session.
func (c *Controller) Validate(in Input) (receipt.Request, error) {
	id := beneficiary.NormalizeID(in.BeneficiaryID)
	code := aid.Code(strings.TrimSpace(in.AidCode))
	rawAmount := strings.TrimSpace(in.Amount)

	if id == "" || code == "" || rawAmount == "" {
		return receipt.Request{}, apperr.Validation("Por favor, introduce todos los datos necesarios.")
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return receipt.Request{}, apperr.Validation("Por favor, introduce una cuantía válida en euros.")
	}
	if !amount.IsPositive() {
		return receipt.Request{}, apperr.Validation("La cuantía debe ser mayor que cero.")
	}

	if !c.s.Catalog.Has(code) {
		return receipt.Request{}, apperr.Validation(fmt.Sprintf("Código de ayuda desconocido: %s.", code))
	}
	if max, ok := c.s.Catalog.MaxAmount(code); ok && amount.GreaterThan(max) {
		return receipt.Request{}, apperr.Validation(fmt.Sprintf(
			"La cuantía para la ayuda %s no puede superar los %s euros.", code, max.StringFixed(2)))
	}

	method, ok := receipt.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return receipt.Request{}, apperr.Validation(fmt.Sprintf("Método de pago no válido: %s.", in.PaymentMethod))
	}

	return receipt.Request{
		BeneficiaryID: id,
		AidCode:       code,
		Amount:        amount,
		Professional:  strings.TrimSpace(in.Professional),
		PaymentMethod: method,
	}, nil
}

// Prepare validates in, looks up the beneficiary and settles the holder of
// a minor through p. It returns the assembled context without rendering.
func (c *Controller) Prepare(ctx context.Context, in Input, p Prompter) (*Result, error) {
	const op = "form.Prepare"

	req, err := c.Validate(in)
	if err != nil {
		return nil, err
	}

	person, ok := c.s.Repository.FindByID(req.BeneficiaryID)
	if !ok {
		return nil, apperr.Lookup(op, req.BeneficiaryID)
	}

	res := &Result{Request: req}
	status := c.s.Repository.ResolveMinorAndGuardian(req.BeneficiaryID, c.s.Now())
	if status.IsMinor {
		logging.Form("beneficiary %s is a minor", req.BeneficiaryID)
		holder, resolution, err := c.resolveGuardian(ctx, person, status.HolderID, p)
		if err != nil {
			return nil, err
		}
		res.Guardian = &holder
		res.Holder = resolution
	}

	rc, err := c.s.Assembler.BuildContext(person, res.Guardian, req)
	if err != nil {
		return nil, err
	}
	res.Context = rc
	return res, nil
}

// Generate runs the full workflow: validate, look up, resolve the holder,
// assemble, render and journal.
func (c *Controller) Generate(ctx context.Context, in Input, p Prompter) (*Result, error) {
	res, err := c.Prepare(ctx, in, p)
	if err != nil {
		logging.Form("generate rejected: %v", apperr.KindOf(err))
		return nil, err
	}

	path, err := c.s.Renderer.Render(res.Context, c.s.OutputDir)
	if err != nil {
		logging.RenderError("render %s: %v", res.Request.BeneficiaryID, err)
		return nil, err
	}
	res.Path = path

	if c.s.Journal != nil {
		entry := &journal.Entry{
			BeneficiaryID: res.Request.BeneficiaryID,
			AidCode:       string(res.Request.AidCode),
			Amount:        res.Context.Amount,
			PaymentMethod: string(res.Request.PaymentMethod),
			Professional:  res.Request.Professional,
			FilePath:      path,
			CreatedAt:     res.Context.GeneratedAt,
		}
		if res.Guardian != nil {
			entry.HolderID = res.Guardian.ID
		}
		// The document already exists; a journal failure is not fatal.
		if err := c.s.Journal.Record(entry); err != nil {
			logging.JournalError("journal %s: %v", path, err)
		} else {
			res.JournalID = entry.ID
		}
	}

	c.s.LastPath = path
	c.s.LastResult = res
	logging.Form("generated %s", path)
	return res, nil
}

func (c *Controller) resolveGuardian(ctx context.Context, minor beneficiary.Record, suggested string, p Prompter) (beneficiary.Record, *GuardianResolution, error) {
	const op = "form.resolveGuardian"

	g := NewGuardianResolution(suggested)
	if g.State == StateTentative {
		ok, err := p.ConfirmHolder(ctx, minor, g.HolderID)
		if err != nil {
			return beneficiary.Record{}, g, err
		}
		if ok {
			g.Confirm()
		} else {
			g.Reject()
		}
	}

	if g.State == StateManual {
		id, err := p.AskHolder(ctx, minor)
		if err != nil {
			return beneficiary.Record{}, g, err
		}
		if !g.Enter(id) {
			return beneficiary.Record{}, g, apperr.GuardianRequired("Se requiere el número SIRIA del titular para menores de edad.")
		}
	}

	holder, ok := c.s.Repository.FindByID(g.HolderID)
	if !ok {
		return beneficiary.Record{}, g, apperr.Lookup(op, g.HolderID)
	}
	logging.FormDebug("holder %s %s for %s", g.HolderID, g.State, minor.ID)
	return holder, g, nil
}

// MaxAmount returns the maximum for code as form text.
func (c *Controller) MaxAmount(code string) (string, bool) {
	max, ok := c.s.Catalog.MaxAmount(aid.Code(code))
	if !ok {
		return "", false
	}
	return max.StringFixed(2), true
}

// DefaultAmount returns the predefined amount for code as form text.
func (c *Controller) DefaultAmount(code string) (string, bool) {
	amount, ok := c.s.Catalog.DefaultAmount(aid.Code(code))
	if !ok {
		return "", false
	}
	return amount.StringFixed(2), true
}

// CopayHint returns the label shown next to the amount: the co-payment share
// for copay codes, the aid description otherwise.
func (c *Controller) CopayHint(code, amountText string) string {
	ac := aid.Code(code)
	if !c.s.Copay.Applies(ac) {
		return c.s.Catalog.Describe(ac)
	}
	amount, err := ParseAmount(amountText)
	if err != nil {
		return ""
	}
	share, _ := c.s.Copay.Share(ac, amount)
	pct := c.s.Copay.Rate().Shift(2).String()
	return fmt.Sprintf("Copago (%s%%): %s€. Introduce total factura.", pct, share.StringFixed(2))
}

// Professionals returns the names offered in the professional selector.
func (c *Controller) Professionals() []string {
	return c.s.Repository.Professionals()
}
