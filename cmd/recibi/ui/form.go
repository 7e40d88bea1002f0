package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"recibi/internal/aid"
	"recibi/internal/apperr"
	"recibi/internal/form"
	"recibi/internal/logging"
	"recibi/internal/receipt"
)

type field int

const (
	fieldID field = iota
	fieldCode
	fieldAmount
	fieldProfessional
	fieldPayment
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldID:           "Nº SIRIA",
	fieldCode:         "Código de ayuda",
	fieldAmount:       "Cuantía (€)",
	fieldProfessional: "Profesional",
	fieldPayment:      "Método de pago",
}

// Options configures the form model.
type Options struct {
	Styles Styles
	// Open is called with each generated file when set.
	Open func(path string) error
	// Source is shown in the header, usually the spreadsheet path.
	Source string
}

type generatedMsg struct {
	res *form.Result
	err error
}

type openedMsg struct {
	path string
	err  error
}

// FormModel is the bubbletea model of the receipt form.
type FormModel struct {
	ctrl   *form.Controller
	styles Styles
	open   func(string) error
	source string

	ctx    context.Context
	cancel context.CancelFunc

	id     textinput.Model
	code   textinput.Model
	amount textinput.Model

	codes         []aid.Code
	lastCode      string
	professionals []string
	professional  int
	payments      []receipt.PaymentMethod
	payment       int
	focus         field

	hint      string
	status    string
	statusErr bool
	busy      bool

	prompter *ChannelPrompter
	done     chan struct{}
	prompt   *HolderPrompt
	holderIn textinput.Model

	width int
}

// NewFormModel builds the form over ctrl with the default aid code and its
// predefined amount preselected.
func NewFormModel(ctrl *form.Controller, opts Options) FormModel {
	ctx, cancel := context.WithCancel(context.Background())
	s := ctrl.Session()

	m := FormModel{
		ctrl:          ctrl,
		styles:        opts.Styles,
		open:          opts.Open,
		source:        opts.Source,
		ctx:           ctx,
		cancel:        cancel,
		id:            newInput("00123456", 20),
		code:          newInput("ATSANMED", 12),
		amount:        newInput("0,00", 12),
		codes:         s.Catalog.Codes(),
		professionals: ctrl.Professionals(),
		payments:      []receipt.PaymentMethod{receipt.PaymentCash, receipt.PaymentBank},
		prompter:      NewChannelPrompter(),
		holderIn:      newInput("Nº SIRIA titular", 20),
	}
	m.code.SetValue(string(s.Catalog.DefaultCode()))
	m.syncCode()
	m.id.Focus()
	return m
}

func newInput(placeholder string, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.Width = width
	ti.CharLimit = 64
	return ti
}

// Init implements tea.Model.
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Input returns the current field values.
func (m FormModel) Input() form.Input {
	prof := ""
	if len(m.professionals) > 0 {
		prof = m.professionals[m.professional]
	}
	return form.Input{
		BeneficiaryID: m.id.Value(),
		AidCode:       strings.ToUpper(strings.TrimSpace(m.code.Value())),
		Amount:        m.amount.Value(),
		Professional:  prof,
		PaymentMethod: string(m.payments[m.payment]),
	}
}

// Update implements tea.Model.
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case holderPromptMsg:
		hp := msg.prompt
		m.prompt = &hp
		if hp.Suggested == "" {
			m.holderIn.SetValue("")
			return m, m.holderIn.Focus()
		}
		return m, nil

	case generatedMsg:
		m.busy = false
		m.done = nil
		m.prompt = nil
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setStatus("Documento generado correctamente: " + msg.res.Path)
		if m.open != nil {
			return m, m.openCmd(msg.res.Path)
		}
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("no se pudo abrir %s: %w", msg.path, msg.err))
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancel()
			return m, tea.Quit
		}
		if m.prompt != nil {
			return m.handlePromptKey(msg)
		}
		if m.busy {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m FormModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.cancel()
		return m, tea.Quit
	case "tab", "down":
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case "ctrl+s":
		return m.submit()
	case "enter":
		if m.focus == fieldCount-1 {
			return m.submit()
		}
		return m, m.setFocus(m.focus + 1)
	case "ctrl+x":
		m.fillMax()
		return m, nil
	}

	switch m.focus {
	case fieldProfessional:
		if len(m.professionals) > 0 {
			switch msg.String() {
			case "left":
				m.professional = (m.professional + len(m.professionals) - 1) % len(m.professionals)
			case "right", " ":
				m.professional = (m.professional + 1) % len(m.professionals)
			}
		}
		return m, nil
	case fieldPayment:
		switch msg.String() {
		case "left", "right", " ":
			m.payment = (m.payment + 1) % len(m.payments)
		}
		return m, nil
	case fieldCode:
		switch msg.String() {
		case "pgdown", "pgup":
			m.cycleCode(msg.String() == "pgdown")
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldID:
		m.id, cmd = m.id.Update(msg)
	case fieldCode:
		m.code, cmd = m.code.Update(msg)
		m.syncCode()
	case fieldAmount:
		m.amount, cmd = m.amount.Update(msg)
		m.refreshHint()
	}
	return m, cmd
}

func (m FormModel) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	hp := *m.prompt
	if hp.Suggested != "" {
		switch strings.ToLower(msg.String()) {
		case "s", "y", "enter":
			hp.Confirm(true)
		case "n", "esc":
			hp.Confirm(false)
		default:
			return m, nil
		}
		m.prompt = nil
		return m, m.prompter.wait(m.done)
	}

	switch msg.String() {
	case "enter":
		hp.Enter(m.holderIn.Value())
	case "esc":
		hp.Enter("")
	default:
		var cmd tea.Cmd
		m.holderIn, cmd = m.holderIn.Update(msg)
		return m, cmd
	}
	m.holderIn.Blur()
	m.prompt = nil
	return m, m.prompter.wait(m.done)
}

func (m *FormModel) setFocus(f field) tea.Cmd {
	m.id.Blur()
	m.code.Blur()
	m.amount.Blur()
	m.code.SetValue(strings.ToUpper(strings.TrimSpace(m.code.Value())))
	m.syncCode()
	m.focus = f
	switch f {
	case fieldID:
		return m.id.Focus()
	case fieldCode:
		return m.code.Focus()
	case fieldAmount:
		return m.amount.Focus()
	}
	return nil
}

// syncCode fills the predefined amount when the code changes to a known one.
func (m *FormModel) syncCode() {
	code := strings.ToUpper(strings.TrimSpace(m.code.Value()))
	if code != m.lastCode && m.ctrl.Session().Catalog.Has(aid.Code(code)) {
		m.lastCode = code
		if def, ok := m.ctrl.DefaultAmount(code); ok {
			m.amount.SetValue(def)
		} else {
			m.amount.SetValue("")
		}
	}
	m.refreshHint()
}

func (m *FormModel) cycleCode(forward bool) {
	if len(m.codes) == 0 {
		return
	}
	idx := -1
	current := strings.ToUpper(strings.TrimSpace(m.code.Value()))
	for i, c := range m.codes {
		if string(c) == current {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(m.codes)
	} else if idx <= 0 {
		idx = len(m.codes) - 1
	} else {
		idx--
	}
	m.code.SetValue(string(m.codes[idx]))
	m.code.CursorEnd()
	m.syncCode()
}

func (m *FormModel) refreshHint() {
	m.hint = m.ctrl.CopayHint(strings.ToUpper(strings.TrimSpace(m.code.Value())), m.amount.Value())
}

func (m *FormModel) fillMax() {
	code := strings.ToUpper(strings.TrimSpace(m.code.Value()))
	max, ok := m.ctrl.MaxAmount(code)
	if !ok {
		m.setStatus(fmt.Sprintf("La ayuda %s no tiene cuantía máxima.", code))
		return
	}
	m.amount.SetValue(max)
	m.refreshHint()
}

func (m FormModel) submit() (tea.Model, tea.Cmd) {
	in := m.Input()
	if _, err := m.ctrl.Validate(in); err != nil {
		m.setError(err)
		return m, nil
	}

	m.busy = true
	m.setStatus("Generando…")
	done := make(chan struct{})
	m.done = done
	ctrl, ctx, prompter := m.ctrl, m.ctx, m.prompter

	generate := func() tea.Msg {
		defer close(done)
		res, err := ctrl.Generate(ctx, in, prompter)
		return generatedMsg{res: res, err: err}
	}
	logging.FormDebug("submit %s %s", in.BeneficiaryID, in.AidCode)
	return m, tea.Batch(generate, prompter.wait(done))
}

func (m FormModel) openCmd(path string) tea.Cmd {
	open := m.open
	return func() tea.Msg {
		return openedMsg{path: path, err: open(path)}
	}
}

func (m *FormModel) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *FormModel) setError(err error) {
	m.status = Describe(err)
	m.statusErr = true
}

// Describe turns an error into the message shown to the operator.
func Describe(err error) string {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		if errors.Is(err, context.Canceled) {
			return "Operación cancelada."
		}
		return err.Error()
	}
	switch ae.Kind {
	case apperr.KindValidation, apperr.KindGuardianRequired:
		return ae.Message
	case apperr.KindLookup:
		return "No se encontraron los datos: " + ae.Message
	case apperr.KindRender:
		return "Error al generar el documento: " + ae.Error()
	case apperr.KindLoad:
		return "No se pudo cargar el archivo: " + ae.Error()
	}
	return ae.Error()
}

// Status returns the status line and whether it reports an error.
func (m FormModel) Status() (string, bool) {
	return m.status, m.statusErr
}

// View implements tea.Model.
func (m FormModel) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Header.Render("recibi · Generar recibí"))
	b.WriteString("\n")
	if m.source != "" {
		b.WriteString(s.Subtitle.Render(m.source))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for f := field(0); f < fieldCount; f++ {
		label := s.Label.Render(fieldLabels[f])
		if f == m.focus && m.prompt == nil {
			label = s.LabelFocused.Render(fieldLabels[f])
		}
		b.WriteString(label)
		b.WriteString(m.fieldView(f))
		b.WriteString("\n")
		if f == fieldAmount && m.hint != "" {
			b.WriteString(s.Label.Render(""))
			b.WriteString(s.Hint.Render(m.hint))
			b.WriteString("\n")
		}
	}

	if m.prompt != nil {
		b.WriteString("\n")
		b.WriteString(m.promptView())
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(s.Error.Render(m.status))
		} else {
			b.WriteString(s.Success.Render(m.status))
		}
		b.WriteString("\n")
	}

	width := m.width
	if width <= 0 {
		width = 60
	}
	b.WriteString("\n")
	b.WriteString(s.RenderDivider(width))
	b.WriteString("\n")
	b.WriteString(s.Footer.Render("tab/↑↓ campo · ←→ elegir · pgup/pgdn código · ctrl+x máximo · ctrl+s generar · esc salir"))
	return s.Content.Render(b.String())
}

func (m FormModel) fieldView(f field) string {
	s := m.styles
	switch f {
	case fieldID:
		return m.id.View()
	case fieldCode:
		return m.code.View()
	case fieldAmount:
		return m.amount.View()
	case fieldProfessional:
		if len(m.professionals) == 0 {
			return s.Muted.Render("(sin profesionales)")
		}
		return s.ChoiceActive.Render(m.professionals[m.professional])
	case fieldPayment:
		parts := make([]string, len(m.payments))
		for i, p := range m.payments {
			if i == m.payment {
				parts[i] = s.ChoiceActive.Render(string(p))
			} else {
				parts[i] = s.Choice.Render(string(p))
			}
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}
	return ""
}

func (m FormModel) promptView() string {
	s := m.styles
	hp := m.prompt
	if hp.Suggested != "" {
		text := fmt.Sprintf("Esta persona es menor de edad.\nSe ha encontrado el número de SIRIA de la titular: %s\n¿Es correcto? (s/n)", hp.Suggested)
		return s.Modal.Render(s.Bold.Render("Confirmar titular") + "\n\n" + text)
	}
	text := "Introduce el número de SIRIA de la titular:\n\n" + m.holderIn.View() + "\n\n" + s.Muted.Render("enter aceptar · esc cancelar")
	return s.Modal.Render(s.Bold.Render("Titular") + "\n\n" + text)
}
