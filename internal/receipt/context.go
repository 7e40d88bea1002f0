// Package receipt assembles template fields for an aid receipt and renders
// them into a .docx document.
package receipt

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/goodsign/monday"
	"github.com/shopspring/decimal"

	"recibi/internal/aid"
	"recibi/internal/apperr"
	"recibi/internal/beneficiary"
	"recibi/internal/logging"
)

// PaymentMethod is how the aid is paid out.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Efectivo"
	PaymentBank PaymentMethod = "Banco"
)

// ParsePaymentMethod accepts the display value or its English alias.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "efectivo", "cash":
		return PaymentCash, true
	case "banco", "bank":
		return PaymentBank, true
	}
	return "", false
}

// Request is the validated operator input for one receipt.
type Request struct {
	BeneficiaryID string
	AidCode       aid.Code
	Amount        decimal.Decimal
	Professional  string
	PaymentMethod PaymentMethod
}

// Role prefixes for the two person field sets.
const (
	RoleHolder = "titular_"
	RoleMinor  = "menor_"
)

// Template keys outside the role field sets.
const (
	KeyRelation        = "relacion_familiar"
	KeyAidCode         = "codigo_ayuda"
	KeyAidDescription  = "descripcion_ayuda"
	KeyAmount          = "cuantia"
	KeyProfessional    = "profesional"
	KeyPaymentMethod   = "metodo_pago"
	KeyDate            = "fecha_actual"
	BirthDateLayout    = "02-01-2006"
	FileDateLayout     = "2006.01.02"
	LongDateLayout     = "02 de January de 2006"
	OutputExtension    = "docx"
	statusPresentValue = "X"
)

// StatusMarker is one box of the legal-status table on the receipt.
type StatusMarker struct {
	Key      string
	Statuses []string
}

// StatusMarkers lists the six mutually exclusive boxes. The last one covers
// both applicants for and holders of temporary protection.
var StatusMarkers = []StatusMarker{
	{Key: "sol_pi", Statuses: []string{"Solicitante Protección Internacional"}},
	{Key: "ben_pi", Statuses: []string{"Beneficiario/a Estatuto Refugiado/a"}},
	{Key: "ben_ps", Statuses: []string{"Beneficiario/a Protección Subsidiaria"}},
	{Key: "sol_ap", Statuses: []string{"Solicitante Estatuto de Apátrida"}},
	{Key: "apatrida", Statuses: []string{"Apátrida"}},
	{Key: "sol_ben_pt", Statuses: []string{"Solicitante Protección Temporal", "Beneficiario/a Protección Temporal"}},
}

// MarkStatus returns the six marker fields for status. At most one is "X";
// an unknown status leaves all blank.
func MarkStatus(status string) (fields map[string]string, matched bool) {
	fields = make(map[string]string, len(StatusMarkers))
	for _, m := range StatusMarkers {
		fields[m.Key] = ""
		if matched {
			continue
		}
		for _, s := range m.Statuses {
			if status == s {
				fields[m.Key] = statusPresentValue
				matched = true
				break
			}
		}
	}
	return fields, matched
}

// Context is the flattened field set handed to the renderer.
type Context struct {
	Fields      map[string]string
	Amount      decimal.Decimal
	FileName    string
	Minor       bool
	GeneratedAt time.Time
}

// Get returns a field value, "" when absent.
func (c *Context) Get(key string) string {
	return c.Fields[key]
}

// Keys returns the field names in sorted order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Assembler builds receipt contexts.
type Assembler struct {
	catalog    *aid.Catalog
	copay      *aid.Copay
	childLabel string
	now        func() time.Time
}

// NewAssembler creates an Assembler. now may be nil for time.Now.
func NewAssembler(catalog *aid.Catalog, copay *aid.Copay, childLabel string, now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{catalog: catalog, copay: copay, childLabel: childLabel, now: now}
}

// BuildContext merges the beneficiary, the optional guardian and the request.
// With a guardian the beneficiary is the minor: the guardian fills the
// holder fields and the minor fills the minor fields.
func (a *Assembler) BuildContext(person beneficiary.Record, guardian *beneficiary.Record, req Request) (*Context, error) {
	if !a.catalog.Has(req.AidCode) {
		return nil, apperr.Validation(fmt.Sprintf("unknown aid code %s", req.AidCode))
	}

	at := a.now()
	fields := make(map[string]string, 40)

	if guardian != nil {
		putPerson(fields, RoleHolder, *guardian)
		putPerson(fields, RoleMinor, person)
		fields[KeyRelation] = a.childLabel
	} else {
		putPerson(fields, RoleHolder, person)
		fields[KeyRelation] = ""
	}

	markers, matched := MarkStatus(person.LegalStatus)
	if !matched && person.LegalStatus != "" {
		logging.DataWarn("beneficiary %s: legal status %q matches no marker", person.ID, person.LegalStatus)
	}
	for k, v := range markers {
		fields[k] = v
	}

	amount := a.copay.Apply(req.AidCode, req.Amount)
	fields[KeyAidCode] = string(req.AidCode)
	fields[KeyAidDescription] = a.catalog.Describe(req.AidCode)
	fields[KeyAmount] = amount.StringFixed(2)
	fields[KeyProfessional] = req.Professional
	fields[KeyPaymentMethod] = string(req.PaymentMethod)
	fields[KeyDate] = LongDate(at)

	return &Context{
		Fields:      fields,
		Amount:      amount,
		FileName:    FileName(person.FirstName, person.LastName, person.ID, at),
		Minor:       guardian != nil,
		GeneratedAt: at,
	}, nil
}

func putPerson(fields map[string]string, prefix string, r beneficiary.Record) {
	birth := ""
	if r.HasBirthDate() {
		birth = r.BirthDate.Format(BirthDateLayout)
	}
	fields[prefix+"nombre"] = r.FirstName
	fields[prefix+"apellidos"] = r.LastName
	fields[prefix+"nie"] = r.DocumentNumber
	fields[prefix+"caducidad_nie"] = r.DocumentExpiry
	fields[prefix+"numero_siria_beneficiaria"] = r.ID
	fields[prefix+"numero_siria_uc"] = r.HouseholdID
	fields[prefix+"numero_siria_uf"] = r.HolderID
	fields[prefix+"oar"] = r.CaseNumber
	fields[prefix+"fecha_nacimiento"] = birth
}

// LongDate formats t as "19 de octubre de 2026".
func LongDate(t time.Time) string {
	return monday.Format(t, LongDateLayout, monday.LocaleEsES)
}

// FileName builds "NA.SU_id_2006.01.02.docx" from the first two letters of
// the first name and surname.
func FileName(firstName, lastName, id string, at time.Time) string {
	return fmt.Sprintf("%s.%s_%s_%s.%s",
		initials(firstName), initials(lastName), safeID(id), at.Format(FileDateLayout), OutputExtension)
}

func initials(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

func safeID(id string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, id)
}
