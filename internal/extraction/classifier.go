package extraction

import (
	"regexp"
	"slices"
	"strings"

	"github.com/zombor/receipt-sorter/internal/taxid"
)

const (
	// FallbackConfidence is assigned to tax ids found in raw text blocks.
	// Any observed field outranks it.
	FallbackConfidence = 0.0

	cashKeyword      = "dinheiro"
	statementKeyword = "extrato"
)

var (
	reCEP  = regexp.MustCompile(`\d{5}-\d{3}`)
	reDate = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`)

	seriesKeywords = []string{"serie", "série", "sat"}
)

// observation is an ObservedField with the derived values every rule needs,
// computed once per field
type observation struct {
	ObservedField
	digits      string
	labelTokens []string
}

// rule maps an observation onto a slot. match returns the value to store;
// augment, when set, rewrites the stored value after an accepted update.
type rule struct {
	name    string
	slot    Field
	match   func(o *observation) (string, bool)
	augment func(stored string, o *observation) string
}

// rules is evaluated in order; the first match wins
var rules = []rule{
	{
		name:  "cnpj",
		slot:  FieldIssuerTaxID,
		match: func(o *observation) (string, bool) { return taxid.ValidateCNPJ(o.digits) },
	},
	{
		name:  "cpf",
		slot:  FieldCounterpartyTaxID,
		match: func(o *observation) (string, bool) { return taxid.ValidateCPF(o.digits) },
	},
	{
		name:  "vendor_name",
		slot:  FieldIssuerName,
		match: tagged("VENDOR_NAME", "NAME"),
	},
	{
		name:  "address",
		slot:  FieldIssuerAddress,
		match: tagged("ADDRESS_BLOCK"),
		augment: func(stored string, o *observation) string {
			if cep := reCEP.FindString(o.Value); cep != "" {
				return stored + " " + cep
			}
			return stored
		},
	},
	{
		name: "date",
		slot: FieldIssueDate,
		match: func(o *observation) (string, bool) {
			if v, ok := tagged("DATE")(o); ok {
				return v, true
			}
			return o.Value, reDate.MatchString(o.Value)
		},
	},
	{
		name:  "total",
		slot:  FieldTotalAmount,
		match: tagged("AMOUNT_PAID", "TOTAL"),
	},
	{
		name: "document_number",
		slot: FieldDocumentNumber,
		match: func(o *observation) (string, bool) {
			if v, ok := tagged("INVOICE_RECEIPT_ID")(o); ok {
				return v, true
			}
			return o.Value, Matches(o.labelTokens, statementKeyword)
		},
	},
	{
		name: "document_series",
		slot: FieldDocumentSeries,
		match: func(o *observation) (string, bool) {
			for _, t := range o.labelTokens {
				if slices.Contains(seriesKeywords, t) {
					return o.Value, true
				}
			}
			return "", false
		},
	},
}

// tagged matches when the type tag contains any of tags
func tagged(tags ...string) func(o *observation) (string, bool) {
	return func(o *observation) (string, bool) {
		for _, t := range tags {
			if strings.Contains(o.TypeTag, t) {
				return o.Value, true
			}
		}
		return "", false
	}
}

// Classifier routes observed fields into resolver slots
type Classifier struct {
	stopwords Stopwords
}

// NewClassifier returns a Classifier that tokenizes labels with stopwords
func NewClassifier(stopwords Stopwords) *Classifier {
	if stopwords == nil {
		stopwords = Stopwords{}
	}
	return &Classifier{stopwords: stopwords}
}

func (c *Classifier) observe(f ObservedField) *observation {
	f.Label = strings.TrimSpace(f.Label)
	f.Value = strings.TrimSpace(f.Value)
	f.TypeTag = strings.ToUpper(strings.TrimSpace(f.TypeTag))
	return &observation{
		ObservedField: f,
		digits:        taxid.Clean(f.Value),
		labelTokens:   Tokenize(f.Label, c.stopwords),
	}
}

// Classify runs the rule cascade for one field and returns the name of the
// rule that matched, or "" when none did. Fields with a confidence outside
// [0, 100] match nothing.
func (c *Classifier) Classify(r *Resolver, f ObservedField) string {
	if !validConfidence(f.Confidence) {
		return ""
	}
	return c.classify(r, c.observe(f))
}

func validConfidence(v float64) bool {
	return v >= 0 && v <= 100
}

func (c *Classifier) classify(r *Resolver, o *observation) string {
	for _, rl := range rules {
		value, ok := rl.match(o)
		if !ok {
			continue
		}
		if r.Update(rl.slot, value, o.Confidence) && rl.augment != nil {
			stored, _ := r.Get(rl.slot)
			r.amend(rl.slot, rl.augment(stored.Value, o))
		}
		return rl.name
	}
	return ""
}

// ClassifyDocument runs the cascade over every field of doc, then the cash
// payment pass, then the raw text fallback for missing tax ids. Fields with
// an out-of-range confidence are skipped.
func (c *Classifier) ClassifyDocument(r *Resolver, doc Document) {
	observations := make([]*observation, 0, len(doc.Fields))
	for _, f := range doc.Fields {
		if !validConfidence(f.Confidence) {
			continue
		}
		o := c.observe(f)
		c.classify(r, o)
		observations = append(observations, o)
	}

	c.detectCash(r, observations)

	if !r.Has(FieldIssuerTaxID) || !r.Has(FieldCounterpartyTaxID) {
		c.scanBlocks(r, doc.TextBlocks)
	}
}

// detectCash marks the payment as cash when a numeric field carries a label
// resembling the cash keyword. The field's digits become the total.
func (c *Classifier) detectCash(r *Resolver, observations []*observation) {
	for _, o := range observations {
		if o.digits == "" {
			continue
		}
		if Matches(o.labelTokens, cashKeyword) {
			r.Update(FieldPaymentMethod, PaymentCashOrInstant, o.Confidence)
			r.Update(FieldTotalAmount, o.digits, o.Confidence)
		}
	}
}

func (c *Classifier) scanBlocks(r *Resolver, blocks []TextBlock) {
	for _, b := range blocks {
		digits := taxid.Clean(b.Text)
		masked, kind, ok := taxid.Validate(digits)
		if !ok {
			continue
		}
		switch kind {
		case taxid.CNPJ:
			r.Update(FieldIssuerTaxID, masked, FallbackConfidence)
		case taxid.CPF:
			r.Update(FieldCounterpartyTaxID, masked, FallbackConfidence)
		}
	}
}
