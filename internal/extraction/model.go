package extraction

// ObservedField is one labeled value reported by the analysis provider
type ObservedField struct {
	Label      string  `json:"label"`
	Value      string  `json:"value"`
	TypeTag    string  `json:"type_tag"`
	Confidence float64 `json:"confidence"` // 0-100
}

// TextBlock is a raw span of document text with no structural tag
type TextBlock struct {
	Text string `json:"text"`
}

// Document groups the fields and text blocks of one analyzed page set
type Document struct {
	Fields     []ObservedField `json:"fields"`
	TextBlocks []TextBlock     `json:"text_blocks"`
}

// Response is the analysis provider output for one image
type Response struct {
	Documents []Document `json:"documents"`
}

// Field names a canonical slot of a Record
type Field string

const (
	FieldIssuerName        Field = "issuer_name"
	FieldIssuerTaxID       Field = "issuer_tax_id"
	FieldIssuerAddress     Field = "issuer_address"
	FieldCounterpartyTaxID Field = "counterparty_tax_id"
	FieldIssueDate         Field = "issue_date"
	FieldDocumentNumber    Field = "document_number"
	FieldDocumentSeries    Field = "document_series"
	FieldTotalAmount       Field = "total_amount"
	FieldPaymentMethod     Field = "payment_method"
)

// Fields lists every canonical slot in output order
var Fields = []Field{
	FieldIssuerName,
	FieldIssuerTaxID,
	FieldIssuerAddress,
	FieldCounterpartyTaxID,
	FieldIssueDate,
	FieldDocumentNumber,
	FieldDocumentSeries,
	FieldTotalAmount,
	FieldPaymentMethod,
}

const (
	// PaymentCashOrInstant marks receipts paid in cash or by instant transfer
	PaymentCashOrInstant = "cash_or_instant"
	// PaymentOther is the default payment method
	PaymentOther = "other"
)

// Record is the canonical receipt resolved from one Response
type Record struct {
	IssuerName        string `json:"issuer_name"`
	IssuerTaxID       string `json:"issuer_tax_id"`
	IssuerAddress     string `json:"issuer_address"`
	CounterpartyTaxID string `json:"counterparty_tax_id"`
	IssueDate         string `json:"issue_date"`
	DocumentNumber    string `json:"document_number"`
	DocumentSeries    string `json:"document_series"`
	TotalAmount       string `json:"total_amount"`
	PaymentMethod     string `json:"payment_method"`
}

// NewRecord returns a Record with every field at its default
func NewRecord() *Record {
	return &Record{PaymentMethod: PaymentOther}
}

// Get returns the value stored for field
func (r *Record) Get(field Field) string {
	if p := r.slot(field); p != nil {
		return *p
	}
	return ""
}

func (r *Record) set(field Field, value string) {
	if p := r.slot(field); p != nil {
		*p = value
	}
}

func (r *Record) slot(field Field) *string {
	switch field {
	case FieldIssuerName:
		return &r.IssuerName
	case FieldIssuerTaxID:
		return &r.IssuerTaxID
	case FieldIssuerAddress:
		return &r.IssuerAddress
	case FieldCounterpartyTaxID:
		return &r.CounterpartyTaxID
	case FieldIssueDate:
		return &r.IssueDate
	case FieldDocumentNumber:
		return &r.DocumentNumber
	case FieldDocumentSeries:
		return &r.DocumentSeries
	case FieldTotalAmount:
		return &r.TotalAmount
	case FieldPaymentMethod:
		return &r.PaymentMethod
	default:
		return nil
	}
}

// IsCashOrInstant reports whether the record resolved to a cash payment
func (r *Record) IsCashOrInstant() bool {
	return r.PaymentMethod == PaymentCashOrInstant
}
