package extraction

import (
	"log/slog"
)

// Extractor resolves analysis responses into Records. It holds no per-call
// state and may be shared between goroutines.
type Extractor struct {
	classifier *Classifier
	logger     *slog.Logger
}

// NewExtractor creates an Extractor using the Portuguese stopword list
func NewExtractor(logger *slog.Logger) *Extractor {
	return NewExtractorWithStopwords(logger, PortugueseStopwords)
}

// NewExtractorWithStopwords creates an Extractor with a custom stopword set
func NewExtractorWithStopwords(logger *slog.Logger, stopwords Stopwords) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		classifier: NewClassifier(stopwords),
		logger:     logger,
	}
}

// Extract resolves every document of resp into a single Record
func (e *Extractor) Extract(resp *Response) (*Record, error) {
	if resp == nil {
		return nil, &InputError{Reason: "response is nil"}
	}

	r := NewResolver()
	fields := 0
	for _, doc := range resp.Documents {
		e.classifier.ClassifyDocument(r, doc)
		fields += len(doc.Fields)
	}

	record := r.Record()
	e.logger.Debug("extraction resolved",
		"documents", len(resp.Documents),
		"fields", fields,
		"slots", r.Len(),
		"payment_method", record.PaymentMethod,
	)
	return record, nil
}

// ExtractJSON decodes a provider payload and extracts it
func (e *Extractor) ExtractJSON(data []byte) (*Record, error) {
	resp, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return e.Extract(resp)
}
