package extraction

// Candidate is the best value seen so far for a field
type Candidate struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Resolver keeps the highest-confidence candidate per field. It lives for a
// single extraction and is not safe for concurrent use.
type Resolver struct {
	entries map[Field]Candidate
}

// NewResolver returns an empty Resolver
func NewResolver() *Resolver {
	return &Resolver{entries: make(map[Field]Candidate)}
}

// Update stores value for field when the field is unset or confidence is
// strictly greater than the stored one. Ties keep the earlier value.
// It reports whether the entry was written.
func (r *Resolver) Update(field Field, value string, confidence float64) bool {
	current, ok := r.entries[field]
	if ok && confidence <= current.Confidence {
		return false
	}
	r.entries[field] = Candidate{Value: value, Confidence: confidence}
	return true
}

// Get returns the candidate stored for field
func (r *Resolver) Get(field Field) (Candidate, bool) {
	e, ok := r.entries[field]
	return e, ok
}

// Has reports whether field has a candidate
func (r *Resolver) Has(field Field) bool {
	_, ok := r.entries[field]
	return ok
}

// Len returns the number of resolved fields
func (r *Resolver) Len() int {
	return len(r.entries)
}

// amend rewrites the stored value of field without touching its confidence
func (r *Resolver) amend(field Field, value string) {
	if e, ok := r.entries[field]; ok {
		e.Value = value
		r.entries[field] = e
	}
}

// Record drains the resolved values into a Record with defaults for the
// fields that were never set
func (r *Resolver) Record() *Record {
	rec := NewRecord()
	for field, e := range r.entries {
		rec.set(field, e.Value)
	}
	return rec
}
