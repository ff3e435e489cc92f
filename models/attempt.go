package models

// Strategy identifies which fetch path produced an attempt.
type Strategy string

const (
	StrategyDirect   Strategy = "direct"
	StrategyRendered Strategy = "rendered"
)

// Provenance identifies the technique that supplied an extracted record.
type Provenance string

const (
	ProvenanceStructured   Provenance = "structured-data"
	ProvenanceMetaTag      Provenance = "meta-tag"
	ProvenanceEmbeddedJSON Provenance = "embedded-json"
	ProvenanceTextScan     Provenance = "text-scan"
	ProvenanceDOMSelector  Provenance = "dom-selector"
)

// ExtractionAttempt is the immutable outcome of one strategy invocation.
// A failed or gated attempt has Accepted=false and a machine-readable
// RejectReason; Record may still carry useful partial fields for
// diagnostics or merging.
type ExtractionAttempt struct {
	Strategy     Strategy       `json:"strategy"`
	Provenance   Provenance     `json:"provenance,omitempty"`
	Record       *ProductRecord `json:"record,omitempty"`
	Accepted     bool           `json:"accepted"`
	RejectReason string         `json:"reject_reason,omitempty"`
}

// RejectedAttempt builds a not-accepted attempt carrying the reason and
// whatever partial record is available.
func RejectedAttempt(s Strategy, rec *ProductRecord, reason string) *ExtractionAttempt {
	return &ExtractionAttempt{Strategy: s, Record: rec, Accepted: false, RejectReason: reason}
}
