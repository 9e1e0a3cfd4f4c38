package models

// Justification maps one piece of reasoning to the policy clause supporting it.
type Justification struct {
	Reasoning        string `json:"Reasoning"`
	SupportingClause string `json:"SupportingClause"`
}

// Decision is the structured adjudication result. Field names follow the wire
// contract consumed by downstream clients, including the capitalized keys.
// Error is set only on the degrade path when the generation service itself
// fails; callers then still receive a single parseable object.
type Decision struct {
	Decision      string          `json:"Decision,omitempty"`
	Amount        any             `json:"Amount,omitempty"`
	Justification []Justification `json:"Justification,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Decision labels. The adjudication prompt permits exactly these two.
const (
	DecisionApproved = "Approved"
	DecisionRejected = "Rejected"
)
