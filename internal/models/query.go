package models

import "fmt"

// QueryRequest is the body for adjudicating a claim against the persistent
// knowledge base. For upload requests the query arrives as a form field instead.
type QueryRequest struct {
	Query string `json:"query"`
}

// Validate returns an error when the request has no query text.
func (q *QueryRequest) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}
