// Package adjudicate renders a structured claim decision from retrieved
// policy clauses.
package adjudicate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/satei/internal/llm"
	"github.com/hyperjump/satei/internal/models"
	"github.com/hyperjump/satei/pkg/utils"
	"go.uber.org/zap"
)

// ErrMalformedDecision means generation succeeded but the output violates
// the JSON decision contract.
var ErrMalformedDecision = errors.New("generation output is not a valid decision object")

// clauseSeparator joins context chunks so the model can tell clause
// boundaries apart.
const clauseSeparator = "\n---\n"

const decisionPromptFormat = `Your primary task is to act as an expert insurance claims processor. Evaluate the user's query based ONLY on the provided policy clauses. Your entire response must be a single, valid JSON object, with no additional text or explanations. [POLICY CLAUSES]: --- %s --- [USER QUERY]: %q [INSTRUCTIONS]: 1. Analyze the user's query and the policy clauses. 2. Make a final decision: "Approved" or "Rejected". 3. Provide a clear justification, mapping your reasoning to the specific clauses. 4. If rejected, the amount is 0. If approved, state that the final amount depends on network hospital rates. 5. Use the following JSON format for your response. [JSON_FORMAT]: {"Decision": "Approved/Rejected", "Amount": "Calculated or descriptive amount", "Justification": [{"Reasoning": "...", "SupportingClause": "..."}]}`

// Adjudicator assembles the constrained prompt and parses the decision.
type Adjudicator struct {
	generator llm.Generator
	logger    *zap.Logger
}

// NewAdjudicator creates an adjudicator. logger may be nil.
func NewAdjudicator(generator llm.Generator, logger *zap.Logger) *Adjudicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adjudicator{generator: generator, logger: logger}
}

// Decide evaluates query against the supplied clauses and returns the
// structured decision.
//
// A generation-service failure does not return an error: it degrades to a
// Decision carrying only the Error field, so consumers always receive a
// single parseable object. A reply that is not valid JSON, by contrast,
// returns ErrMalformedDecision.
func (a *Adjudicator) Decide(ctx context.Context, query string, chunks []models.Chunk) (*models.Decision, error) {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	prompt := fmt.Sprintf(decisionPromptFormat, strings.Join(texts, clauseSeparator), query)

	reply, err := a.generator.Generate(ctx, prompt, true)
	if err != nil {
		a.logger.Error("generation service failed, degrading to error decision", zap.Error(err))
		return &models.Decision{Error: fmt.Sprintf("an error occurred calling the generation service: %v", err)}, nil
	}

	var decision models.Decision
	if err := json.Unmarshal([]byte(reply), &decision); err != nil {
		a.logger.Error("decision payload is not valid JSON", zap.String("reply", utils.Truncate(reply, 200)))
		return nil, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}
	a.logger.Debug("decision rendered",
		zap.String("decision", decision.Decision),
		zap.Int("justifications", len(decision.Justification)))
	return &decision, nil
}
