// Package retrieval widens a claim query into several searches and gathers
// the deduplicated context chunks for adjudication.
package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/satei/internal/llm"
	"go.uber.org/zap"
)

// numberedLine matches "<n>. <text>" lines. Anything else in the model's
// reply is dropped without complaint.
var numberedLine = regexp.MustCompile(`^\s*\d+\.\s+(.+)$`)

const expansionPromptFormat = `Based on the following user query, what are three different, specific questions a claims processor would need to find answers to in an insurance policy document? Focus on identifying key terms, waiting periods, and exceptions. USER QUERY: %q Provide the questions as a numbered list.`

// Expander asks the generation service for follow-up sub-questions that
// widen retrieval recall. Expansion is best effort: it never fails the
// pipeline, and the original query alone is always enough to proceed.
type Expander struct {
	generator llm.Generator
	logger    *zap.Logger
}

// NewExpander creates an expander. logger may be nil.
func NewExpander(generator llm.Generator, logger *zap.Logger) *Expander {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{generator: generator, logger: logger}
}

// Expand returns sub-questions derived from query, or an empty slice when
// the generation call fails or nothing in the reply parses.
func (e *Expander) Expand(ctx context.Context, query string) []string {
	reply, err := e.generator.Generate(ctx, fmt.Sprintf(expansionPromptFormat, query), false)
	if err != nil {
		e.logger.Warn("query expansion failed, continuing with the original query", zap.Error(err))
		return nil
	}
	var questions []string
	for _, line := range strings.Split(strings.TrimSpace(reply), "\n") {
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			questions = append(questions, strings.TrimSpace(m[1]))
		}
	}
	e.logger.Debug("expanded query", zap.String("query", query), zap.Strings("questions", questions))
	return questions
}
