package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/devscout/ai"
)

// MockExplainer is a test double for ai.Explainer.
// It allows custom behavior injection via function fields.
type MockExplainer struct {
	// ExplainFunc is called by Explain if set.
	// If nil, uses default deterministic behavior.
	ExplainFunc func(ctx context.Context, query string, candidate ai.Candidate) ([]string, error)

	callCount int
}

// NewMockExplainer creates a mock explainer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExplainer().
func NewMockExplainer() *MockExplainer {
	return &MockExplainer{}
}

// Explain produces deterministic justifications without calling any model.
// Default behavior: one reason per repository (up to three), falling back to
// the bio when the candidate has no repositories.
func (m *MockExplainer) Explain(ctx context.Context, query string, candidate ai.Candidate) ([]string, error) {
	m.callCount++

	if m.ExplainFunc != nil {
		return m.ExplainFunc(ctx, query, candidate)
	}

	reasons := make([]string, 0, 3)
	for i, repo := range candidate.Repositories {
		if i >= 3 {
			break
		}
		reasons = append(reasons, fmt.Sprintf("Repository '%s' is directly relevant to: %s", repo.Name, query))
	}

	if len(reasons) == 0 && candidate.Bio != "" {
		reasons = append(reasons, fmt.Sprintf("Bio mentions relevant expertise: %q", candidate.Bio))
	}

	return reasons, nil
}

// CallCount returns the number of times Explain was called.
func (m *MockExplainer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockExplainer) Reset() {
	m.callCount = 0
	m.ExplainFunc = nil
}
