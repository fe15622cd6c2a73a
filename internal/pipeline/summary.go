package pipeline

// ProviderOutcome tallies one provider's results across a run.
type ProviderOutcome struct {
	OK        int
	Partial   int
	Unmatched int
	Halted    bool
}

// Summary reports one enrichment run.
type Summary struct {
	RunID     string
	Resumed   bool
	Restarted bool
	Processed int
	Remaining int
	Errors    int
	Providers map[string]*ProviderOutcome
}

func newSummary(runID string) *Summary {
	return &Summary{
		RunID:     runID,
		Providers: map[string]*ProviderOutcome{},
	}
}

func (s *Summary) outcome(provider string) *ProviderOutcome {
	if s.Providers[provider] == nil {
		s.Providers[provider] = &ProviderOutcome{}
	}
	return s.Providers[provider]
}
