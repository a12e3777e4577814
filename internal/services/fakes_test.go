package services

import (
	"context"
	"sync"
)

const validReply = `{"overallScore":82,"academicScore":88,"extracurricularScore":75,"summary":"Strong academically.","strengths":["A","B"],"improvements":["C"],"recommendations":["D"],"targetSchools":[{"name":"X","reasoning":"Y"}]}`

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (*Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.prompts = append(f.prompts, prompt)
	if err := checkPrompt(prompt, true); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Generation{Text: f.reply, Model: "fake-model", TokensUsed: 42}, nil
}

func (f *fakeGenerator) Name() string     { return "fake" }
func (f *fakeGenerator) Configured() bool { return true }

// fakeReferences serves fixed notes; ingestion falls through to the disabled library.
type fakeReferences struct {
	disabledReferenceLibrary
	notes   []SearchResult
	err     error
	queries []string
}

func (f *fakeReferences) Enabled() bool { return true }

func (f *fakeReferences) Retrieve(_ context.Context, query string) ([]SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.notes, f.err
}
