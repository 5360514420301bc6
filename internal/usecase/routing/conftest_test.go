package routing

import "context"

type mockLister struct {
	collections []string
	err         error
}

func (m *mockLister) Collections(_ context.Context) ([]string, error) {
	return m.collections, m.err
}

type mockAdvisor struct {
	answer string
	err    error
	calls  int
	prompt string
}

func (m *mockAdvisor) Advise(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompt = prompt
	return m.answer, m.err
}
