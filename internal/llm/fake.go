package llm

import (
	"context"
	"sync"
)

// FakeReply is one scripted answer.
type FakeReply struct {
	Text string
	Err  error
}

// FakeClient replays scripted replies in order and counts invocations.
// Once the script runs out it repeats the last reply; an empty script
// yields Default.
type FakeClient struct {
	mu      sync.Mutex
	script  []FakeReply
	Default string
	calls   int
	prompts []string
}

func NewFakeClient(replies ...FakeReply) *FakeClient {
	return &FakeClient{script: replies, Default: "{}"}
}

// NewFakeText scripts plain text replies.
func NewFakeText(texts ...string) *FakeClient {
	replies := make([]FakeReply, len(texts))
	for i, t := range texts {
		replies[i] = FakeReply{Text: t}
	}
	return NewFakeClient(replies...)
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if len(f.script) == 0 {
		return f.Default, nil
	}
	r := f.script[0]
	if len(f.script) > 1 {
		f.script = f.script[1:]
	}
	return r.Text, r.Err
}

// Calls returns the number of Generate invocations so far.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Prompts returns a copy of every prompt received.
func (f *FakeClient) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
