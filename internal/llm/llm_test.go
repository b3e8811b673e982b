package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestFakeClientScript(t *testing.T) {
	boom := errors.New("boom")
	f := NewFakeClient(FakeReply{Text: "one"}, FakeReply{Err: boom}, FakeReply{Text: "last"})
	ctx := context.Background()

	if got, _ := f.Generate(ctx, "p1"); got != "one" {
		t.Fatalf("want one, got %q", got)
	}
	if _, err := f.Generate(ctx, "p2"); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if got, _ := f.Generate(ctx, "p3"); got != "last" {
			t.Fatalf("want last reply repeated, got %q", got)
		}
	}
	if f.Calls() != 4 || len(f.Prompts()) != 4 {
		t.Fatalf("unexpected call count %d", f.Calls())
	}
}

func TestWrapOrderAndHooks(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Client) Client {
			return &orderClient{next: next, name: name, order: &order}
		}
	}
	fake := NewFakeText("ok")
	counter := NewCallCounter()
	cli := WithHook(Wrap(fake, mark("A"), mark("B"), WithLogging(zaptest.NewLogger(t)), WithHooks()), counter)

	ctx := WithPhase(context.Background(), "frontend")
	if _, err := cli.Generate(ctx, "hi"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(order) != 2 || order[0] != "A" || order[1] != "B" {
		t.Fatalf("unexpected middleware order %v", order)
	}
	if counter.Count("frontend") != 1 || counter.Total() != 1 {
		t.Fatalf("hook not invoked: %d", counter.Total())
	}
	if PhaseFrom(context.Background()) != "unknown" {
		t.Fatalf("default phase should be unknown")
	}
}

type orderClient struct {
	next  Client
	name  string
	order *[]string
}

func (o *orderClient) Name() string { return o.next.Name() }
func (o *orderClient) Close() error { return o.next.Close() }
func (o *orderClient) Generate(ctx context.Context, prompt string) (string, error) {
	*o.order = append(*o.order, o.name)
	return o.next.Generate(ctx, prompt)
}

func TestStripFences(t *testing.T) {
	in := "```python\nfrom fastapi import FastAPI\napp = FastAPI()\n```\n"
	want := "from fastapi import FastAPI\napp = FastAPI()"
	if got := StripFences(in); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := StripFences("  plain  "); got != "plain" {
		t.Fatalf("got %q", got)
	}
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	if _, err := NewFromConfig(ctx, Options{Provider: ProviderNone}, log); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("none: want ErrUnavailable, got %v", err)
	}
	if _, err := NewFromConfig(ctx, Options{Provider: ProviderGemini}, log); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("gemini without key: want ErrUnavailable, got %v", err)
	}
	if _, err := NewFromConfig(ctx, Options{Provider: "mystery"}, log); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	cli, err := NewFromConfig(ctx, Options{Provider: ProviderFake}, log)
	if err != nil {
		t.Fatalf("fake: %v", err)
	}
	if cli.Name() != "FakeLLM" {
		t.Fatalf("unexpected client %s", cli.Name())
	}
}

func TestRetryStopsOnSuccessAndUnavailable(t *testing.T) {
	ctx := context.Background()
	transient := errors.New("503 overloaded")
	fake := NewFakeClient(FakeReply{Err: transient}, FakeReply{Text: "ok"})
	cli := Wrap(fake, WithRetry(3, time.Millisecond))
	text, err := cli.Generate(ctx, "p")
	if err != nil || text != "ok" {
		t.Fatalf("Generate = %q, %v", text, err)
	}
	if fake.Calls() != 2 {
		t.Fatalf("calls = %d, want 2", fake.Calls())
	}

	off := NewFakeClient(FakeReply{Err: ErrUnavailable})
	if _, err := Wrap(off, WithRetry(3, time.Millisecond)).Generate(ctx, "p"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
	if off.Calls() != 1 {
		t.Fatalf("unavailable retried: calls = %d", off.Calls())
	}

	always := NewFakeClient(FakeReply{Err: transient})
	if _, err := Wrap(always, WithRetry(2, time.Millisecond)).Generate(ctx, "p"); !errors.Is(err, transient) {
		t.Fatalf("want last error, got %v", err)
	}
	if always.Calls() != 2 {
		t.Fatalf("calls = %d, want 2", always.Calls())
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	fake := NewFakeText("a")
	cli := Wrap(fake, WithRateLimit(0.001, 1))
	defer cli.Close()

	if _, err := cli.Generate(context.Background(), "first"); err != nil {
		t.Fatalf("burst call: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := cli.Generate(ctx, "second"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
	if fake.Calls() != 1 {
		t.Fatalf("calls = %d, want 1", fake.Calls())
	}
	if Wrap(fake, WithRateLimit(0, 1)) != Client(fake) {
		t.Fatalf("rps 0 should not wrap")
	}
}
