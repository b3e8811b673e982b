// Package healer judges stage failures. It never retries anything itself;
// it only returns a verdict the orchestrator acts on.
package healer

import (
	"context"
	"strings"
)

type Verdict string

const (
	Succeeded Verdict = "Succeeded"
	Healed    Verdict = "Healed"
	Fatal     Verdict = "Fatal"
)

// Remedy is the degraded action attached to a Healed verdict.
type Remedy string

const (
	RetrainRequired        Remedy = "RetrainRequired"
	SwitchToRecommendation Remedy = "SwitchToRecommendation"
)

type Outcome struct {
	Verdict Verdict
	Remedy  Remedy
	Kind    Kind
	Message string
	Err     error
}

// rule maps message markers to a condition. Order matters: the most
// specific markers come first and the lenient conditions never match an
// unrecognized message.
type rule struct {
	kind    Kind
	markers []string
}

var rules = []rule{
	// A message that only names a model file (a failed write, say) is not
	// a missing model.
	{MissingModelArtifact, []string{
		"model not found", "model artifact missing",
		"model.pkl missing", "model.pkl not found",
		"model.cbor missing", "model.cbor not found",
	}},
	{TargetColumnMissing, []string{"target column required"}},
	{NoUsableFeatures, []string{"no numeric features", "no numeric columns", "no usable features"}},
	{DatasetIncompatible, []string{"unsupported file type", "dataset incompatible"}},
}

// Classify maps a failure to its condition. Structured kinds win over
// message markers.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	if k, ok := KindOf(err); ok {
		return k
	}
	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		for _, m := range r.markers {
			if strings.Contains(msg, m) {
				return r.kind
			}
		}
	}
	return Unknown
}

// Judge turns an error into a verdict.
func Judge(err error) Outcome {
	if err == nil {
		return Outcome{Verdict: Succeeded}
	}
	out := Outcome{Verdict: Fatal, Kind: Classify(err), Message: err.Error(), Err: err}
	switch out.Kind {
	case MissingModelArtifact:
		out.Verdict, out.Remedy = Healed, RetrainRequired
	case TargetColumnMissing:
		out.Verdict, out.Remedy = Healed, SwitchToRecommendation
	}
	return out
}

// Attempt runs fn once and judges the result.
func Attempt(ctx context.Context, fn func(context.Context) error) Outcome {
	return Judge(fn(ctx))
}
