package jsonutil

import (
	"strings"
	"testing"
)

func TestMarshalNoEscapeIndentKeepsHTML(t *testing.T) {
	b, err := MarshalNoEscapeIndent(map[string]string{"html": "<b>&</b>"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "<b>&</b>") {
		t.Fatalf("expected raw html, got %s", s)
	}
	if !strings.HasSuffix(s, "}\n") || !strings.Contains(s, "\n  \"html\"") {
		t.Fatalf("expected indented output with trailing newline, got %q", s)
	}
}

func TestDecodeObject(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantKey string
		wantErr bool
	}{
		{name: "plain", in: `{"status":"draft"}`, wantKey: "status"},
		{name: "prose", in: "Sure!\n```json\n{\"questions\": []}\n```\nThanks", wantKey: "questions"},
		{name: "none", in: "no json here", wantErr: true},
		{name: "broken", in: "{not json}", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeObject(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if _, ok := got[tc.wantKey]; !ok {
				t.Fatalf("missing key %q in %v", tc.wantKey, got)
			}
		})
	}
}
