package huggingface

import "testing"

func TestNormalizeResponse(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantText  string
		wantShape Shape
	}{
		{
			name:      "generated_text after assistant marker",
			body:      `[{"generated_text": "foo\nUser: x\nAssistant: bar"}]`,
			wantText:  "bar",
			wantShape: ShapeGeneratedText,
		},
		{
			name:      "keeps text after the last marker",
			body:      `[{"generated_text": "sys\nUser: hi\nAssistant: one\nUser: again\nAssistant:  two  "}]`,
			wantText:  "two",
			wantShape: ShapeGeneratedText,
		},
		{
			name:      "no marker keeps the whole text",
			body:      `[{"generated_text": "  plain reply "}]`,
			wantText:  "plain reply",
			wantShape: ShapeGeneratedText,
		},
		{
			name:      "first object carrying the field wins",
			body:      `[{"score": 1}, {"generated_text": "Assistant: second"}, {"generated_text": "Assistant: third"}]`,
			wantText:  "second",
			wantShape: ShapeGeneratedText,
		},
		{
			name:      "unknown object shape falls back to body",
			body:      `{"error": "oops"}`,
			wantText:  `{"error": "oops"}`,
			wantShape: ShapeRaw,
		},
		{
			name:      "top-level generated_text object is not a recognized shape",
			body:      `{"generated_text": "Assistant: hi"}`,
			wantText:  `{"generated_text": "Assistant: hi"}`,
			wantShape: ShapeRaw,
		},
		{
			name:      "empty array falls back to body",
			body:      `[]`,
			wantText:  `[]`,
			wantShape: ShapeRaw,
		},
		{
			name:      "array without the field falls back to body",
			body:      `[{"summary_text": "x"}]`,
			wantText:  `[{"summary_text": "x"}]`,
			wantShape: ShapeRaw,
		},
		{
			name:      "null generated_text is invalid",
			body:      `[{"generated_text": null}]`,
			wantText:  "",
			wantShape: ShapeInvalid,
		},
		{
			name:      "numeric generated_text is invalid",
			body:      `[{"generated_text": 42}]`,
			wantText:  "",
			wantShape: ShapeInvalid,
		},
		{
			name:      "object generated_text is invalid",
			body:      `[{"generated_text": {"text": "Assistant: hi"}}, {"generated_text": "Assistant: later"}]`,
			wantText:  "",
			wantShape: ShapeInvalid,
		},
		{
			name:      "unclosed array is repaired",
			body:      `[{"generated_text": "q\nAssistant: repaired"}`,
			wantText:  "repaired",
			wantShape: ShapeGeneratedText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotText, gotShape := NormalizeResponse([]byte(tt.body))
			if gotText != tt.wantText {
				t.Errorf("text = %q, want %q", gotText, tt.wantText)
			}
			if gotShape != tt.wantShape {
				t.Errorf("shape = %q, want %q", gotShape, tt.wantShape)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Be brief.", "user: hi")
	want := "Be brief.\nUser: user: hi\nAssistant:"
	if got != want {
		t.Errorf("BuildPrompt() = %q, want %q", got, want)
	}
}
