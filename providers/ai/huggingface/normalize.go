package huggingface

import (
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
)

// AssistantMarker separates the echoed prompt from the generated reply.
const AssistantMarker = "Assistant:"

// Shape names the response shape a body was recognized as.
type Shape string

const (
	// ShapeGeneratedText is an array holding at least one object with a
	// "generated_text" field.
	ShapeGeneratedText Shape = "generated_text"

	// ShapeRaw is everything else; the body text is used verbatim.
	ShapeRaw Shape = "raw"

	// ShapeInvalid is an array whose first "generated_text" is not a string.
	// No reply can be extracted from it.
	ShapeInvalid Shape = "invalid"
)

// NormalizeResponse extracts the reply from an inference response body.
//
// Recognized shapes:
//  1. an array containing at least one object with "generated_text": the
//     first such field, keeping only the text after the last "Assistant:"
//     marker, trimmed;
//  2. anything else: the body text itself, trimmed.
//
// When the first "generated_text" holds a non-string value (null, a number,
// an object) the result is ShapeInvalid with an empty text.
//
// Bodies that are not valid JSON are passed through jsonrepair first so a
// truncated array still matches shape 1.
func NormalizeResponse(body []byte) (string, Shape) {
	raw := strings.TrimSpace(string(body))

	doc := raw
	if !gjson.Valid(doc) {
		repaired, err := jsonrepair.JSONRepair(raw)
		if err != nil || !gjson.Valid(repaired) {
			return raw, ShapeRaw
		}
		doc = repaired
	}

	field, ok := generatedText(gjson.Parse(doc))
	if !ok {
		return raw, ShapeRaw
	}
	if field.Type != gjson.String {
		return "", ShapeInvalid
	}
	return afterLastMarker(field.Str), ShapeGeneratedText
}

// generatedText returns the first "generated_text" field found in an array
// of objects, whatever its type.
func generatedText(result gjson.Result) (gjson.Result, bool) {
	if !result.IsArray() {
		return gjson.Result{}, false
	}

	var text gjson.Result
	found := false
	result.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		field := item.Get("generated_text")
		if !field.Exists() {
			return true
		}
		text = field
		found = true
		return false
	})
	return text, found
}

func afterLastMarker(text string) string {
	if idx := strings.LastIndex(text, AssistantMarker); idx >= 0 {
		text = text[idx+len(AssistantMarker):]
	}
	return strings.TrimSpace(text)
}
