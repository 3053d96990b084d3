package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JustusHenke/QlassifAI/internal/model"
)

// rawResponse mirrors the JSON object the model is asked for
type rawResponse struct {
	Paraphrase      string                     `json:"paraphrase"`
	Sentiment       string                     `json:"sentiment"`
	SentimentReason string                     `json:"sentiment_reason"`
	Keywords        []string                   `json:"keywords"`
	CustomChecks    map[string]json.RawMessage `json:"custom_checks"`
	CheckReasons    map[string]string          `json:"custom_checks_reasons"`
}

// UnknownKeyword pads keyword lists that came back too short
const UnknownKeyword = "unknown"

// Parse validates and normalizes a raw LLM response body. Sentiment values
// outside the enum are coerced to mixed and keyword counts are clamped into
// [2,4]; neither is an error. Malformed JSON is.
func Parse(body string, schema *model.Schema, logf func(string, ...interface{})) (model.ExtractionResult, error) {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	body = StripFences(body)
	if body == "" {
		return model.ExtractionResult{}, fmt.Errorf("empty response body")
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return model.ExtractionResult{}, fmt.Errorf("invalid JSON from LLM: %w", err)
	}

	sentiment := model.Sentiment(strings.ToLower(strings.TrimSpace(raw.Sentiment)))
	if !sentiment.Valid() {
		logf("invalid sentiment %q, coercing to mixed", raw.Sentiment)
		sentiment = model.SentimentMixed
	}

	keywords := raw.Keywords
	if len(keywords) < 2 {
		logf("too few keywords (%d), padding", len(keywords))
		for len(keywords) < 2 {
			keywords = append(keywords, UnknownKeyword)
		}
	} else if len(keywords) > 4 {
		logf("too many keywords (%d), truncating to 4", len(keywords))
		keywords = keywords[:4]
	}

	checks := make(model.CheckSet, len(raw.CustomChecks))
	for key, value := range raw.CustomChecks {
		attr, ok := schema.ByID(key)
		if !ok {
			// Fallback: the model sometimes echoes the question text.
			attr, ok = schema.ByQuestion(key)
			if !ok {
				logf("unknown check key %q, skipping", key)
				continue
			}
		}
		checks[attr.ID] = decodeCheckValue(value, attr.AnswerType)
	}

	reasons := make(map[string]string, len(raw.CheckReasons))
	for key, reason := range raw.CheckReasons {
		attr, ok := schema.ByID(key)
		if !ok {
			attr, ok = schema.ByQuestion(key)
			if !ok {
				continue
			}
		}
		if reason = strings.TrimSpace(reason); reason != "" {
			reasons[attr.ID] = reason
		}
	}

	return model.ExtractionResult{
		Paraphrase:      strings.TrimSpace(raw.Paraphrase),
		Sentiment:       sentiment,
		SentimentReason: strings.TrimSpace(raw.SentimentReason),
		Keywords:        keywords,
		Checks:          checks,
		CheckReasons:    reasons,
	}, nil
}

// decodeCheckValue converts one raw answer into the typed container. Shapes
// that cannot be reconciled with the attribute type degrade to null rather
// than failing the whole response.
func decodeCheckValue(raw json.RawMessage, answerType model.AnswerType) model.CheckValue {
	if len(raw) == 0 || string(raw) == "null" {
		return model.NullValue()
	}

	switch answerType {
	case model.AnswerBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return model.BoolValue(b)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "true", "yes":
				return model.BoolValue(true)
			case "false", "no":
				return model.BoolValue(false)
			}
		}

	case model.AnswerMultiCategorical:
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return model.ListValue(list)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return model.ListValue([]string{s})
		}

	case model.AnswerCategorical:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return model.TextValue(s)
		}
	}

	return model.NullValue()
}

// StripFences removes an optional Markdown code-fence wrapper around the
// response body.
func StripFences(body string) string {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "```") {
		return body
	}

	body = strings.TrimPrefix(body, "```")
	if idx := strings.Index(body, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json").
		body = body[idx+1:]
	} else {
		return ""
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
