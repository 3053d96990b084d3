package extract

import (
	"fmt"
	"strings"

	"github.com/JustusHenke/QlassifAI/internal/model"
)

// SystemPrompt primes the model for every extraction call
const SystemPrompt = "You are an expert in text analysis. Always answer in the requested JSON format."

// BuildPrompt constructs the extraction instruction for one unit of text.
// The format constraints (keyword count, reason length) are stated as soft
// instructions here and enforced again by the parser.
func BuildPrompt(text string, schema *model.Schema, researchQuestion string, withReasons bool) string {
	var b strings.Builder

	b.WriteString("Analyze the following text and return the results as a single JSON object.\n\n")

	if researchQuestion != "" {
		fmt.Fprintf(&b, "The analysis serves this research question: %q\nUse it as guidance when judging whether the text relates to a topic.\n\n", researchQuestion)
	}

	fmt.Fprintf(&b, "Text: %q\n\n", text)

	b.WriteString("Provide:\n")
	b.WriteString("1. paraphrase: a COMPACT restatement of the core message (1-2 sentences max)\n")
	b.WriteString("2. sentiment: classify as \"positive\", \"negative\" or \"mixed\"\n")
	b.WriteString("3. sentiment_reason: a SHORT justification for the classification (30 words max)\n")
	b.WriteString("4. keywords: extract 2-4 keywords (close to the text, lightly abstracted)\n")

	attrs := schema.Attributes()
	if len(attrs) > 0 {
		b.WriteString("5. custom checks, answered under the given key:\n")
		for _, attr := range attrs {
			fmt.Fprintf(&b, "   - [%s] %s", attr.ID, attr.Question)
			if attr.AnswerType == model.AnswerBoolean {
				b.WriteString(" (answer: true, false, or null if the text has no relation to the topic)")
			} else if attr.AnswerType == model.AnswerMultiCategorical {
				fmt.Fprintf(&b, " (answer: a list of one or more of %s, or null if the text has no relation to the topic)", quoteList(attr.Categories))
			} else {
				fmt.Fprintf(&b, " (answer: one of %s, or null if the text has no relation to the topic)", quoteList(attr.Categories))
			}
			if attr.Definition != "" {
				fmt.Fprintf(&b, "\n     Definition/rules: %s", attr.Definition)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nResponse format (follow strictly):\n{\n")
	b.WriteString("  \"paraphrase\": \"...\",\n")
	b.WriteString("  \"sentiment\": \"positive|negative|mixed\",\n")
	b.WriteString("  \"sentiment_reason\": \"...\",\n")
	b.WriteString("  \"keywords\": [\"keyword1\", \"keyword2\", \"keyword3\"],\n")
	b.WriteString("  \"custom_checks\": {\n")
	for i, attr := range attrs {
		fmt.Fprintf(&b, "    %q: ", attr.ID)
		switch attr.AnswerType {
		case model.AnswerBoolean:
			b.WriteString("true|false|null")
		case model.AnswerMultiCategorical:
			fmt.Fprintf(&b, "[%q, ...]|null", attr.Categories[0])
		default:
			fmt.Fprintf(&b, "%q|null", attr.Categories[0]+"|...")
		}
		if i < len(attrs)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  }")
	if withReasons && len(attrs) > 0 {
		b.WriteString(",\n  \"custom_checks_reasons\": {\n")
		for i, attr := range attrs {
			fmt.Fprintf(&b, "    %q: \"short reason (15 words max)\"", attr.ID)
			if i < len(attrs)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString("  }")
	}
	b.WriteString("\n}\n")

	b.WriteString("\nIMPORTANT:\n")
	b.WriteString("- Answer ONLY with the JSON object, no additional text\n")
	b.WriteString("- Keep the paraphrase COMPACT (1-2 sentences max)\n")
	b.WriteString("- Keep the sentiment_reason SHORT (30 words max)\n")
	b.WriteString("- Set a custom check to null when the text has NO relation to its topic")

	return b.String()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
