package openai

import (
	"fmt"
	"sort"
	"strings"

	"ehr-backend/internal/llm"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const systemPrompt = "You are a clinical data extraction engine. Respond with JSON only. " +
	"No markdown. Include exactly the requested top-level keys. " +
	"Use null for unknown scalar fields and [] for empty lists. Never invent data."

const schemaPrompt = `JSON schema by section:
  patient_info: {"name": string|null, "mrn": string|null, "age": string|null, "gender": string|null, "date_of_birth": string|null}
  vital_signs: {"blood_pressure": string|null, "heart_rate": string|null, "temperature": string|null, "respiratory_rate": string|null, "oxygen_saturation": string|null}
  diagnoses: [string]
  medications: [{"name": string, "dosage": string}]
  allergies: [string]
  procedures: [string]
  clinical_notes: [string]`

// BuildPrompt creates the chat messages for a scoped extraction request.
func BuildPrompt(input llm.ExtractInput) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "developer", Content: developerPrompt(input.RequestedSections)},
		{Role: "user", Content: userPrompt(input)},
	}
}

func developerPrompt(requested []string) string {
	return fmt.Sprintf(
		"Extract the following sections from the clinical document: %s.\n%s\nReturn only the requested sections as top-level keys.",
		strings.Join(requested, ", "),
		schemaPrompt,
	)
}

func userPrompt(input llm.ExtractInput) string {
	var b strings.Builder
	if len(input.SectionTexts) > 0 {
		names := make([]string, 0, len(input.SectionTexts))
		for name := range input.SectionTexts {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("Document sections:\n")
		for _, name := range names {
			fmt.Fprintf(&b, "\n## %s\n%s\n", name, input.SectionTexts[name])
		}
		return b.String()
	}
	b.WriteString("Document text:\n")
	b.WriteString(input.DocumentText)
	return b.String()
}
