// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"text/template"
)

// systemPrompt frames every classification request.
const systemPrompt = "You are an academic assistant helping to detect specific content in research articles."

// verdictPromptTmpl is the prompt sent to the backend for each candidate
// passage. The first-line yes/no contract is what parseVerdict relies on.
var verdictPromptTmpl = template.Must(template.New("verdict").Parse(`The following passage comes from a research article. Decide whether it contains a positionality statement: a passage in which the authors disclose their own identities, backgrounds, experiences, or relationships to the research, and reflect on how these shape the work.

Mentions of identity as a research topic do not count. The authors must be speaking about themselves.

Answer "yes" or "no" on the first line. On the lines after, briefly explain your reasoning.

Passage:
{{.Passage}}
`))

// renderPrompt executes the verdict prompt template for one passage.
func renderPrompt(passage string) (string, error) {
	var buf bytes.Buffer
	if err := verdictPromptTmpl.Execute(&buf, struct{ Passage string }{Passage: passage}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
