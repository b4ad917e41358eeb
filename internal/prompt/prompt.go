// Package prompt builds the instruction text sent to the model at each stage.
// Every builder is pure: identical inputs yield identical output.
package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"prism/internal/perspective"
)

const placeholder = "<<PERSPECTIVE>>"

const perspectiveTemplate = `
# Instructions

Interpret the input according to the following perspective. First, identify the key implicit assumptions from the context needed to respond to the input, ensuring they are filtered through the lens of the perspective. Consider how the perspective reinterprets the context to align with its worldview. Then, generate your response based on these assumptions.

## Perspective:
<<PERSPECTIVE>>

## Output Schema:
1. **List of Key Implicit Assumptions**: Provide the key implicit assumptions about the context that the response relies on.
2. **Response**: Provide a single, coherent response.
`

const conflictTemplate = `
# Instructions

Evaluate the "First Pass Response" from the perspective provided below. Identify meaningful conflicts or tensions where the response undermines or fails to address the perspective's core concerns, priorities, or reasoning style. If the response is simply irrelevant to the perspective (i.e., it neither contradicts nor undermines its concerns), do not consider it a conflict. Do not include minor or cosmetic issues. Characterize each conflict by its nature and degree of impact. If the response aligns well with the perspective and no significant conflicts exist, state "` + NoConflicts + `"
## Perspective:
<<PERSPECTIVE>>

## Output Schema:

The following is the output schema for the conflict prompt:

## Conflicts:
- **Conflict Description**: [In 1-2 sentences briefly describe how the perspective (considering its self-concept, motivations, reasoning styles, and/or views on others) would react to the response, focusing on the **negative outcomes or consequences feared** as a result of the response. Explain how these fears arise from the perspective's deeper assumptions or priorities.]
- **Degree of Impact**: [Critical, High, Moderate, or Low. Use "N/A" if no conflicts are identified.]

# First Pass Response:
`

// NoConflicts is the phrase the evaluation stage is told to answer with when
// a perspective has nothing to object to.
const NoConflicts = "No significant conflicts identified."

// Perspective asks the model to answer through one perspective.
func Perspective(def perspective.Definition) string {
	return strings.Replace(perspectiveTemplate, placeholder, def.Description, 1)
}

// Conflict asks the model to evaluate a first-pass response against one
// perspective. The response itself follows the trailing heading; see Evaluation.
func Conflict(def perspective.Definition) string {
	return strings.Replace(conflictTemplate, placeholder, def.Description, 1)
}

// Evaluation is Conflict with the first-pass response appended under its heading.
func Evaluation(def perspective.Definition, firstPass string) string {
	return Conflict(def) + firstPass + "\n"
}

// Synthesis asks for a Pareto-optimal merge of the perspective responses.
// Responses are numbered in the order given, which callers keep in registry order.
func Synthesis(userMessage string, responses []string) string {
	var buf bytes.Buffer
	buf.WriteString(`
# Instructions

Synthesize the provided perspectives into a single response using the Pareto Optimality Principle.
Ensure the synthesized response maximizes the priorities of each perspective while minimizing tradeoffs
and avoiding disproportionately worsening any perspective's objectives. Use the provided inputs as the
foundation for the synthesis.

## Output Schema:
1. **List of Key Implicit Assumptions**: Provide the key implicit assumptions about the context that the response relies on.
2. **Response**: Provide a single, coherent response that reflects the Pareto Optimal integrated priorities of the perspectives.

# Inputs

## User Message (last message of the conversation below)
`)
	buf.WriteString(userMessage)
	buf.WriteString("\n\n## Perspectives\n\n")
	writeNumbered(&buf, responses, "%d. %s")
	buf.WriteString("---\n")
	return buf.String()
}

// Mediation asks for refinements resolving the identified conflicts together.
func Mediation(userMessage string, perspectives []string, firstPass string, evaluations []string) string {
	var buf bytes.Buffer
	buf.WriteString(`
# Instructions
Develop mediations to address the conflicts identified below.
Focus on solutions that reduce the impact of these conflicts and improve alignment across perspectives, while avoiding disproportionately worsening any perspective's priorities.

# Output Schema:

The following is the output schema for the mediation prompt:

## Mediations:
   - Provide targeted refinements that address the conflicts holistically, aiming to reduce tradeoffs and improve alignment.
   - Focus on solutions that bridge tensions across perspectives.

# Inputs
The following are the inputs from which you can develop mediations.

# User Message (last message of the conversation below)
`)
	buf.WriteString(userMessage)
	buf.WriteString("\n\n# Perspectives\n")
	writeNumbered(&buf, perspectives, "## Perspective %d. %s")
	buf.WriteString("\n# First Pass Response\n")
	buf.WriteString(firstPass)
	buf.WriteString("\n\n# Conflicts Identified\n")
	writeNumbered(&buf, evaluations, "## Perspective %d.\n%s")
	return buf.String()
}

// FinalSynthesis asks for the final answer in the two-section schema that
// ParseFinalAnswer reads back.
func FinalSynthesis(userMessage string, labels []string, firstPass, mediation string) string {
	var buf bytes.Buffer
	buf.WriteString(`
# Instructions
Synthesize the provided perspectives into a single response using the Pareto Optimality Principle.
Ensure the synthesized response maximizes the priorities of each perspective while minimizing tradeoffs and avoiding disproportionately worsening any perspective's objectives.
The First Pass Response and Mediations have been provided as contextual inputs. Use them to inform your reasoning and incorporate them where they align with Pareto optimality.

## IMPORTANT:
- always follow the output schema exactly using the markdown format provided. Your answer will be sent to a UI that relies on this format and if it's incorrect it will break the UI.

## Output Schema:
1. **` + KeyAssumptionsHeading + `**: Provide the key assumptions that the response relies on.
2. **` + ResponseHeading + `**: Provide a single, coherent response that reflects the Pareto Optimal integrated priorities of the perspectives.


# Inputs

## User Message (last message of the conversation below)
`)
	buf.WriteString(userMessage)
	buf.WriteString("\n\n## Perspectives\n")
	writeNumbered(&buf, labels, "%d. %s")
	buf.WriteString("\n## First Pass Response\n")
	buf.WriteString(firstPass)
	buf.WriteString("\n\n## Mediations\n")
	buf.WriteString(mediation)
	buf.WriteString("\n")
	return buf.String()
}

func writeNumbered(buf *bytes.Buffer, items []string, format string) {
	for i, item := range items {
		fmt.Fprintf(buf, format, i+1, item)
		buf.WriteString("\n")
	}
}
