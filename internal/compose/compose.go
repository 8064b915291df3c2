// Package compose builds the outbound prompt for a chat exchange.
//
// The concept-breakdown instruction framing is fixed: the user's text is
// embedded byte-for-byte inside a <concept> block and never reformatted,
// trimmed, or truncated. Each request is single-turn; conversation history is
// deliberately not sent to the provider.
package compose

// Delimiters of the concept block. Exported so tests and callers can locate
// the embedded user text.
const (
	ConceptOpen  = "<concept>"
	ConceptClose = "</concept>"
)

const instruction = "I want you to break down the concept provided in the `<concept>` tags visually and display it on a dashboard.\n" +
	"\n" +
	"IMPORTANT: Only respond with the visual breakdown and nothing else!\n" +
	"\n"

// Prompt wraps userText in the instructional template. Validation of empty
// input happens upstream, before composition.
func Prompt(userText string) string {
	return instruction + ConceptOpen + "\n" + userText + "\n" + ConceptClose
}
