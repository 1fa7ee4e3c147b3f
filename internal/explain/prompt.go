package explain

import (
	"fmt"
	"strings"
)

const promptTemplate = `Explain the concept "%s" to a student very simply, in two lines, based only on the text below.
Answer in the language of the text.

Text:
%s
`

func buildPrompt(concept, context string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(concept), context)
}
