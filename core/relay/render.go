package relay

import (
	"strings"

	"github.com/leofalp/chatrelay/providers/ai"
)

// Render turns history into the flat context text sent to providers: one
// "<role>: <content>" line per message, oldest first, joined by "\n".
// An empty history renders as "".
func Render(history []ai.Message) string {
	var b strings.Builder
	for i, message := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(message.Role))
		b.WriteString(": ")
		b.WriteString(message.Content)
	}
	return b.String()
}
