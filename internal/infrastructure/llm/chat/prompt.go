package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

const systemPrompt = `You are a university FAQ assistant answering questions about campus notices.
Answer only from the provided context, in the language of the question.
Cite sources as [n] using the context numbering. If the context is insufficient, say so directly.`

const maxContextChars = 2000

// truncate caps s at limit bytes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func buildUserPrompt(question string, contexts []domain.DocumentContext) string {
	var b strings.Builder
	for idx, ctx := range contexts {
		content := truncate(ctx.Document.Content, maxContextChars)
		fmt.Fprintf(&b, "[%d] title=%s url=%s\n%s\n", idx+1, ctx.Document.Title, ctx.Document.URL, content)
		for _, att := range ctx.AttachmentContexts {
			fmt.Fprintf(&b, "attachment %s:\n%s\n", att.Name, truncate(att.Content, maxContextChars))
		}
		b.WriteString("\n")
	}

	return fmt.Sprintf(`Question:
%s

Context:
%s`, question, b.String())
}
