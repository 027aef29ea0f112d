package chatbot

import (
	"fmt"
	"strings"

	"docchat/internal/models"
)

// formatHistory renders prior turns verbatim for the prompt. The answer
// generator treats them as opaque context text.
func formatHistory(history []models.ConversationTurn) string {
	if len(history) == 0 {
		return ""
	}
	parts := make([]string, len(history))
	for i, turn := range history {
		role := "Assistant"
		if turn.Role == models.RoleUser {
			role = "User"
		}
		parts[i] = role + ": " + turn.Content
	}
	return strings.Join(parts, "\n\n")
}

// formatPassages labels retrieved chunks for the prompt.
func formatPassages(matches []models.SimilarityMatch) string {
	if len(matches) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Here are relevant passages from the document that may help answer the query:\n\n")
	for i, m := range matches {
		fmt.Fprintf(&b, "PASSAGE %d [Page %d]:\n%s\n\n", i+1, m.PageNumber, m.Text)
	}
	return b.String()
}

// buildPrompt assembles the combined prompt: conversation history,
// retrieved passages (when any), the query, and the response rules. The
// full PDF travels alongside as an inline binary part, so the model is
// grounded in both the retrieved context and the whole document.
func buildPrompt(historyText, passages, userQuery string) string {
	var b strings.Builder

	b.WriteString("You are an AI research assistant analyzing academic documents. Answer the user's question based on the provided PDF document, relevant passages, and previous conversation history. The amount of relevant passages will vary based on the query.\n\n")

	if historyText != "" {
		b.WriteString("CONVERSATION HISTORY:\n" + historyText + "\n\n")
	}
	if passages != "" {
		b.WriteString("RELEVANT DOCUMENT PASSAGES:\n" + passages + "\n\n")
	}

	fmt.Fprintf(&b, "USER QUERY: %q\n\n", userQuery)

	b.WriteString(`RESPONSE GUIDELINES:
1. Base your response ONLY on the PDF document, relevant passages, and conversation history. Do not include external knowledge.
2. Maintain a scholarly tone suitable for academic research assistance.
3. When citing information, use a simple page number in parentheses, like this: (page 3).
4. Provide page numbers for all factual claims directly from the document.
5. Place citations at the end of sentences before the period (page 5).
6. You can reference multiple pages in one citation if needed (pages 3-4).
7. Double check all citations, even ones from the relevant passages, with the pdf document to verify their accuracy.
8. Be precise and thorough in your analysis.
9. If you're unsure or cannot find information in the document, acknowledge this limitation.
10. Always maintain context from the conversation history when responding.
11. Pay special attention to the relevant passages provided, as they are likely to contain information directly related to the query.

RESPONSE STRUCTURE:
- Begin with a direct answer to the user's question
- Support claims with evidence from the document, with appropriate page citations
- Organize information logically and clearly
- End with a summary or conclusion

Write a comprehensive, accurate response that addresses the user's query.
`)

	return b.String()
}
