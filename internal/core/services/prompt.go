package services

import (
	"strings"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// documentInstruction precedes the question in single-document prompts
const documentInstruction = "Bitte beantworte die folgende Frage basierend auf dem bereitgestellten Textauszug " +
	"oder fass das Dokument zusammen, falls es keine sinnvolle Frage gibt " +
	"Nutze ausschließlich Informationen aus dem Text. Wenn keine passende Antwort möglich ist, gib das an."

// SnippetPrompt builds the answer prompt from the first n results:
//
//	{extension}\n\nOriginal query: {query}\n\nSnippets:\n{snippet lines}
func SnippetPrompt(extension, query string, results []domain.RetrievedDocument, n int) string {
	n = max(0, min(n, len(results)))

	lines := make([]string, 0, n)
	for _, doc := range results[:n] {
		lines = append(lines, snippetLine(doc))
	}

	var b strings.Builder
	b.WriteString(extension)
	b.WriteString("\n\nOriginal query: ")
	b.WriteString(query)
	b.WriteString("\n\nSnippets:\n")
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func snippetLine(doc domain.RetrievedDocument) string {
	return string(doc.SourceType) + " — ID: " + doc.ID +
		"; Titel: " + doc.Title +
		"; Summary: " + doc.Summary +
		"; ----"
}

// DocumentPrompt builds the prompt answering a question about one document
func DocumentPrompt(question, text string) string {
	return documentInstruction + "\n\nFrage:\n" + question + "\n\nTextauszug:\n" + text
}
