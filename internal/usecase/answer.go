package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"docchat/internal/domain"
	"docchat/internal/port"
)

//go:embed templates/answer_prompt.txt
var promptTemplates embed.FS

// AnswerUseCase retrieves context for a question, renders the answer prompt
// with recent chat history, and calls the chat model. The retrieved context
// stays structured all the way through, so citations survive into the answer.
type AnswerUseCase struct {
	retriever    *RetrieveUseCase
	llm          port.LLM
	history      port.HistoryStore // optional
	historyTurns int
}

func NewAnswerUseCase(retriever *RetrieveUseCase, llm port.LLM, history port.HistoryStore, historyTurns int) *AnswerUseCase {
	return &AnswerUseCase{
		retriever:    retriever,
		llm:          llm,
		history:      history,
		historyTurns: historyTurns,
	}
}

// Answer is a generated reply with the context that produced it.
type Answer struct {
	Text    string
	Sources []string
	Context []domain.ContextChunk
}

func (u *AnswerUseCase) Ask(question string, k int) (*Answer, error) {
	context, err := u.retriever.Retrieve(question, k)
	if err != nil {
		return nil, err
	}

	// History is advisory: an unreadable log should not block answering.
	var history []domain.ChatTurn
	if u.history != nil && u.historyTurns > 0 {
		history, _ = u.history.Recent(u.historyTurns)
	}

	prompt, err := renderPrompt(question, context, history)
	if err != nil {
		return nil, err
	}

	text, err := u.llm.Generate(prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: generating answer: %v", domain.ErrProvider, err)
	}

	answer := &Answer{
		Text:    text,
		Sources: citations(context),
		Context: context,
	}

	if u.history != nil {
		// Best effort; the answer is already produced.
		_ = u.history.Append(domain.ChatTurn{
			Question:  question,
			Answer:    text,
			Timestamp: time.Now(),
		})
	}

	return answer, nil
}

// citations lists each cited source once, in ranking order.
func citations(context []domain.ContextChunk) []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, c := range context {
		citation := c.Citation()
		if _, ok := seen[citation]; ok {
			continue
		}
		seen[citation] = struct{}{}
		sources = append(sources, citation)
	}
	return sources
}

type promptData struct {
	Question string
	Context  []domain.ContextChunk
	History  []domain.ChatTurn
}

func renderPrompt(question string, context []domain.ContextChunk, history []domain.ChatTurn) (string, error) {
	content, err := promptTemplates.ReadFile("templates/answer_prompt.txt")
	if err != nil {
		return "", fmt.Errorf("prompt template not found: %w", err)
	}

	tmpl, err := template.New("answer").Funcs(templateFuncs()).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Question: question, Context: context, History: history}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatContext": func(context []domain.ContextChunk) string {
			if len(context) == 0 {
				return "No relevant documents found."
			}
			var sb strings.Builder
			for i, c := range context {
				if i > 0 {
					sb.WriteString("\n\n---\n\n")
				}
				sb.WriteString(fmt.Sprintf("[%s]\n", c.Citation()))
				sb.WriteString(c.Text)
			}
			return sb.String()
		},
		"formatHistory": func(history []domain.ChatTurn) string {
			if len(history) == 0 {
				return "(no prior conversation)"
			}
			var sb strings.Builder
			for _, turn := range history {
				sb.WriteString("User: ")
				sb.WriteString(turn.Question)
				sb.WriteString("\nAssistant: ")
				sb.WriteString(turn.Answer)
				sb.WriteString("\n")
			}
			return strings.TrimRight(sb.String(), "\n")
		},
	}
}
