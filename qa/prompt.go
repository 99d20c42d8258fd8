package qa

import (
	"fmt"
	"strings"
)

// Language selects the prompt template.
type Language string

const (
	Chinese Language = "chinese"
	English Language = "english"
)

// DefaultHistoryWindow bounds how many recent turns fold into the next
// prompt.
const DefaultHistoryWindow = 3

// Turn is one question/answer exchange.
type Turn struct {
	Question string
	Answer   string
}

const chineseTemplate = `使用以下上下文信息来回答问题。如果你不知道答案，就说你不知道，不要试图编造答案。

上下文信息:
%s

问题: %s

请提供详细且准确的答案，并在可能的情况下引用相关的文档来源：`

const englishTemplate = `Use the following pieces of context to answer the question. If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context:
%s

Question: %s

Please provide a detailed and accurate answer, citing relevant document sources when possible:`

// buildPrompt assembles the language-specific template around the retrieved
// context and the (possibly history-augmented) question.
func buildPrompt(language Language, contexts []string, question string) string {
	template := chineseTemplate
	if language == English {
		template = englishTemplate
	}
	return fmt.Sprintf(template, strings.Join(contexts, "\n\n"), question)
}

// foldHistory prefixes the question with up to window recent turns. An empty
// history returns the question unchanged.
func foldHistory(language Language, question string, history []Turn, window int) string {
	if len(history) == 0 {
		return question
	}
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}
	var b strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", turn.Question, turn.Answer)
	}
	if language == English {
		return fmt.Sprintf("Based on the following conversation history:\n%s\nCurrent question: %s", b.String(), question)
	}
	return fmt.Sprintf("基于以下对话历史：\n%s\n当前问题：%s", b.String(), question)
}

// apology returns the user-facing soft-failure answer.
func apology(language Language, err error) string {
	if language == English {
		return fmt.Sprintf("Sorry, an error occurred while processing your question: %v", err)
	}
	return fmt.Sprintf("抱歉，处理您的问题时出现错误：%v", err)
}

// clipContent truncates cited chunk content for display.
func clipContent(text string, maxChars int) string {
	chars := []rune(text)
	if len(chars) <= maxChars {
		return text
	}
	return string(chars[:maxChars]) + "..."
}
