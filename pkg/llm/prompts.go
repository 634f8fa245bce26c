package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

func buildTranslationPrompt(text, target, source string) string {
	var b strings.Builder
	if source == "" || strings.EqualFold(source, autoLanguage) {
		fmt.Fprintf(&b, "Translate the following text to %s.", target)
	} else {
		fmt.Fprintf(&b, "Translate the following text from %s to %s.", source, target)
	}
	b.WriteString(" Return only the translated text, without notes or explanations.\n\n")
	b.WriteString("Text:\n")
	b.WriteString(text)
	return b.String()
}

func buildCodePrompt(description, language string) string {
	var b strings.Builder
	if language == genericLanguage {
		b.WriteString("Generate code for the following requirement.")
	} else {
		fmt.Fprintf(&b, "Generate %s code for the following requirement.", language)
	}
	b.WriteString(" Return only the code in a single fenced code block, with comments where they help.\n\n")
	b.WriteString("Requirement:\n")
	b.WriteString(description)
	return b.String()
}

func buildAgentPrompt(role, task string, context map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are acting as %s. Stay in this role for the whole answer.\n\n", role)
	writeContext(&b, context)
	b.WriteString("Task:\n")
	b.WriteString(task)
	return b.String()
}

func buildExplainPrompt(code, language string) string {
	var b strings.Builder
	if language == autoLanguage {
		b.WriteString("Explain what the following code does.")
	} else {
		fmt.Fprintf(&b, "Explain what the following %s code does.", language)
	}
	b.WriteString(" Describe its purpose, walk through the important parts and point out potential issues.\n\n")
	b.WriteString("```")
	if language != autoLanguage {
		b.WriteString(strings.ToLower(language))
	}
	b.WriteString("\n")
	b.WriteString(code)
	b.WriteString("\n```")
	return b.String()
}

func buildSummaryPrompt(text string, maxLength int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the following text in no more than %d characters.", maxLength)
	b.WriteString(" Keep the key points and return only the summary.\n\n")
	b.WriteString("Text:\n")
	b.WriteString(text)
	return b.String()
}

func buildMathPrompt(problem string) string {
	var b strings.Builder
	b.WriteString("Solve the following math problem. Show your work as numbered steps ")
	b.WriteString("(\"Step 1:\", \"Step 2:\", ...) and finish with a line starting with \"Answer:\".\n\n")
	b.WriteString("Problem:\n")
	b.WriteString(problem)
	return b.String()
}

func buildReasoningPrompt(question string, context map[string]any) string {
	var b strings.Builder
	b.WriteString("Reason through the following question step by step. Lay out the relevant facts, ")
	b.WriteString("weigh the alternatives and end with a sentence starting with \"Therefore,\" that states your conclusion.\n\n")
	writeContext(&b, context)
	b.WriteString("Question:\n")
	b.WriteString(question)
	return b.String()
}

// writeContext renders context as an indented JSON block; nothing is written
// for an empty map.
func writeContext(b *strings.Builder, context map[string]any) {
	if len(context) == 0 {
		return
	}
	data, err := json.MarshalIndent(context, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf("%v", context))
	}
	b.WriteString("Context:\n```json\n")
	b.Write(data)
	b.WriteString("\n```\n\n")
}
