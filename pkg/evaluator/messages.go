package evaluator

import (
	"fmt"
	"strings"

	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/entity"
	"cv-evaluator-be/pkg/llm"
)

// BuildMessages returns the system context, the prior history in order and
// finally the new user message.
func BuildMessages(session *entity.CvSession, userMessage string) []llm.Message {
	messages := make([]llm.Message, 0, len(session.ChatHistory)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: systemContent(session),
	})

	for _, turn := range session.ChatHistory {
		role := llm.RoleUser
		if turn.Role == entity.ChatRoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
}

func systemContent(s *entity.CvSession) string {
	var b strings.Builder
	b.WriteString(constant.EvaluatorSystemPrompt)
	b.WriteString("\n\n---\n\nThe user has uploaded a CV with the following content:\n\n")
	fmt.Fprintf(&b, "**Filename:** %s\n**Pages:** %d\n\n", s.CvFilename, s.NumPages)
	fmt.Fprintf(&b, "**CV Content:**\n%s\n\n", s.CvText)
	fmt.Fprintf(&b, "**Extracted Sections:**\n%s\n\n", FormatSections(s.CvSections))
	b.WriteString("---\n\nPlease help the user with their CV-related questions.")
	return b.String()
}

// FormatSections renders the present sections as "**Name:**\nbody" blocks.
func FormatSections(sections entity.CvSections) string {
	named := []struct {
		title string
		body  string
	}{
		{"Contact", sections.Contact},
		{"Summary", sections.Summary},
		{"Experience", sections.Experience},
		{"Education", sections.Education},
		{"Skills", sections.Skills},
	}

	var parts []string
	for _, n := range named {
		if n.body != "" {
			parts = append(parts, fmt.Sprintf("**%s:**\n%s", n.title, n.body))
		}
	}
	if len(parts) == 0 {
		return constant.NoSectionsDetected
	}
	return strings.Join(parts, "\n\n")
}
