package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/careguide/careguide-cli/internal/domain"
)

type RenderOptions struct {
	Title    string
	ShowMeta bool
}

func renderView(messages []domain.Message, opts RenderOptions, s styles) string {
	title := opts.Title
	if title == "" {
		title = "Conversation"
	}

	lines := []string{
		s.title.Render(title),
		s.header.Render(fmt.Sprintf("messages: %d", len(messages))),
	}

	if len(messages) == 0 {
		lines = append(lines, s.empty.Render("No messages yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, message := range messages {
		lines = append(lines, s.section.Render(renderMessage(message, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderMessage(message domain.Message, opts RenderOptions, s styles) string {
	parts := []string{renderHeader(message, s)}

	for _, section := range strings.Split(message.Content, domain.SectionSeparator) {
		if len(parts) > 1 {
			parts = append(parts, s.rule.Render(strings.Repeat("─", 24)))
		}
		parts = append(parts, s.body.Render(section))
	}

	if opts.ShowMeta {
		if meta := metaLine(message); meta != "" {
			parts = append(parts, s.meta.Render(meta))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderHeader(message domain.Message, s styles) string {
	label := roleLabel(message.Role)
	styled := s.assistant.Render(label)
	if message.Role == domain.RoleUser {
		styled = s.user.Render(label)
	}

	header := styled
	if !message.Timestamp.IsZero() {
		header += " " + s.meta.Render(message.Timestamp.Local().Format(time.Kitchen))
	}
	if message.IsEmergency {
		header += " " + s.emergency.Render("[seek medical help]")
	}

	return header
}

func roleLabel(role domain.Role) string {
	switch role {
	case domain.RoleUser:
		return "You"
	case domain.RoleAssistant:
		return "CareGuide"
	default:
		return string(role)
	}
}

func metaLine(message domain.Message) string {
	parts := make([]string, 0, 3)
	if len(message.Agents) > 0 {
		parts = append(parts, "agents: "+strings.Join(message.Agents, ", "))
	}
	if len(message.Intents) > 0 {
		parts = append(parts, "intents: "+strings.Join(message.Intents, ", "))
	}
	if message.Confidence > 0 {
		parts = append(parts, fmt.Sprintf("confidence: %.0f%%", message.Confidence*100))
	}

	return strings.Join(parts, "  ")
}
