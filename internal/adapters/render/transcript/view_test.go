package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careguide/careguide-cli/internal/domain"
)

func TestRenderConversation(t *testing.T) {
	t.Parallel()

	sent := time.Date(2026, 8, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]domain.Message{
		{ID: "m-1", Role: domain.RoleUser, Content: "can I eat bananas?", Timestamp: sent},
		{
			ID:         "m-2",
			Role:       domain.RoleAssistant,
			Content:    "Bananas are high in potassium.",
			Timestamp:  sent.Add(2 * time.Second),
			Agents:     []string{"nutrition"},
			Confidence: 0.9,
		},
	}, RenderOptions{Title: "Diet questions", ShowMeta: true})

	require.NoError(t, err)
	assert.Contains(t, output, "Diet questions")
	assert.Contains(t, output, "messages: 2")
	assert.Contains(t, output, "You")
	assert.Contains(t, output, "CareGuide")
	assert.Contains(t, output, "can I eat bananas?")
	assert.Contains(t, output, "Bananas are high in potassium.")
	assert.Contains(t, output, "agents: nutrition")
	assert.Contains(t, output, "confidence: 90%")
}

func TestRenderEmptyConversation(t *testing.T) {
	t.Parallel()

	output, err := Render(nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "Conversation")
	assert.Contains(t, output, "No messages yet.")
}

func TestRenderSplitsSectionsOnSeparator(t *testing.T) {
	t.Parallel()

	output, err := Render([]domain.Message{
		{
			ID:      "m-1",
			Role:    domain.RoleAssistant,
			Content: "first section" + domain.SectionSeparator + "second section",
		},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "first section")
	assert.Contains(t, output, "second section")
	assert.NotContains(t, output, "---")
}

func TestRenderEmergencyFlag(t *testing.T) {
	t.Parallel()

	output, err := Render([]domain.Message{
		{
			ID:          "m-1",
			Role:        domain.RoleAssistant,
			Content:     "Go to the emergency department now.",
			IsEmergency: true,
		},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "[seek medical help]")
}
