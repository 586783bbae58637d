package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/tonebuddy/internal/models"
)

func TestSystemPrompt_Vocabulary(t *testing.T) {
	for _, tone := range models.Tones {
		assert.Contains(t, SystemPrompt, string(tone))
	}
	for _, f := range models.Formalities {
		assert.Contains(t, SystemPrompt, string(f))
	}
	for _, c := range models.Clarities {
		assert.Contains(t, SystemPrompt, string(c))
	}
	for _, tag := range models.IssueTags {
		assert.Contains(t, SystemPrompt, string(tag))
	}

	assert.Contains(t, SystemPrompt, "2–4 short explanations")
	assert.Contains(t, SystemPrompt, "3–5 actionable suggestions")
	assert.Contains(t, SystemPrompt, "softer, shorter, friendlier, more_formal")
	assert.Contains(t, SystemPrompt, "same language as the user's input")
	assert.Contains(t, SystemPrompt, "Do not include markdown fences")
}

func TestSchema_IsValidJSON(t *testing.T) {
	var shape map[string]any
	require.NoError(t, json.Unmarshal([]byte(Schema), &shape))

	for _, key := range []string{"tone", "formality", "clarity", "issues", "explanations", "suggestions", "rewrites"} {
		assert.Contains(t, shape, key)
	}

	rewrites, ok := shape["rewrites"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, rewrites, 4)
	assert.Contains(t, rewrites, "more_formal")
}

func TestBuildUserPrompt(t *testing.T) {
	text := "Срочно пришлите отчёт. Вы опять затянули сроки."
	p := BuildUserPrompt(text)

	assert.Contains(t, p, "<message>\n"+text+"\n</message>")
	assert.Contains(t, p, Schema)
	assert.True(t, strings.Index(p, "<message>") < strings.Index(p, "Schema:"))
}

func TestBuildUserPrompt_KeepsPercentSigns(t *testing.T) {
	p := BuildUserPrompt("discount 50%s off %d")
	assert.Contains(t, p, "discount 50%s off %d")
}
