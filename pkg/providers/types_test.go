package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeToolCallFillsNameAndType(t *testing.T) {
	tc := ToolCall{
		ID:       "call_1",
		Function: &FunctionCall{Name: "get_hotels", Arguments: `{"city":"Lisbon"}`},
	}

	normalized := NormalizeToolCall(tc)

	assert.Equal(t, "get_hotels", normalized.Name)
	assert.Equal(t, "function", normalized.Type)
	assert.Equal(t, "call_1", normalized.ID)
}

func TestNormalizeToolCallKeepsExistingFields(t *testing.T) {
	tc := ToolCall{
		ID:   "call_2",
		Type: "function",
		Name: "search_image",
	}

	normalized := NormalizeToolCall(tc)

	assert.Equal(t, "search_image", normalized.Name)
	assert.Equal(t, "function", normalized.Type)
}
