package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_IncludesMessageHintAndCode(t *testing.T) {
	// Given: an error with detail and suggestion
	err := New(ErrCodeBuildNotFound, "Could not find build file", nil).
		WithDetail("path", "build/plugin-test.js").
		WithSuggestion("Run the build first")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: all parts are present
	assert.Contains(t, result, "Error: Could not find build file")
	assert.Contains(t, result, "path: build/plugin-test.js")
	assert.Contains(t, result, "Hint: Run the build first")
	assert.Contains(t, result, "Code: ERR_203_BUILD_NOT_FOUND")
}

func TestFormatForCLI_StandardError(t *testing.T) {
	result := FormatForCLI(errors.New("something went wrong"))

	assert.Contains(t, result, "something went wrong")
	assert.Contains(t, result, ErrCodeInternal)
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatJSON_ContainsFields(t *testing.T) {
	// Given: an error with a cause
	err := New(ErrCodeUnexpectedStatus, "platform returned 500", errors.New("boom"))

	// When: formatting as JSON
	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	// Then: fields decode back
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeUnexpectedStatus, decoded["code"])
	assert.Equal(t, "PLATFORM", decoded["category"])
	assert.Equal(t, "boom", decoded["cause"])
}

func TestFormatForLog_PluginError(t *testing.T) {
	err := New(ErrCodeDuplicatePath, "duplicate", errors.New("cause")).
		WithDetail("version", "1.0.0")

	fields := FormatForLog(err)

	assert.Equal(t, ErrCodeDuplicatePath, fields["error_code"])
	assert.Equal(t, "cause", fields["cause"])
	assert.Equal(t, "1.0.0", fields["detail_version"])
}

func TestFormatForLog_StandardAndNil(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))
	assert.Equal(t, map[string]any{"error": "plain"}, FormatForLog(errors.New("plain")))
}
