package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"email"},
		Properties: map[string]Property{
			"email": {Type: "string", Format: "email"},
			"name":  {Type: "string", MaxLength: IntPtr(10)},
			"tags":  {Type: "array", Items: &Property{Type: "string"}},
		},
	}
}

func TestValidateJSON_Valid(t *testing.T) {
	result, err := ValidateJSON([]byte(`{"email":"jane@example.com","name":"Jane","tags":["a","b"]}`), testSchema())
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateJSON_MissingRequired(t *testing.T) {
	result, err := ValidateJSON([]byte(`{"name":"Jane"}`), testSchema())
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.GetErrorMessages())
	assert.Contains(t, result.GetErrorMessages()[0], "email")
}

func TestValidateJSON_WrongType(t *testing.T) {
	result, err := ValidateJSON([]byte(`{"email":"jane@example.com","tags":"not-an-array"}`), testSchema())
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidateJSON_MalformedDocument(t *testing.T) {
	_, err := ValidateJSON([]byte(`{"email":`), testSchema())
	assert.Error(t, err)
}
