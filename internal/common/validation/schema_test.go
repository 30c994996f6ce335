package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["type", "targetRole"],
  "properties": {
    "type": {"type": "string", "minLength": 1},
    "targetRole": {"type": "string", "enum": ["ADMIN", "FRANCHISEE"]},
    "email": {
      "type": "object",
      "properties": {
        "recipients": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}`

func TestSchema_Valid(t *testing.T) {
	s := MustCompile(testSchema)

	res := s.Validate(map[string]interface{}{
		"type":       "ORDER_CREATED",
		"targetRole": "ADMIN",
		"email":      map[string]interface{}{"recipients": []interface{}{"ops@x.com"}},
	})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestSchema_ReportsFields(t *testing.T) {
	s := MustCompile(testSchema)

	res := s.Validate(map[string]interface{}{
		"targetRole": "OWNER",
		"email":      map[string]interface{}{"recipients": []interface{}{42}},
	})
	require.False(t, res.Valid)

	assert.True(t, res.HasErrors("type"))
	assert.True(t, res.HasErrors("targetRole"))
	assert.True(t, res.HasErrors("email"))
	assert.Len(t, res.GetErrorMessages(), len(res.Errors))

	codes := map[string]string{}
	for _, e := range res.Errors {
		codes[e.Field] = e.Code
	}
	assert.Equal(t, "REQUIRED", codes["type"])
	assert.Equal(t, "ENUM", codes["targetRole"])
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile(`not json`) })
}
