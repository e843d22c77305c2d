package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	fields := map[string]string{
		"first_name": "Ann",
		"last_name":  "Ahmed",
		"company":    "Acme",
		"email":      "ann@example.com",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"empty template", "", ""},
		{"no placeholders", "Hello there", "Hello there"},
		{"single placeholder", "Hi {{first_name}}", "Hi Ann"},
		{"repeated placeholder", "{{first_name}} {{first_name}}", "Ann Ann"},
		{"multiple fields", "{{first_name}} {{last_name}} at {{company}}", "Ann Ahmed at Acme"},
		{"unknown placeholder left verbatim", "Hi {{nickname}}", "Hi {{nickname}}"},
		{"unclosed braces left verbatim", "Hi {{first_name", "Hi {{first_name"},
		{"adjacent placeholders", "{{first_name}}{{last_name}}", "AnnAhmed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderTemplate(tt.template, fields))
		})
	}
}

func TestRenderTemplateNotRecursive(t *testing.T) {
	// A value containing placeholder syntax must come out literally, not be
	// expanded a second time.
	fields := map[string]string{
		"first_name": "{{last_name}}",
		"last_name":  "Ahmed",
	}
	assert.Equal(t, "Hi {{last_name}}", RenderTemplate("Hi {{first_name}}", fields))
}

func TestRenderTemplateEmptyValue(t *testing.T) {
	fields := map[string]string{"company": ""}
	assert.Equal(t, "Works at ", RenderTemplate("Works at {{company}}", fields))
}
