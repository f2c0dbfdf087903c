package responder

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextPrefix(t *testing.T) {
	tests := []struct {
		project, file, want string
	}{
		{"Tower", "a.dxf", "Based on your Tower project and a.dxf file, "},
		{"Tower", "", "For your Tower project, "},
		{"", "a.dxf", "Looking at your a.dxf file, "},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContextPrefix(tt.project, tt.file))
	}
}

func TestTemplateResponderUsesCatalog(t *testing.T) {
	c := DefaultCatalog()
	r := NewTemplateResponder(c, rand.New(rand.NewPCG(7, 9)))

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		reply, err := r.Respond(context.Background(), Prompt{Text: "anything", Project: "Tower"})
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(reply.Text, "For your Tower project, "))
		body := strings.TrimPrefix(reply.Text, "For your Tower project, ")
		assert.Contains(t, c.Templates, body)
		assert.False(t, reply.OpenProjectForm)
		seen[body] = true
	}
	assert.Len(t, seen, len(c.Templates), "every template should come up")
}

func TestTemplateResponderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTemplateResponder(DefaultCatalog(), nil).Respond(ctx, Prompt{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeywordResponder(t *testing.T) {
	c := DefaultCatalog()
	r := NewKeywordResponder(c)

	tests := []struct {
		name     string
		text     string
		wantForm bool
		contains string
	}{
		{"create trigger", "Please CREATE PROJECT now", true, "project details form"},
		{"save trigger wins over keyword", "save project for hvac", true, "project details form"},
		{"hvac", "We need Ventilation checks", false, "HVAC project"},
		{"electrical", "lighting layout", false, "electrical projects"},
		{"mechanical", "piping runs", false, "mechanical systems"},
		{"fallback", "a hospital wing", false, "Thank you for that information"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := r.Respond(context.Background(), Prompt{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.wantForm, reply.OpenProjectForm)
			assert.Contains(t, reply.Text, tt.contains)
		})
	}
}

func TestCatalogMessages(t *testing.T) {
	c := DefaultCatalog()

	assert.Contains(t, c.Greeting("general-chat"), "AI Design Assistant")
	assert.Contains(t, c.Greeting("project-setup"), "Let's create a new project")
	assert.Empty(t, c.Greeting("file-upload"))

	ack := c.Acknowledgement("cad", 3)
	assert.True(t, strings.HasPrefix(ack, "Perfect! I've received your 3 CAD file(s)."))
	assert.Empty(t, c.Acknowledgement("building-code", 1))

	assert.Contains(t, c.ProjectCreatedMessage("project-setup", "Tower"), `Project "Tower" has been created`)
	assert.Contains(t, c.ProjectCreatedMessage("unknown", "Tower"), `New project "Tower"`)
	assert.Contains(t, c.ProjectAttachedMessage("Tower"), `Project "Tower" has been added`)
}

func TestParseCatalogRejectsIncomplete(t *testing.T) {
	_, err := ParseCatalog([]byte("templates: []\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("templates: [a]\nkeywords:\n  fallback: f\n  rules:\n    - keywords: []\n      reply: r\n"))
	assert.Error(t, err)

	c, err := ParseCatalog([]byte("templates: [a]\nkeywords:\n  fallback: f\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, c.Templates)
}
