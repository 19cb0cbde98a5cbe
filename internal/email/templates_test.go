package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateManager_RenderVerificationCode(t *testing.T) {
	tm, err := NewTemplateManager()
	require.NoError(t, err)

	html, err := tm.Render("verification_code", TemplateData{
		"Name":       "Alice",
		"Code":       "042317",
		"Reason":     "login",
		"TTLMinutes": 10,
	})
	require.NoError(t, err)

	assert.Contains(t, html, "042317")
	assert.Contains(t, html, "Alice")
	assert.Contains(t, html, "10 minutes")
}

func TestTemplateManager_UnknownTemplate(t *testing.T) {
	tm, err := NewTemplateManager()
	require.NoError(t, err)

	_, err = tm.Render("no_such_template", nil)
	assert.Error(t, err)
}

func TestTemplateManager_AddTemplate(t *testing.T) {
	tm, err := NewTemplateManager()
	require.NoError(t, err)

	require.NoError(t, tm.AddTemplate("greeting", `Hello, {{.Name}}!`))

	out, err := tm.Render("greeting", TemplateData{"Name": "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Bob!", out)
}
