package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultContent(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "aquoric_", s.Profile.Handle)
	assert.Len(t, s.Skills, 6)
	assert.Len(t, s.Projects, 2)
	assert.Len(t, s.Social, 3)
	require.Len(t, s.Audio, 2)
	assert.Contains(t, s.Audio[0], "archive.org/download")
}

func TestParseRejectsMissingField(t *testing.T) {
	raw := []byte(`
profile:
  handle: someone
skills:
  - title: Go
`)
	_, err := Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsUnknownField(t *testing.T) {
	raw := []byte(`
profile:
  handle: someone
  hobby: pool
`)
	_, err := Parse(raw)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsEmptyHandle(t *testing.T) {
	_, err := Parse([]byte("skills: []\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown("I'm **aquoric_**\n<script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<strong>aquoric_</strong>")
	assert.NotContains(t, string(out), "<script>")
}

func TestSetProse(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	require.NoError(t, s.SetProse("about *me*", "Dev • Python"))
	assert.Contains(t, string(s.About), "<em>me</em>")
	assert.Contains(t, string(s.Tagline), "Dev • Python")
}
