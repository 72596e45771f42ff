package presets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcome(t *testing.T) {
	w := Welcome()
	require.True(t, strings.HasPrefix(w, "<!DOCTYPE html>"))
	assert.True(t, strings.HasSuffix(w, "</html>\n") || strings.HasSuffix(w, "</html>"))
	assert.Contains(t, w, "cdn.tailwindcss.com")
	assert.True(t, IsWelcome(w))
	assert.False(t, IsWelcome(w+" "))
}

func TestPrior(t *testing.T) {
	assert.Nil(t, Prior(Welcome()))

	edited := Welcome() + "<!-- edited -->"
	p := Prior(edited)
	require.NotNil(t, p)
	assert.Equal(t, edited, *p)

	// An empty document is still a modification of something.
	require.NotNil(t, Prior(""))
}

func TestFind(t *testing.T) {
	assert.Len(t, Find(""), 3)

	got := Find("price")
	require.NotEmpty(t, got)
	assert.Equal(t, "Pricing Table", got[0].Name)

	got = Find("lgn")
	require.NotEmpty(t, got)
	assert.Equal(t, "Login Form", got[0].Name)

	assert.Empty(t, Find("zzz"))
}

func TestLookup(t *testing.T) {
	p, ok := Lookup("port")
	require.True(t, ok)
	assert.Equal(t, "A minimalistic personal portfolio with a dark theme", p.Prompt)

	_, ok = Lookup("")
	assert.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0].Name = "changed"
	assert.Equal(t, "Portfolio", All()[0].Name)
}
