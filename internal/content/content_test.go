package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ashram/pkg/domain-errors"
)

func TestLibrary_RendersEmbeddedPages(t *testing.T) {
	library := NewLibrary("")

	page, err := library.Page("home", "Welcome")
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Welcome</title>")
	assert.Contains(t, string(page), "<h1")

	// Second read comes from cache and stays identical.
	again, err := library.Page("home", "Welcome")
	require.NoError(t, err)
	assert.Equal(t, page, again)
}

func TestLibrary_UnknownSlug(t *testing.T) {
	library := NewLibrary("")
	_, err := library.Page("no-such-page", "Nope")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestLibrary_DirectoryOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.md"), []byte("# Custom About\n\nOverridden copy."), 0o644))

	library := NewLibrary(dir)

	page, err := library.Page("about", "About")
	require.NoError(t, err)
	assert.Contains(t, string(page), "Custom About")

	// Slugs without an override fall back to the embedded page.
	page, err = library.Page("events", "Events")
	require.NoError(t, err)
	assert.Contains(t, string(page), "Events")
}
