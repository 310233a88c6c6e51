package extension

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHeader = `<?php
/**
 * Plugin Name: Widget Pro
 * Plugin URI: https://store.example.com
 * Description: Adds widgets.
 * Version: 2.4.1
 * Author: Example Co */
`

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
}

func TestReadHeaders(t *testing.T) {
	h, err := ReadHeaders(strings.NewReader(sampleHeader))
	require.NoError(t, err)

	assert.Equal(t, "Widget Pro", h[HeaderName])
	assert.Equal(t, "https://store.example.com", h[HeaderURI])
	assert.Equal(t, "2.4.1", h[HeaderVersion])
	assert.Equal(t, "Example Co", h[HeaderAuthor])
	assert.Equal(t, "", h[HeaderUpdateable])
}

func TestReadHeaders_CaseAndCarriageReturns(t *testing.T) {
	src := "<?php\r# plugin name: Legacy\r# UPDATEABLE: yes ?>\r"
	h, err := ReadHeaders(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "Legacy", h[HeaderName])
	assert.Equal(t, "yes", h[HeaderUpdateable])
}

func TestInspector(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/plugins/widget-pro/widget-pro.php", sampleHeader)
	writeFile(t, fs, "/plugins/widget-pro/edd_mu_updater.php", "<?php")
	writeFile(t, fs, "/plugins/classy/classy.php", "<?php\n/* Plugin Name: Classy */")
	writeFile(t, fs, "/plugins/classy/includes/class-updater.php", "<?php")
	writeFile(t, fs, "/plugins/flagged/flagged.php", "<?php\n/*\nPlugin Name: Flagged\nUpdateable: 1\n*/")
	writeFile(t, fs, "/plugins/off/off.php", "<?php\n/*\nPlugin Name: Off\nUpdateable: 0\n*/")
	writeFile(t, fs, "/plugins/plain/plain.php", "<?php\n/* Plugin Name: Plain */")

	in := NewInspector(fs, "/plugins")

	assert.True(t, in.Exists("widget-pro/widget-pro.php"))
	assert.False(t, in.Exists("missing/missing.php"))

	tests := []struct {
		id   string
		want bool
	}{
		{"widget-pro/widget-pro.php", true},
		{"classy/classy.php", true},
		{"flagged/flagged.php", true},
		{"off/off.php", false},
		{"plain/plain.php", false},
		{"missing/missing.php", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, in.Updatable(tc.id), tc.id)
	}

	meta, err := in.Metadata("widget-pro/widget-pro.php")
	require.NoError(t, err)
	assert.Equal(t, Metadata{
		ID:      "widget-pro/widget-pro.php",
		Slug:    "widget-pro",
		Name:    "Widget Pro",
		URI:     "https://store.example.com",
		Version: "2.4.1",
		Author:  "Example Co",
	}, meta)

	_, err = in.Metadata("missing/missing.php")
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "widget-pro", Slug("widget-pro/widget-pro.php"))
	assert.Equal(t, "hello", Slug("hello.php"))
}
