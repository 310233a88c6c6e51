// Package extension inspects installed plugins on disk.
package extension

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Files whose presence in a plugin's directory marks it as updated from a
// licensing server rather than the public plugin directory.
var updaterMarkers = []string{
	"edd_mu_updater.php",
	"includes/class-updater.php",
}

// Metadata describes an installed extension as read from its main file.
type Metadata struct {
	// ID is the extension identifier relative to the plugins directory,
	// e.g. "my-plugin/my-plugin.php".
	ID      string
	Slug    string
	Name    string
	URI     string
	Version string
	Author  string
}

// Inspector answers questions about extensions installed under a plugins directory.
type Inspector struct {
	fs  afero.Fs
	dir string
}

func NewInspector(fs afero.Fs, pluginsDir string) *Inspector {
	return &Inspector{fs: fs, dir: pluginsDir}
}

func (i *Inspector) path(rel string) string {
	return filepath.Join(i.dir, filepath.FromSlash(rel))
}

// Exists reports whether the extension's main file is still on disk.
func (i *Inspector) Exists(id string) bool {
	ok, err := afero.Exists(i.fs, i.path(id))
	return err == nil && ok
}

// Updatable reports whether the extension declares itself updatable from an
// external server, either through an updater marker file next to its main
// file or through a truthy "Updateable" header.
func (i *Inspector) Updatable(id string) bool {
	dir := path.Dir(id)
	for _, marker := range updaterMarkers {
		if ok, err := afero.Exists(i.fs, i.path(path.Join(dir, marker))); err == nil && ok {
			return true
		}
	}

	headers, err := i.headers(id)
	if err != nil {
		return false
	}
	return truthy(headers[HeaderUpdateable])
}

// Metadata reads the extension's plugin headers.
func (i *Inspector) Metadata(id string) (Metadata, error) {
	headers, err := i.headers(id)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		ID:      id,
		Slug:    Slug(id),
		Name:    headers[HeaderName],
		URI:     headers[HeaderURI],
		Version: headers[HeaderVersion],
		Author:  headers[HeaderAuthor],
	}, nil
}

func (i *Inspector) headers(id string) (map[string]string, error) {
	f, err := i.fs.Open(i.path(id))
	if err != nil {
		return nil, fmt.Errorf("opening extension %s: %w", id, err)
	}
	defer f.Close()

	headers, err := ReadHeaders(f)
	if err != nil {
		return nil, fmt.Errorf("reading headers of %s: %w", id, err)
	}
	return headers, nil
}

// Slug returns the extension's slug: its main file name without ".php".
func Slug(id string) string {
	return strings.TrimSuffix(path.Base(id), ".php")
}
