package extension

import (
	"io"
	"regexp"
	"strings"
)

// Only the head of a plugin file is scanned for headers.
const headerScanSize = 8 * 1024

// Header names understood by ReadHeaders.
const (
	HeaderName       = "Plugin Name"
	HeaderURI        = "Plugin URI"
	HeaderVersion    = "Version"
	HeaderAuthor     = "Author"
	HeaderUpdateable = "Updateable"
)

var knownHeaders = []string{HeaderName, HeaderURI, HeaderVersion, HeaderAuthor, HeaderUpdateable}

var headerPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(knownHeaders))
	for _, h := range knownHeaders {
		m[h] = regexp.MustCompile(`(?mi)^(?:[ \t]*<\?php)?[ \t/*#@]*` + regexp.QuoteMeta(h) + `:(.*)$`)
	}
	return m
}()

var commentTail = regexp.MustCompile(`\s*(?:\*/|\?>).*`)

// ReadHeaders extracts the known plugin headers from the comment block at the
// top of a plugin's main file. Missing headers map to "".
func ReadHeaders(r io.Reader) (map[string]string, error) {
	buf, err := io.ReadAll(io.LimitReader(r, headerScanSize))
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(buf), "\r", "\n")

	headers := make(map[string]string, len(knownHeaders))
	for _, h := range knownHeaders {
		m := headerPatterns[h].FindStringSubmatch(text)
		if m == nil {
			headers[h] = ""
			continue
		}
		headers[h] = strings.TrimSpace(commentTail.ReplaceAllString(m[1], ""))
	}
	return headers, nil
}

// truthy mirrors a PHP (bool) cast of a header string.
func truthy(v string) bool {
	return v != "" && v != "0"
}
