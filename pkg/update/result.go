package update

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/elliotchance/phpserialize"
	"github.com/tidwall/gjson"

	"github.com/sw33tLie/msupdater/pkg/network"
)

var (
	// ErrRequest matches every failure to obtain usable metadata from an
	// update server. Callers keep whatever they had cached before.
	ErrRequest = errors.New("update request failed")
	// ErrMalformedResponse is a response the server sent that lacks a field
	// the check depends on, or isn't a JSON object at all.
	ErrMalformedResponse = errors.New("malformed update response")
	// ErrNoUpdate is returned, along with the metadata, when the server
	// answered but its version isn't newer than the installed one.
	ErrNoUpdate = errors.New("no newer version available")
)

// RequestError describes a failed update-server request.
type RequestError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is makes every RequestError match ErrRequest.
func (e *RequestError) Is(target error) bool { return target == ErrRequest }

// Result is the update metadata for one extension.
type Result struct {
	ExtensionID string            `json:"extension_id"`
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	Author      string            `json:"author,omitempty"`
	Version     string            `json:"version,omitempty"`
	NewVersion  string            `json:"new_version"`
	URL         string            `json:"url,omitempty"`
	Homepage    string            `json:"homepage,omitempty"`
	Package     string            `json:"package,omitempty"`
	Sections    map[string]string `json:"sections,omitempty"`
	// SiteID is the site whose license authorized the request.
	SiteID network.SiteID `json:"site_id"`
}

// HasPackage reports whether a downloadable build was offered.
func (r Result) HasPackage() bool { return r.Package != "" }

// SectionNames returns the section names in a stable order.
func (r Result) SectionNames() []string {
	names := make([]string, 0, len(r.Sections))
	for name := range r.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseResult decodes the body of a get_version response.
func parseResult(body string) (*Result, gjson.Result, error) {
	if !gjson.Valid(body) {
		return nil, gjson.Result{}, fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)
	}
	doc := gjson.Parse(body)
	if !doc.IsObject() {
		return nil, doc, fmt.Errorf("%w: expected an object, got %s", ErrMalformedResponse, doc.Raw)
	}

	newVersion := doc.Get("new_version")
	if !newVersion.Exists() || strings.TrimSpace(newVersion.String()) == "" {
		return nil, doc, fmt.Errorf("%w: missing new_version", ErrMalformedResponse)
	}

	res := &Result{
		Slug:       doc.Get("slug").String(),
		Name:       doc.Get("name").String(),
		Author:     doc.Get("author").String(),
		Version:    doc.Get("version").String(),
		NewVersion: strings.TrimSpace(newVersion.String()),
		URL:        doc.Get("url").String(),
		Homepage:   doc.Get("homepage").String(),
		Package:    doc.Get("package").String(),
	}

	if sections := doc.Get("sections"); sections.Exists() {
		decoded, err := decodeNested(sections)
		if err != nil {
			return nil, doc, fmt.Errorf("%w: sections: %v", ErrMalformedResponse, err)
		}
		res.Sections = make(map[string]string, len(decoded))
		for k, v := range decoded {
			// Sections are HTML fragments; nested values aren't.
			if s, ok := v.(string); ok {
				res.Sections[k] = s
			}
		}
	}
	return res, doc, nil
}

// decodeNested returns v as a map. Upstream servers double-encode some
// fields: the value may be an object, a JSON document inside a string, or a
// PHP-serialized array inside a string. A plain string is kept as a single
// "description" entry.
func decodeNested(v gjson.Result) (map[string]interface{}, error) {
	switch {
	case v.IsObject():
		return objectMap(v), nil
	case v.Type == gjson.Null || (v.Type == gjson.False):
		return nil, nil
	case v.Type != gjson.String:
		return nil, fmt.Errorf("unexpected %s value", v.Type)
	}

	raw := strings.TrimSpace(v.String())
	switch {
	case raw == "":
		return nil, nil
	case strings.HasPrefix(raw, "{"):
		if !gjson.Valid(raw) {
			return nil, errors.New("invalid nested JSON")
		}
		return objectMap(gjson.Parse(raw)), nil
	case strings.HasPrefix(raw, "a:"):
		arr, err := phpserialize.UnmarshalAssociativeArray([]byte(raw))
		if err != nil {
			return nil, err
		}
		return phpMap(arr), nil
	}
	return map[string]interface{}{"description": raw}, nil
}

func objectMap(v gjson.Result) map[string]interface{} {
	out := make(map[string]interface{})
	v.ForEach(func(key, value gjson.Result) bool {
		if value.IsObject() {
			out[key.String()] = objectMap(value)
		} else {
			out[key.String()] = value.String()
		}
		return true
	})
	return out
}

func phpMap(in map[interface{}]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		if nested, ok := v.(map[interface{}]interface{}); ok {
			out[fmt.Sprint(k)] = phpMap(nested)
			continue
		}
		out[fmt.Sprint(k)] = v
	}
	return out
}
