package update

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Information is the full metadata shown on an extension's details screen.
type Information struct {
	Result
	LastUpdated   string                 `json:"last_updated,omitempty"`
	Requires      string                 `json:"requires,omitempty"`
	Tested        string                 `json:"tested,omitempty"`
	Compatibility map[string]interface{} `json:"compatibility,omitempty"`
}

// Information fetches the extension's details. Unlike Check it doesn't
// compare versions: whatever the server knows is returned.
func (c *Client) Information(ctx context.Context, req Request) (*Information, error) {
	res, doc, err := c.request(ctx, "information", req)
	if err != nil {
		return nil, err
	}

	info := &Information{
		Result:      *res,
		LastUpdated: doc.Get("last_updated").String(),
		Requires:    doc.Get("requires").String(),
		Tested:      doc.Get("tested").String(),
	}
	if compat := doc.Get("compatibility"); compat.Exists() {
		decoded, err := decodeNested(compat)
		if err != nil {
			return nil, &RequestError{Op: "information", URL: req.License.APIURL, Err: ErrMalformedResponse}
		}
		info.Compatibility = decoded
	}
	return info, nil
}

// PlainSection returns a section with its markup stripped and whitespace
// collapsed, for terminal output.
func (r Result) PlainSection(name string) string {
	raw, ok := r.Sections[name]
	if !ok || raw == "" {
		return ""
	}
	node, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	doc := goquery.NewDocumentFromNode(node)
	var lines []string
	doc.Find("h1, h2, h3, h4, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "li" {
			text = "- " + text
		}
		lines = append(lines, text)
	})
	if len(lines) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " ")
	}
	return strings.Join(lines, "\n")
}
