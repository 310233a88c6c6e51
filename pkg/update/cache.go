package update

import "time"

// Cache is the host's short-lived record of available updates, keyed by
// extension id. The host owns its persistence; the checker only reads it
// and injects results into it.
type Cache struct {
	LastChecked time.Time          `json:"last_checked"`
	Checked     map[string]string  `json:"checked,omitempty"`
	Response    map[string]*Result `json:"response,omitempty"`
}

func NewCache() *Cache {
	return &Cache{Checked: make(map[string]string), Response: make(map[string]*Result)}
}

// Get returns the cached update for ext, if any.
func (c *Cache) Get(ext string) (*Result, bool) {
	if c == nil || c.Response == nil {
		return nil, false
	}
	r, ok := c.Response[ext]
	return r, ok
}

// HasPackage reports whether ext already has a downloadable update cached.
func (c *Cache) HasPackage(ext string) bool {
	r, ok := c.Get(ext)
	return ok && r.HasPackage()
}

// Inject stores res for its extension. An entry that already carries a
// package is only replaced by a strictly newer version. It reports whether
// the cache changed.
func (c *Cache) Inject(res *Result) bool {
	if res == nil || res.ExtensionID == "" {
		return false
	}
	if c.Response == nil {
		c.Response = make(map[string]*Result)
	}
	if old, ok := c.Response[res.ExtensionID]; ok && old.HasPackage() && !Newer(res.NewVersion, old.NewVersion) {
		return false
	}
	c.Response[res.ExtensionID] = res
	return true
}

// Remove drops the cached update for ext.
func (c *Cache) Remove(ext string) {
	if c == nil {
		return
	}
	delete(c.Response, ext)
}

// MarkChecked records the installed version that was checked for ext.
func (c *Cache) MarkChecked(ext, installed string, at time.Time) {
	if c.Checked == nil {
		c.Checked = make(map[string]string)
	}
	c.Checked[ext] = installed
	c.LastChecked = at
}
