package activation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/network/networktest"
)

type fakeInspector struct {
	missing      map[string]bool
	notUpdatable map[string]bool
}

func (f fakeInspector) Exists(id string) bool    { return !f.missing[id] }
func (f fakeInspector) Updatable(id string) bool { return !f.notUpdatable[id] }

func candidateIDs(agg *Aggregation) map[string]network.SiteID {
	out := make(map[string]network.SiteID, len(agg.Candidates))
	for _, c := range agg.Candidates {
		out[c.ExtensionID] = c.Site.ID
	}
	return out
}

func setup(t *testing.T, store *networktest.Store, in Inspector) (*Aggregator, []network.Site) {
	t.Helper()
	dir := network.NewDirectory(store)
	sites, err := dir.ListSites(context.Background(), 1)
	require.NoError(t, err)
	return NewAggregator(dir, in), sites
}

func TestAggregate_FirstSiteWins(t *testing.T) {
	store := networktest.New(1)
	store.AddSite(1, "example.com", "own/own.php")
	store.NetworkWide = []string{"wide/wide.php"}
	store.AddSite(2, "a.example.com", "x/x.php", "y/y.php", "x/x.php")
	store.AddSite(3, "b.example.com", "y/y.php", "z/z.php", "wide/wide.php")

	agg, sites := setup(t, store, fakeInspector{})
	out := agg.Aggregate(context.Background(), NewRun(), sites)

	require.Len(t, out.Candidates, 4)
	assert.Equal(t, []string{"wide/wide.php", "x/x.php", "y/y.php", "z/z.php"}, []string{
		out.Candidates[0].ExtensionID,
		out.Candidates[1].ExtensionID,
		out.Candidates[2].ExtensionID,
		out.Candidates[3].ExtensionID,
	})
	assert.Equal(t, map[string]network.SiteID{
		"wide/wide.php": 1,
		"x/x.php":       2,
		"y/y.php":       2,
		"z/z.php":       3,
	}, candidateIDs(out))

	assert.Equal(t, []string{"own/own.php", "wide/wide.php", "x/x.php", "y/y.php", "z/z.php"}, out.Active)
	assert.Empty(t, out.Skipped)
}

func TestAggregate_Checks(t *testing.T) {
	store := networktest.New(1)
	store.AddSite(1, "example.com")
	store.AddSite(2, "a.example.com", "gone/gone.php", "org/org.php", "done/done.php", "ok/ok.php")
	store.AddSite(3, "b.example.com", "gone/gone.php")

	run := NewRun()
	run.MarkResolved("done/done.php")

	agg, sites := setup(t, store, fakeInspector{
		missing:      map[string]bool{"gone/gone.php": true},
		notUpdatable: map[string]bool{"org/org.php": true},
	})
	out := agg.Aggregate(context.Background(), run, sites)

	assert.Equal(t, map[string]network.SiteID{"ok/ok.php": 2}, candidateIDs(out))

	reasons := make(map[string]string)
	for _, s := range out.Skipped {
		reasons[s.ExtensionID] = s.Reason
	}
	assert.Equal(t, map[string]string{
		"gone/gone.php": SkipMissing,
		"org/org.php":   SkipNotUpdatable,
		"done/done.php": SkipResolved,
	}, reasons)
}

func TestAggregate_UnreachableSiteIsSkipped(t *testing.T) {
	store := networktest.New(1)
	store.AddSite(1, "example.com")
	store.AddSite(2, "broken.example.com", "x/x.php")
	store.AddSite(3, "fine.example.com", "x/x.php")
	store.Fail(2)

	agg, sites := setup(t, store, fakeInspector{})
	out := agg.Aggregate(context.Background(), NewRun(), sites)

	assert.Equal(t, map[string]network.SiteID{"x/x.php": 3}, candidateIDs(out))
	require.Len(t, out.Unreachable, 1)
	assert.True(t, errors.Is(out.Unreachable[0], network.ErrSiteUnreachable))
}

func TestRun(t *testing.T) {
	a, b := NewRun(), NewRun()
	assert.NotEqual(t, a.ID, b.ID)

	assert.False(t, a.Resolved("x/x.php"))
	a.MarkResolved("x/x.php")
	assert.True(t, a.Resolved("x/x.php"))
	assert.False(t, b.Resolved("x/x.php"))
}
