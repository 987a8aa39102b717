package catalog

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"abc-123.yaml": {Data: []byte(`
title: Route Planner
summary: Plans routes.
tags: [go, maps]
year: 2023
featured: true
updated: 2024-05-01
`)},
		"weather.yml": {Data: []byte(`
slug: weather-station
title: Weather Station
tags: [hardware]
year: 2021
`)},
		"blog.yaml": {Data: []byte(`
title: Blog Engine
tags: [go]
year: 2023
`)},
		"README.md":        {Data: []byte("# not a project")},
		".draft.yaml":      {Data: []byte("title: Draft")},
		"archive/old.yaml": {Data: []byte("title: Old")},
	}
}

func slugs(projects []Project) []string {
	var out []string
	for _, p := range projects {
		out = append(out, p.Slug)
	}
	return out
}

func TestLoad(t *testing.T) {
	c, err := Load(testFS())
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	// newest first, then by title
	require.Equal(t, []string{"blog", "abc-123", "weather-station"}, slugs(c.List()))

	p, ok := c.Get("abc-123")
	require.True(t, ok)
	want := Project{
		Slug:     "abc-123",
		Title:    "Route Planner",
		Summary:  "Plans routes.",
		Tags:     []string{"go", "maps"},
		Year:     2023,
		Featured: true,
		Updated:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}

	_, ok = c.Get("weather")
	require.False(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		wantErr error
	}{
		{"invalid slug", fstest.MapFS{"Bad_Slug.yaml": {Data: []byte("title: X")}}, ErrInvalidProject},
		{"missing title", fstest.MapFS{"x.yaml": {Data: []byte("year: 2020")}}, ErrInvalidProject},
		{"duplicate slug", fstest.MapFS{
			"a.yaml": {Data: []byte("slug: same\ntitle: A")},
			"b.yaml": {Data: []byte("slug: same\ntitle: B")},
		}, ErrDuplicateSlug},
		{"malformed yaml", fstest.MapFS{"x.yaml": {Data: []byte("title: [unclosed")}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.fsys)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCatalog_Query(t *testing.T) {
	c, err := Load(testFS())
	require.NoError(t, err)

	tests := []struct {
		expression string
		want       []string
	}{
		{"Featured", []string{"abc-123"}},
		{`"go" in Tags`, []string{"blog", "abc-123"}},
		{"Year >= 2022 && !Featured", []string{"blog"}},
		{"Year < 2000", nil},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			got, err := c.Query(tt.expression)
			require.NoError(t, err)
			require.Equal(t, tt.want, slugs(got))
		})
	}

	_, err = c.Query("Year +")
	require.Error(t, err)

	_, err = c.Query("Year")
	require.Error(t, err, "non-boolean expressions are rejected")

	_, err = c.Query("Missing == 1")
	require.Error(t, err)
}

func TestCatalog_ReloadNotifies(t *testing.T) {
	c, err := Load(testFS())
	require.NoError(t, err)

	sub := c.Subscribe()
	defer c.Unsubscribe(sub)

	updated := fstest.MapFS{
		"new.yaml": {Data: []byte("title: New\nyear: 2025")},
	}
	require.NoError(t, c.Reload(updated))
	require.NoError(t, c.Reload(updated))

	// notifications are coalesced
	select {
	case <-sub:
	default:
		t.Fatal("expected a notification")
	}
	select {
	case <-sub:
		t.Fatal("expected a single pending notification")
	default:
	}

	require.Equal(t, []string{"new"}, slugs(c.List()))

	// a failed reload keeps the previous contents
	require.Error(t, c.Reload(fstest.MapFS{"x.yaml": {Data: []byte("year: 1")}}))
	require.Equal(t, []string{"new"}, slugs(c.List()))
}

func TestCatalog_Unsubscribe(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	sub := c.Subscribe()
	c.Unsubscribe(sub)
	c.Unsubscribe(sub) // second call is a no-op

	_, open := <-sub
	require.False(t, open)

	require.NoError(t, c.Reload(fstest.MapFS{}))
}

func TestNew(t *testing.T) {
	c, err := New(
		Project{Slug: "b", Title: "B", Year: 2020},
		Project{Slug: "a", Title: "A", Year: 2020},
	)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, slugs(c.List()))

	_, err = New(Project{Slug: "", Title: "X"})
	require.ErrorIs(t, err, ErrInvalidProject)
}
