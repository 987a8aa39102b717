package folio

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJavascriptAssetCollector_AddAsset(t *testing.T) {
	assets := NewJavascriptAssetCollector()

	require.NoError(t, assets.AddAsset("test.js", []byte("console.log('Hello, world!');")))

	assetPath := assets.AssetPath("test.js")
	require.Equal(t, "/js/test.c02ef03acd9bcafb.js", assetPath)

	assertAssetContent(t, assets, assetPath, "console.log('Hello, world!');")

	// Add more content to the test.js asset
	require.NoError(t, assets.AddAsset("test.js", []byte("console.log('Lorem ipsum dolor sit amet');")))

	assetPath = assets.AssetPath("test.js")
	require.Equal(t, "/js/test.b72d6cb04f0e4286.js", assetPath)

	assertAssetContent(t, assets, assetPath, "console.log('Hello, world!');\nconsole.log('Lorem ipsum dolor sit amet');")

	// There should be no asset anymore with previous hash
	assertAssetNotFound(t, assets, "/js/test.c02ef03acd9bcafb.js")

	// The non-hashed name should work
	assertAssetContent(t, assets, "/js/test.js", "console.log('Hello, world!');\nconsole.log('Lorem ipsum dolor sit amet');")

	// Adding the same content again does not change the asset
	require.NoError(t, assets.AddAsset("test.js", []byte("console.log('Hello, world!');")))
	require.Equal(t, "/js/test.b72d6cb04f0e4286.js", assets.AssetPath("test.js"))
}

func TestStylesheetAssetCollector_AddAsset(t *testing.T) {
	assets := NewStylesheetAssetCollector()

	require.NoError(t, assets.AddAsset("test.css", []byte("body { color: red; }")))

	assetPath := assets.AssetPath("test.css")
	require.Equal(t, "/css/test.4a302240c13eaeb2.css", assetPath) // Hash depends on content
	assertAssetContent(t, assets, assetPath, "body { color: red; }")

	require.Equal(t, "", assets.AssetPath("other.css"))
}

func TestBaseAssetCollector_ServeAsset(t *testing.T) {
	assets := NewStylesheetAssetCollector()
	require.NoError(t, assets.AddAsset("site.css", []byte("main { margin: 0; }")))
	assetPath := assets.AssetPath("site.css")

	t.Run("etag", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, assetPath, nil)
		rr := httptest.NewRecorder()
		handled, err := assets.ServeAsset(rr, req)
		require.NoError(t, err)
		require.True(t, handled)
		etag := rr.Header().Get("ETag")
		require.NotEmpty(t, etag)
		require.Equal(t, "text/css; charset=utf-8", rr.Header().Get("Content-Type"))

		req = httptest.NewRequest(http.MethodGet, assetPath, nil)
		req.Header.Set("If-None-Match", etag)
		rr = httptest.NewRecorder()
		handled, err = assets.ServeAsset(rr, req)
		require.NoError(t, err)
		require.True(t, handled)
		require.Equal(t, http.StatusNotModified, rr.Code)
		require.Empty(t, rr.Body.String())
	})

	t.Run("head", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handled, err := assets.ServeAsset(rr, httptest.NewRequest(http.MethodHead, assetPath, nil))
		require.NoError(t, err)
		require.True(t, handled)
		require.Equal(t, http.StatusOK, rr.Code)
		require.Empty(t, rr.Body.String())
	})

	t.Run("post is ignored", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handled, err := assets.ServeAsset(rr, httptest.NewRequest(http.MethodPost, assetPath, nil))
		require.NoError(t, err)
		require.False(t, handled)
	})
}

func TestAssetRegistry(t *testing.T) {
	reg := NewAssetRegistry("/assets/", nil)
	reg.RegisterCollector("css", NewStylesheetAssetCollector())
	reg.RegisterCollector(".js", NewJavascriptAssetCollector())

	require.NoError(t, reg.AddAsset("test.css", []byte("body { color: red; }")))
	require.NoError(t, reg.AddAsset("test.js", []byte("console.log('Hello, world!');")))
	require.Error(t, reg.AddAsset("logo.png", []byte{0x89}))

	require.Equal(t, "/assets/css/test.4a302240c13eaeb2.css", reg.AssetPath("test.css"))
	require.Equal(t, "/assets/js/test.c02ef03acd9bcafb.js", reg.AssetPath("test.js"))
	require.Equal(t, "", reg.AssetPath("missing.css"))
	require.Equal(t, "", reg.AssetPath("logo.png"))

	assertAssetContent(t, reg, "/assets/css/test.4a302240c13eaeb2.css", "body { color: red; }")
	assertAssetContent(t, reg, "/assets/js/test.js", "console.log('Hello, world!');")
	assertAssetNotFound(t, reg, "/css/test.4a302240c13eaeb2.css")
	assertAssetNotFound(t, reg, "/assets/css/missing.css")
}

func TestAssetNode(t *testing.T) {
	reg := NewAssetRegistry("", nil)
	reg.RegisterCollector("css", NewStylesheetAssetCollector())
	reg.RegisterCollector("js", NewJavascriptAssetCollector())
	require.NoError(t, reg.AddAsset("test.css", []byte("body { color: red; }")))
	require.NoError(t, reg.AddAsset("test.js", []byte("console.log('Hello, world!');")))

	n, err := AssetNode(reg, "test.css")
	require.NoError(t, err)
	out, err := RenderString(n)
	require.NoError(t, err)
	require.Equal(t, `<link rel="stylesheet" href="/css/test.4a302240c13eaeb2.css"/>`, out)

	n, err = AssetNode(reg, "test.js")
	require.NoError(t, err)
	out, err = RenderString(n)
	require.NoError(t, err)
	require.Equal(t, `<script src="/js/test.c02ef03acd9bcafb.js" defer=""></script>`, out)

	n, err = AssetNode(reg, "missing.css")
	require.NoError(t, err)
	require.Nil(t, n)
}

func assertAssetContent(t *testing.T, assets AssetCollector, assetPath, want string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, assetPath, nil)
	rr := httptest.NewRecorder()

	handled, err := assets.ServeAsset(rr, req)
	require.NoError(t, err)
	require.True(t, handled, "asset %s not handled", assetPath)

	body, err := io.ReadAll(rr.Result().Body)
	require.NoError(t, err)
	require.Equal(t, want, string(body))
}

func assertAssetNotFound(t *testing.T, assets AssetCollector, assetPath string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, assetPath, nil)
	rr := httptest.NewRecorder()

	handled, err := assets.ServeAsset(rr, req)
	require.NoError(t, err)
	require.False(t, handled, "asset %s unexpectedly handled", assetPath)
}
