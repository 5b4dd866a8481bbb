package composer

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDataURI(t *testing.T, uri string) image.Image {
	t.Helper()
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestComposer_Compose(t *testing.T) {
	pngData := testPNG(t, 200, 100)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngData)
	}))
	defer server.Close()

	c, err := New(Config{})
	require.NoError(t, err)

	t.Run("renders a card from a url", func(t *testing.T) {
		out := c.Compose(context.Background(), server.URL+"/img.png", strings.Repeat("内容。", 80), "摘要")
		img := decodeDataURI(t, out)
		assert.Equal(t, image.Rect(0, 0, CanvasWidth, CanvasHeight), img.Bounds())

		// the canvas background shows in the top-left corner
		r, g, b, _ := img.At(2, 2).RGBA()
		assert.InDelta(t, 0xFA, r>>8, 3)
		assert.InDelta(t, 0xFA, g>>8, 3)
		assert.InDelta(t, 0xFA, b>>8, 3)
	})

	t.Run("renders a card from a data uri", func(t *testing.T) {
		uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
		out := c.Compose(context.Background(), uri, "短内容", "摘要")
		decodeDataURI(t, out)
	})

	t.Run("download failure returns the input", func(t *testing.T) {
		url := server.URL + "/missing.png"
		assert.Equal(t, url, c.Compose(context.Background(), url, "内容", "摘要"))
	})

	t.Run("undecodable image returns the input", func(t *testing.T) {
		uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not an image"))
		assert.Equal(t, uri, c.Compose(context.Background(), uri, "内容", "摘要"))
	})

	t.Run("cancelled context returns the input", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		url := server.URL + "/img.png"
		assert.Equal(t, url, c.Compose(ctx, url, "内容", "摘要"))
	})
}

func TestNew_BadFont(t *testing.T) {
	_, err := New(Config{FontPath: filepath.Join(t.TempDir(), "missing.ttf")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))
	_, err = New(Config{FontPath: bad})
	assert.Error(t, err)
}

func TestComposer_ConcurrentRendersWithFont(t *testing.T) {
	fontPath := filepath.Join(t.TempDir(), "goregular.ttf")
	require.NoError(t, os.WriteFile(fontPath, goregular.TTF, 0o644))

	c, err := New(Config{FontPath: fontPath})
	require.NoError(t, err)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG(t, 60, 80))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Render(context.Background(), uri, strings.Repeat("Quiet morning light. ", 20), "Morning")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestWrap(t *testing.T) {
	face := basicfont.Face7x13 // 7px per rune

	t.Run("keeps sentences and splits long ones per rune", func(t *testing.T) {
		text := "甲乙丙。" + strings.Repeat("丁", 25) + "。戊己。"
		lines := Wrap(text, face, 70)
		assert.Equal(t, []string{
			"甲乙丙。",
			strings.Repeat("丁", 10),
			strings.Repeat("丁", 10),
			"丁丁丁丁丁。戊己。",
		}, lines)
	})

	t.Run("short wide sentence stays whole", func(t *testing.T) {
		assert.Equal(t, []string{"一二三四五六七八。"}, Wrap("一二三四五六七八。", face, 35))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Wrap("  \n ", face, 100))
	})
}

func TestCoverCrop(t *testing.T) {
	// wide source: crop width
	assert.Equal(t, image.Rect(50, 0, 150, 100), coverCrop(image.Rect(0, 0, 200, 100), 100, 100))
	// tall source: crop height
	assert.Equal(t, image.Rect(0, 50, 100, 150), coverCrop(image.Rect(0, 0, 100, 200), 100, 100))
}

func TestRoundedMask(t *testing.T) {
	m := roundedMask(40, 40, 10)
	assert.Equal(t, uint8(0), m.AlphaAt(0, 0).A)
	assert.Equal(t, uint8(0), m.AlphaAt(39, 39).A)
	assert.Equal(t, uint8(0xFF), m.AlphaAt(20, 20).A)
	assert.Equal(t, uint8(0xFF), m.AlphaAt(0, 20).A)
}
