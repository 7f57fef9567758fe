package assets_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"golang.org/x/image/bmp"

	"github.com/lvillar/pdfgen"
	"github.com/lvillar/pdfgen/assets"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func bmpBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	pngData, bmpData := pngBytes(t), bmpBytes(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Write(pngData)
	})
	mux.HandleFunc("/scan.bmp", func(w http.ResponseWriter, r *http.Request) {
		w.Write(bmpData)
	})
	mux.HandleFunc("/doc.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4\n1 0 obj\n<< >>\nendobj\ntrailer\n<< >>\n%%EOF\n"))
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xff}, 4096))
	})
	mux.HandleFunc("/notes.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text is not an image"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchImages(t *testing.T) {
	srv := newServer(t, nil)
	f, err := assets.New()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	a, err := f.Fetch(ctx, srv.URL+"/logo.png")
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if a.ImageType() != "PNG" {
		t.Errorf("png type = %q (%s)", a.ImageType(), a.MIME)
	}

	a, err = f.Fetch(ctx, srv.URL+"/scan.bmp")
	if err != nil {
		t.Fatalf("bmp: %v", err)
	}
	if a.MIME != "image/png" || !bytes.HasPrefix(a.Data, []byte("\x89PNG")) {
		t.Errorf("bmp should be re-encoded as png, got %s", a.MIME)
	}

	a, err = f.Fetch(ctx, srv.URL+"/doc.pdf")
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !a.IsPDF() {
		t.Errorf("pdf MIME = %s", a.MIME)
	}
}

func TestFetchFailures(t *testing.T) {
	srv := newServer(t, nil)
	f, err := assets.New(assets.WithMaxBytes(1024))
	if err != nil {
		t.Fatal(err)
	}
	for _, uri := range []string{
		srv.URL + "/missing",
		srv.URL + "/big",
		srv.URL + "/notes.txt",
		"ftp://example.com/logo.png",
		"data:image/png;base64,!!!",
	} {
		_, err := f.Fetch(context.Background(), uri)
		var afe *pdfgen.AssetFetchError
		if !errors.As(err, &afe) {
			t.Errorf("%s: expected AssetFetchError, got %v", uri, err)
			continue
		}
		if afe.URI != uri {
			t.Errorf("error URI = %q, want %q", afe.URI, uri)
		}
	}
}

func TestFetchAllowedHosts(t *testing.T) {
	srv := newServer(t, nil)
	f, err := assets.New(assets.WithAllowedHosts("*.example.com"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Fetch(context.Background(), srv.URL+"/logo.png")
	if err == nil || !strings.Contains(err.Error(), "not allowed") {
		t.Errorf("expected host rejection, got %v", err)
	}

	f, err = assets.New(assets.WithAllowedHosts("127.0.0.*"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/logo.png"); err != nil {
		t.Errorf("loopback should be allowed: %v", err)
	}
}

func TestFetchDataURI(t *testing.T) {
	f, err := assets.New()
	if err != nil {
		t.Fatal(err)
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))
	a, err := f.Fetch(context.Background(), uri)
	if err != nil {
		t.Fatalf("data URI: %v", err)
	}
	if a.ImageType() != "PNG" {
		t.Errorf("type = %q", a.ImageType())
	}
}

func TestFetchCache(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f, err := assets.New(assets.WithCache(8, time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if _, err := f.Fetch(context.Background(), srv.URL+"/logo.png"); err != nil {
			t.Fatal(err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestFetchAll(t *testing.T) {
	srv := newServer(t, nil)
	transport := &http.Transport{}
	defer leaktest.Check(t)()
	defer transport.CloseIdleConnections()

	f, err := assets.New(assets.WithHTTPClient(&http.Client{Transport: transport, Timeout: 5 * time.Second}))
	if err != nil {
		t.Fatal(err)
	}
	uris := []string{srv.URL + "/logo.png", "", srv.URL + "/missing", srv.URL + "/scan.bmp"}
	results := f.FetchAll(context.Background(), uris, 2)
	if len(results) != len(uris) {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Err != nil || results[0].Asset == nil {
		t.Errorf("result 0: %+v", results[0])
	}
	if results[1].Err != nil || results[1].Asset != nil {
		t.Errorf("empty uri should be skipped: %+v", results[1])
	}
	if results[2].Err == nil {
		t.Error("missing asset should fail")
	}
	if results[3].Err != nil {
		t.Errorf("result 3: %v", results[3].Err)
	}
}
