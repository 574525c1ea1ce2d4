package filestorage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSaveDataURLScalesWideImages(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "http://localhost:8080/uploads", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 2000, 100))
	ref, err := ls.SaveDataURL(context.Background(), dataURL, "posts")
	if err != nil {
		t.Fatalf("SaveDataURL: %v", err)
	}
	if !strings.HasPrefix(ref, "http://localhost:8080/uploads/posts/") || !strings.HasSuffix(ref, ".png") {
		t.Fatalf("unexpected reference %q", ref)
	}

	path := ls.GetFullPath(ref)
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if img.Bounds().Dx() != MaxImageWidth {
		t.Fatalf("width = %d, want %d", img.Bounds().Dx(), MaxImageWidth)
	}

	if err := ls.DeleteFile(ref); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file still present after delete")
	}
	if err := ls.DeleteFile(ref); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestSaveImageRejectsGarbage(t *testing.T) {
	ls, _ := NewLocalStorage(t.TempDir(), "", zerolog.Nop())
	_, err := ls.SaveImage(context.Background(), []byte("not an image"), "")
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"valid", "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("x")), true},
		{"not data url", "https://example.org/a.png", false},
		{"not base64", "data:image/png,raw", false},
		{"not an image", "data:text/plain;base64,eA==", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDataURL(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("DecodeDataURL(%q) err = %v", tt.in, err)
			}
		})
	}
}

func TestResolveImageKeepsPublicURLs(t *testing.T) {
	got, err := ResolveImage(context.Background(), nil, " https://cdn.example.org/a.jpg ", "", "x")
	if err != nil || got != "https://cdn.example.org/a.jpg" {
		t.Fatalf("got %q, %v", got, err)
	}
	got, err = ResolveImage(context.Background(), nil, "", "", "x")
	if err != nil || got != "" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := ResolveImage(context.Background(), nil, "data:image/png;base64,AAAA", "", "x"); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("upload without a store: %v", err)
	}
}

func TestResolveImageCopiesOwnedReferences(t *testing.T) {
	ctx := context.Background()
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	original, err := ls.SaveImage(ctx, pngBytes(t, 10, 10), "achievements")
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if !ls.Owns(original) || ls.Owns("https://cdn.example.org/a.jpg") {
		t.Fatal("Owns misclassified a reference")
	}

	kept, err := ResolveImage(ctx, ls, original, original, "achievements")
	if err != nil || kept != original {
		t.Fatalf("current image should be kept, got %q, %v", kept, err)
	}

	copied, err := ResolveImage(ctx, ls, original, "", "posts")
	if err != nil {
		t.Fatalf("ResolveImage: %v", err)
	}
	if copied == original || !strings.HasPrefix(copied, "http://localhost:8080/uploads/posts/") || !strings.HasSuffix(copied, ".png") {
		t.Fatalf("unexpected copy %q", copied)
	}
	if err := ls.DeleteFile(copied); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := os.Stat(ls.GetFullPath(original)); err != nil {
		t.Fatalf("deleting the copy touched the original: %v", err)
	}

	if _, err := ResolveImage(ctx, ls, "uploads/posts/missing.png", "", "posts"); err == nil {
		t.Fatal("copying a missing file should fail")
	}
}

// pngHeader is a PNG signature and IHDR chunk declaring w x h pixels with
// no pixel data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestSaveImageRejectsHugeDimensions(t *testing.T) {
	dir := t.TempDir()
	ls, _ := NewLocalStorage(dir, "", zerolog.Nop())
	_, err := ls.SaveImage(context.Background(), pngHeader(50000, 50000), "posts")
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("rejected upload left files: %v", entries)
	}
}
