package filestorage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// MaxImageWidth is the widest stored image; larger uploads are scaled down.
	MaxImageWidth = 1600
	// MaxImagePixels bounds width*height of an upload before it is decoded.
	MaxImagePixels = 40_000_000
)

// ErrInvalidImage is returned for payloads that do not decode as an image.
var (
	ErrInvalidImage = errors.New("invalid image payload")
	// ErrImageTooLarge is returned for uploads over MaxImagePixels.
	ErrImageTooLarge = errors.New("image dimensions too large")
	// ErrStorageUnavailable is returned for uploads when no image store is configured.
	ErrStorageUnavailable = errors.New("image storage unavailable")
)

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // Public URL prefix the files are served under
	logger   zerolog.Logger
}

// NewLocalStorage creates a new LocalStorage instance.
// basePath is the required directory path on the server.
// baseURL is prepended to returned file paths.
func NewLocalStorage(basePath, baseURL string, logger zerolog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}, nil
}

// SaveDataURL decodes a base64 data URL and stores the image.
func (ls *LocalStorage) SaveDataURL(ctx context.Context, dataURL string, subPath string) (string, error) {
	data, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	return ls.SaveImage(ctx, data, subPath)
}

// SaveImage decodes, scales to MaxImageWidth and re-encodes the image.
// PNG and GIF input is stored as PNG, everything else as JPEG.
func (ls *LocalStorage) SaveImage(ctx context.Context, data []byte, subPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if img.Bounds().Dx() > MaxImageWidth {
		img = imaging.Resize(img, MaxImageWidth, 0, imaging.Lanczos)
	}

	format, ext := imaging.JPEG, ".jpg"
	switch http.DetectContentType(data) {
	case "image/png", "image/gif":
		format, ext = imaging.PNG, ".png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return ls.write(buf.Bytes(), subPath, ext)
}

// Owns reports whether publicURL names a file under this storage.
func (ls *LocalStorage) Owns(publicURL string) bool {
	return ls.GetFullPath(strings.TrimSpace(publicURL)) != ""
}

// Copy stores the bytes of an owned file again under a fresh name, so the
// copy and the original can be deleted independently.
func (ls *LocalStorage) Copy(ctx context.Context, publicURL string, subPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src := ls.GetFullPath(strings.TrimSpace(publicURL))
	if src == "" {
		return "", fmt.Errorf("invalid file path: %s", publicURL)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("failed to read stored file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(src))
	if ext != ".png" {
		ext = ".jpg"
	}
	return ls.write(data, subPath, ext)
}

func (ls *LocalStorage) write(data []byte, subPath, ext string) (string, error) {
	fullDirPath := ls.basePath
	if subPath != "" {
		fullDirPath = filepath.Join(ls.basePath, subPath)
		if err := os.MkdirAll(fullDirPath, os.ModePerm); err != nil {
			ls.logger.Error().Err(err).Str("path", fullDirPath).Msg("Failed to create subdirectory")
			return "", fmt.Errorf("failed to create subdirectory: %w", err)
		}
	}

	uniqueFilename := uuid.New().String() + ext
	dstPath := filepath.Join(fullDirPath, uniqueFilename)

	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		ls.logger.Error().Err(err).Str("path", dstPath).Msg("Failed to write image")
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	rel := uniqueFilename
	if subPath != "" {
		rel = subPath + "/" + uniqueFilename
	}
	accessiblePath := "uploads/" + rel
	if ls.baseURL != "" {
		accessiblePath = ls.baseURL + "/" + rel
	}

	ls.logger.Info().Str("saved_as", dstPath).Str("accessible_path", accessiblePath).Msg("Image saved")
	return accessiblePath, nil
}

// DeleteFile removes a file from the storage filesystem. Missing files are
// not an error.
func (ls *LocalStorage) DeleteFile(publicURL string) error {
	physicalPath := ls.GetFullPath(publicURL)
	if physicalPath == "" {
		return fmt.Errorf("invalid file path: %s", publicURL)
	}

	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			ls.logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		ls.logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetFullPath maps a public reference back to the file on disk. Only
// references under baseURL (or the relative "uploads/" prefix) resolve.
func (ls *LocalStorage) GetFullPath(publicURL string) string {
	rel := ""
	switch {
	case ls.baseURL != "" && strings.HasPrefix(publicURL, ls.baseURL+"/"):
		rel = strings.TrimPrefix(publicURL, ls.baseURL+"/")
	case strings.HasPrefix(publicURL, "uploads/"):
		rel = strings.TrimPrefix(publicURL, "uploads/")
	default:
		return ""
	}
	clean := filepath.Clean("/" + rel)
	if clean == "/" {
		return ""
	}
	return filepath.Join(ls.basePath, clean)
}

// DecodeDataURL extracts the bytes of a base64 data URL.
func DecodeDataURL(dataURL string) ([]byte, error) {
	dataURL = strings.TrimSpace(dataURL)
	if !strings.HasPrefix(dataURL, "data:") {
		return nil, fmt.Errorf("%w: not a data URL", ErrInvalidImage)
	}
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: data URL is not base64 encoded", ErrInvalidImage)
	}
	if !strings.HasPrefix(header, "data:image/") {
		return nil, fmt.Errorf("%w: unsupported media type", ErrInvalidImage)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return data, nil
}
