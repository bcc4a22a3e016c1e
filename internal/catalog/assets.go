package catalog

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// allowedImageExt is the upload allow-list for bundle images.
var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Bundle is an extracted image archive rooted at a private temp directory.
type Bundle struct {
	Root string
}

// ExtractZip expands the archive at zipPath into destRoot. Entries that
// would escape destRoot are rejected.
func ExtractZip(zipPath, destRoot string) (*Bundle, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, err
	}
	defer reader.Close()

	for _, file := range reader.File {
		target := filepath.Join(destRoot, filepath.Clean(file.Name))
		if !strings.HasPrefix(target, filepath.Clean(destRoot)+string(os.PathSeparator)) {
			return nil, validationf("archive entry %q escapes extraction root", file.Name)
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		if err := extractOne(file, target); err != nil {
			return nil, err
		}
	}
	return &Bundle{Root: destRoot}, nil
}

func extractOne(file *zip.File, target string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// FindByFilename locates an image in the bundle by case-insensitive name.
// The exact relative path is tried first, then a recursive walk. Returns
// the absolute path of the first match.
func (b *Bundle) FindByFilename(name string) (string, bool) {
	if b == nil || b.Root == "" || name == "" {
		return "", false
	}

	direct := filepath.Join(b.Root, filepath.Clean(name))
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct, true
	}

	want := strings.ToLower(filepath.Base(name))
	var found string
	filepath.Walk(b.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil || found != "" || info.IsDir() {
			return nil
		}
		if strings.ToLower(info.Name()) == want {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found, found != ""
}

// Resolver moves images between the local bundle and the remote asset
// store. Upload failures propagate; removals and duplications are best
// effort because asset cleanup must never block the primary write.
type Resolver struct {
	store  AssetStore
	logger *logrus.Entry
}

func NewResolver(store AssetStore, logger *logrus.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger.WithField("component", "asset-resolver"),
	}
}

// UploadFromBundle finds filename in the bundle, checks the extension
// allow-list, and uploads it. The caller decides whether a missing file
// is fatal (main image) or a skip (additional images).
func (r *Resolver) UploadFromBundle(ctx context.Context, bundle *Bundle, filename, folder string) (string, error) {
	path, ok := bundle.FindByFilename(filename)
	if !ok {
		return "", notFoundf("image %q not found in bundle", filename)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !allowedImageExt[ext] {
		return "", validationf("unsupported image type %q for %q", ext, filename)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", uploadf("open %q: %v", filename, err)
	}
	defer f.Close()

	url, err := r.store.Upload(ctx, f, filepath.Base(path), folder)
	if err != nil {
		return "", uploadf("%q: %v", filename, err)
	}
	return url, nil
}

// Remove deletes the remote asset behind url. Failures are logged and
// swallowed. Reports whether the asset was actually destroyed.
func (r *Resolver) Remove(ctx context.Context, url string) bool {
	publicID, err := PublicIDFromURL(url)
	if err != nil {
		r.logger.WithField("url", url).WithError(err).Warn("Cannot derive asset public id")
		return false
	}
	if err := r.store.Destroy(ctx, publicID); err != nil {
		r.logger.WithField("public_id", publicID).WithError(err).Warn("Failed to delete remote asset")
		return false
	}
	return true
}

// Duplicate copies a remote asset so a cloned product gets its own copy.
// On failure the original URL is returned, so two products may end up
// sharing one physical asset.
func (r *Resolver) Duplicate(ctx context.Context, url, folder string) string {
	if url == "" {
		return ""
	}
	newURL, err := r.store.Duplicate(ctx, url, folder)
	if err != nil || newURL == "" {
		r.logger.WithField("url", url).WithError(err).Warn("Asset duplication failed, reusing original URL")
		return url
	}
	return newURL
}

// PublicIDFromURL derives the remote object key from an asset URL shaped
// .../upload/<optional version>/<folder...>/<publicId>.<ext>: everything
// after the upload marker, minus the version segment and the extension.
func PublicIDFromURL(url string) (string, error) {
	const marker = "/upload/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", validationf("no upload marker in asset URL %q", url)
	}

	rest := strings.Trim(url[idx+len(marker):], "/")
	segments := strings.Split(rest, "/")
	if len(segments) > 1 && isVersionSegment(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) == 0 || segments[0] == "" {
		return "", validationf("empty asset path in URL %q", url)
	}

	joined := strings.Join(segments, "/")
	if ext := filepath.Ext(joined); ext != "" {
		joined = strings.TrimSuffix(joined, ext)
	}
	return joined, nil
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
