// Package static serves the embedded stylesheet and images under content-hashed paths, so they
// can be cached forever.
package static

import (
	"embed"
	"fmt"
	"hash/fnv"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

type File struct {
	ContentType  string
	LastModified string
	Content      []byte
}

const RouteTemplate = "/static/*"
const UrlPrefix = "/static"

//go:embed files
var filesFS embed.FS

var hashedPathsByFilename map[string]string
var files map[string]*File

var contentTypesByExt = map[string]string{
	".css":  "text/css; charset=utf-8",
	".ico":  "image/x-icon",
	".js":   "text/javascript; charset=utf-8",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

func init() {
	hashedPathsByFilename = make(map[string]string)
	files = make(map[string]*File)
	lastModified := time.Now().UTC().Format(http.TimeFormat)

	dirEntries, err := fs.ReadDir(filesFS, "files")
	if err != nil {
		panic(err)
	}

	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		content, err := fs.ReadFile(filesFS, path.Join("files", dirEntry.Name()))
		if err != nil {
			panic(err)
		}

		hasher := fnv.New32a()
		hasher.Write(content)
		hash := hasher.Sum32()
		ext := path.Ext(dirEntry.Name())

		urlPath := fmt.Sprintf("%s/%s", UrlPrefix, dirEntry.Name())
		hashedPath := fmt.Sprintf("%s.%08x%s", urlPath[:len(urlPath)-len(ext)], hash, ext)

		mimeType, ok := contentTypesByExt[ext]
		if !ok {
			panic(fmt.Errorf("extension doesn't have mime type: %s", ext))
		}

		hashedPathsByFilename[dirEntry.Name()] = hashedPath
		files[hashedPath] = &File{
			ContentType:  mimeType,
			LastModified: lastModified,
			Content:      content,
		}
	}
}

func HashedPath(filename string) (string, error) {
	if hashedPath, ok := hashedPathsByFilename[filename]; ok {
		return hashedPath, nil
	}

	return "", fmt.Errorf("static file not found: %q", filename)
}

func Get(hashedPath string) (*File, error) {
	if containsDotDot(hashedPath) {
		return nil, fmt.Errorf("path contains '..': %q", hashedPath)
	}

	if file, ok := files[hashedPath]; ok {
		return file, nil
	}

	return nil, fmt.Errorf("static path not found: %q", hashedPath)
}

func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, ent := range strings.FieldsFunc(v, isSlashRune) {
		if ent == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }
