package classify

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Guesser infers a MIME type from a file name. It returns "" when the type
// cannot be inferred.
type Guesser interface {
	Guess(name string) string
}

// GuesserFunc adapts a function to Guesser
type GuesserFunc func(name string) string

// Guess implements Guesser
func (f GuesserFunc) Guess(name string) string { return f(name) }

// builtinTypes fixes the result for common extensions so classification
// does not depend on the host's mime.types files.
var builtinTypes = map[string]string{
	"txt":  "text/plain",
	"text": "text/plain",
	"log":  "text/plain",
	"md":   "text/markdown",
	"csv":  "text/csv",
	"htm":  "text/html",
	"html": "text/html",
	"css":  "text/css",
	"xml":  "text/xml",
	"js":   "text/javascript",
	"py":   "text/x-python",
	"json": "application/json",
	"pdf":  "application/pdf",
	"rtf":  "application/rtf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"odt":  "application/vnd.oasis.opendocument.text",
	"ods":  "application/vnd.oasis.opendocument.spreadsheet",
	"zip":  "application/zip",
	"tar":  "application/x-tar",
	"7z":   "application/x-7z-compressed",
	"rar":  "application/vnd.rar",
	"sh":   "application/x-sh",
	"exe":  "application/vnd.microsoft.portable-executable",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"ico":  "image/vnd.microsoft.icon",
	"heic": "image/heic",
	"mp3":  "audio/mpeg",
	"wav":  "audio/x-wav",
	"flac": "audio/flac",
	"aac":  "audio/aac",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
	"wmv":  "video/x-ms-wmv",
}

// NameGuesser infers MIME types from the extension only: the built-in table
// first, then the platform database.
type NameGuesser struct{}

// Guess implements Guesser
func (NameGuesser) Guess(name string) string {
	ext := Extension(name)
	if ext == "" {
		return ""
	}
	if t, ok := builtinTypes[ext]; ok {
		return t
	}
	return normalizeMediaType(mime.TypeByExtension("." + ext))
}

// sniff detects the MIME type from file content.
func sniff(path string) string {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	t := normalizeMediaType(m.String())
	// The fallback result carries no information.
	if t == "application/octet-stream" {
		return ""
	}
	return t
}

// normalizeMediaType drops parameters and lowercases.
func normalizeMediaType(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}

// Extension returns the lowercased text after the last dot of name. A dot
// that starts or ends the name does not introduce an extension, so
// ".bashrc" and "notes." have none while "a.tar.gz" has "gz".
func Extension(name string) string {
	name = filepath.Base(name)
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
