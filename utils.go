package fileit

import (
	"mime"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidPath validates that a path string meets the requirements for an object path.
// It checks that the path:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/"
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain invalid characters: \ ? #
//   - is valid UTF-8
//   - does not contain "." segments (/., /./, or ending with /.)
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
//
// Book names may contain spaces, so unlike a URL path whitespace other than
// control characters is allowed.
func IsValidPath(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' {
		return false
	}

	if strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") {
		return false
	}

	if strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if p == "/." || strings.HasPrefix(p, "./") || strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f || (unicode.IsSpace(r) && r != ' ') {
			return false
		}
	}

	return true
}

// IsValidPrefix reports whether p can be used as a path prefix: either empty
// or a valid path optionally followed by a single trailing slash.
func IsValidPrefix(p string) bool {
	if p == "" {
		return true
	}
	return IsValidPath(strings.TrimSuffix(p, "/"))
}

// ImagePrefix returns the default page image prefix for a book.
func ImagePrefix(book string) string {
	return book + "/Images/"
}

// PagePath returns the object path of a 1-based page image.
func PagePath(prefix string, page int) string {
	return prefix + strconv.Itoa(page) + PageImageExt
}

// ContentTypeByExtension guesses a content type from the extension of p,
// falling back to application/octet-stream.
func ContentTypeByExtension(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ext == ".docx" {
		return ContentTypeDocx
	}
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

// MediaType returns contentType lower-cased and without parameters.
func MediaType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
