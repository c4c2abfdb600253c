package upload

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileValidator decides whether an uploaded file is acceptable from its
// extension and, optionally, the media type declared on the multipart part.
// The two variants below cover the two asset categories the service stores.
type FileValidator struct {
	Kind      string
	exts      []string
	checkMIME bool
	message   string
}

// ImageValidator accepts jpeg/jpg/png/gif files whose declared media type
// matches the extension set as well.
var ImageValidator = &FileValidator{
	Kind:      "image",
	exts:      []string{"jpeg", "jpg", "png", "gif"},
	checkMIME: true,
	message:   "images only (jpeg, jpg, png, gif)",
}

// ModelValidator accepts glb/gltf/usdz files. Model media types are not
// reliably declared by clients, so only the extension is checked.
var ModelValidator = &FileValidator{
	Kind:    "model",
	exts:    []string{"glb", "gltf", "usdz"},
	message: "only GLB, GLTF, and USDZ files are allowed",
}

// Accept returns nil when the filename (and declared media type, for
// validators that check it) matches the allowed set
func (v *FileValidator) Accept(filename, mimeType string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !v.matches(ext) {
		return fmt.Errorf("invalid file type %q: %s", ext, v.message)
	}

	if v.checkMIME && !v.matches(strings.ToLower(mimeType)) {
		return fmt.Errorf("invalid media type %q: %s", mimeType, v.message)
	}

	return nil
}

// matches reports whether value names one of the allowed extensions. Media
// types match by containment so "image/png" passes the "png" entry.
func (v *FileValidator) matches(value string) bool {
	for _, ext := range v.exts {
		if value == ext || strings.Contains(value, ext) {
			return true
		}
	}
	return false
}
