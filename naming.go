package imgtensor

import (
	"path/filepath"
	"strings"
)

// TensorExt is the extension of the generated tensor files.
const TensorExt = ".bin"

// OutputName returns the tensor file name for the given image file name:
// everything before the first dot, followed by TensorExt.
// A name like "photo.v2.jpg" becomes "photo.bin", not "photo.v2.bin".
func OutputName(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name + TensorExt
}

// OutputPath returns the path of the tensor file generated for the image found at path.
// The tensor is placed next to the source image.
func OutputPath(path string) string {
	dir, name := filepath.Split(path)
	return filepath.Join(dir, OutputName(name))
}

// HasSuffix reports whether the file name ends with the literal suffix.
// The match is case sensitive and is not an extension match: with the "jpg"
// suffix "cat.jpg" and "notajpg" match, while "cat.JPG" and "cat.jpeg" don't.
func HasSuffix(name, suffix string) bool {
	return strings.HasSuffix(name, suffix)
}
