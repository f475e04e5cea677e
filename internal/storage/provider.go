// Package storage defines the corpus file-system abstraction.
package storage

// Provider is the interface for corpus file operations. All paths are
// slash-separated and relative to the corpus root.
type Provider interface {
	// Root returns the absolute corpus root.
	Root() string
	// List walks the whole tree and returns every regular file whose
	// extension is exactly ext, skipping paths matched by an exclude glob.
	List(ext string, exclude []string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of path, keeping its mode.
	Write(path string, content []byte) error
	// Rename moves oldPath to newPath, replacing newPath if it exists.
	Rename(oldPath, newPath string) error
	// Exists reports whether path names an existing file.
	Exists(path string) (bool, error)
	// SameFile reports whether both paths name the same file on disk.
	SameFile(a, b string) (bool, error)
}
