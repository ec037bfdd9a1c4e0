package helpers

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FileType represents the detected type of an installer file
type FileType string

const (
	FileTypeMSI      FileType = "msi"
	FileTypeMSP      FileType = "msp"
	FileTypeCompound FileType = "compound" // compound file with an unrecognised extension
	FileTypeUnknown  FileType = "unknown"
)

// compoundFileMagic is the OLE structured storage signature shared by .msi and .msp files
var compoundFileMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ExtensionOf returns the lowercased extension of a path, handling both
// Windows and slash separators regardless of the host OS
func ExtensionOf(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		path = path[i+1:]
	}
	return strings.ToLower(filepath.Ext(path))
}

// IsCompoundFile checks the first bytes of a file for the compound file signature
func IsCompoundFile(fs afero.Fs, filePath string) (bool, error) {
	f, err := fs.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(compoundFileMagic))
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("failed to read file header: %w", err)
	}

	return n == len(compoundFileMagic) && bytes.Equal(header, compoundFileMagic), nil
}

// DetectFileType identifies an installer file from its extension and magic number.
// A file without the compound file signature is FileTypeUnknown whatever its extension.
func DetectFileType(fs afero.Fs, filePath string) (FileType, error) {
	ok, err := IsCompoundFile(fs, filePath)
	if err != nil {
		return FileTypeUnknown, err
	}
	if !ok {
		return FileTypeUnknown, nil
	}

	switch ExtensionOf(filePath) {
	case ".msi":
		return FileTypeMSI, nil
	case ".msp":
		return FileTypeMSP, nil
	default:
		return FileTypeCompound, nil
	}
}
