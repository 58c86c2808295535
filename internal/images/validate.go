// Package images manages a tenant's content library: validating local
// files, uploading them, listing and deleting uploaded images, and watching a
// drop directory for new files.
package images

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/somesimplify/somectl/internal/errors"
)

// MaxFileSize is the largest accepted upload in bytes.
const MaxFileSize int64 = 5 * 1024 * 1024

// AllowedTypes lists the accepted content types.
var AllowedTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

// File is a local file ready for upload.
type File struct {
	Path        string
	Name        string
	ContentType string
	Size        int64
}

// Validate checks a file against the allow-list and maxSize. A non-positive
// maxSize means MaxFileSize.
func Validate(name, contentType string, size, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	ct := normalizeType(contentType)
	if !slices.Contains(AllowedTypes, ct) {
		return errors.NewValidationError("unsupported file type, use JPEG, PNG, GIF or WebP").
			WithField(name).WithValue(contentType)
	}
	if size > maxSize {
		return errors.NewValidationError("file is larger than " + humanize.IBytes(uint64(maxSize))).
			WithField(name).WithValue(humanize.IBytes(uint64(size)))
	}
	return nil
}

// Inspect stats the file at path and determines its content type: from the
// extension when known, otherwise by sniffing the first bytes.
func Inspect(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, errors.Wrap(err, "cannot read "+path)
	}
	if info.IsDir() {
		return File{}, errors.NewValidationError("is a directory").WithField(path)
	}
	f := File{Path: path, Name: filepath.Base(path), Size: info.Size()}

	f.ContentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if f.ContentType == "" || !strings.HasPrefix(f.ContentType, "image/") {
		if f.ContentType, err = sniff(path); err != nil {
			return File{}, err
		}
	}
	f.ContentType = normalizeType(f.ContentType)
	return f, nil
}

// Check inspects and validates the file at path.
func Check(path string, maxSize int64) (File, error) {
	f, err := Inspect(path)
	if err != nil {
		return File{}, err
	}
	if err := Validate(f.Name, f.ContentType, f.Size, maxSize); err != nil {
		return File{}, err
	}
	return f, nil
}

func sniff(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "cannot read "+path)
	}
	defer func() { _ = fh.Close() }()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(fh, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", errors.Wrap(err, "cannot read "+path)
	}
	return http.DetectContentType(buf[:n]), nil
}

// normalizeType strips parameters and lower-cases a content type.
func normalizeType(ct string) string {
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// HumanSize renders a byte count for display.
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
