// Package media stores product images and serves them back by public URL.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Storage saves an image and returns its public URL.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Disk writes under Dir; files are served at <PublicBaseURL>/uploads/<file>.
type Disk struct {
	Dir           string
	PublicBaseURL string
}

func NewDisk(dir, publicBaseURL string) *Disk {
	return &Disk{Dir: dir, PublicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

var unsafeChars = regexp.MustCompile(`[^\w\-.]`)

// CleanName keeps letters, digits, '-', '_' and '.'; everything else is '_'.
func CleanName(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return unsafeChars.ReplaceAllString(name, "_")
}

func (d *Disk) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}

	filename := uuid.NewString() + "_" + CleanName(name)
	path := filepath.Join(d.Dir, filename)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to save %s: %w", filename, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return d.PublicBaseURL + "/uploads/" + filename, nil
}
