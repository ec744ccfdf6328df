package emit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/projweave/internal/ctxlog"
	"github.com/vk/projweave/internal/descriptor"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Emitter delivers a resolved manifest to the build host.
type Emitter interface {
	Emit(ctx context.Context, m *descriptor.Manifest) error
}

// Format is a manifest serialisation format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatMsgpack}

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack", "mpk":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unsupported manifest format %q (supported: %v)", s, Formats)
	}
}

// FormatFromPath guesses the format from a file extension. The second result
// is false when the extension is not recognised.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	return f, err == nil
}

// Encode writes m to w in format f.
func Encode(w io.Writer, f Format, m *descriptor.Manifest) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(m)
	default:
		return fmt.Errorf("unsupported manifest format %q", f)
	}
}

// Decode reads a manifest written by Encode.
func Decode(r io.Reader, f Format) (*descriptor.Manifest, error) {
	m := new(descriptor.Manifest)
	var err error
	switch f {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(m)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(m)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(m)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s manifest: %w", f, err)
	}
	return m, nil
}

// DecodeFile reads a manifest from path. The format is taken from the file
// extension, falling back to fallback.
func DecodeFile(path string, fallback Format) (*descriptor.Manifest, error) {
	f, ok := FormatFromPath(path)
	if !ok {
		f = fallback
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file, f)
}

// WriterEmitter writes manifests to W.
type WriterEmitter struct {
	W      io.Writer
	Format Format
}

// Emit implements Emitter.
func (e *WriterEmitter) Emit(ctx context.Context, m *descriptor.Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Encode(e.W, e.Format, m); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// FileEmitter writes manifests to Path, replacing the file atomically.
type FileEmitter struct {
	Path   string
	Format Format
}

// Emit implements Emitter.
func (e *FileEmitter) Emit(ctx context.Context, m *descriptor.Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	dir := filepath.Dir(e.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".projweave-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, e.Format, m); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", e.Path, err)
	}

	logger.Info("Manifest written.", "path", e.Path, "format", e.Format)
	return nil
}

// Multi emits to every emitter in order and joins their errors.
type Multi []Emitter

// Emit implements Emitter.
func (m Multi) Emit(ctx context.Context, manifest *descriptor.Manifest) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, manifest); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
