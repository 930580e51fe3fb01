// Package writer persists an assembled test plan tree to its save format.
// The save format is a versioned YAML document owned by the execution
// engine; this package only guarantees that a well-formed tree becomes a
// well-formed file.
package writer

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/loadtools/plangen/internal/plan"
)

// SaveFormatVersion is the version stamp of the persisted save format.
const SaveFormatVersion = "1.0"

// Errors returned by the writer package.
var (
	// ErrOutputUnwritable is returned when the destination cannot be
	// opened for writing.
	ErrOutputUnwritable = errors.New("writer: output file is not writable")
	// ErrSerialization is returned when the tree cannot be serialized.
	ErrSerialization = errors.New("writer: tree serialization failed")
)

// document is the persisted save-format envelope.
type document struct {
	Version string        `yaml:"version"`
	Plan    *plan.Element `yaml:"plan"`
}

// Writer serializes test plan trees.
type Writer struct {
	log *zap.Logger
}

// New creates a writer. A nil logger is replaced with a no-op logger.
func New(log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{log: log}
}

// Write persists the tree to the given path. The destination is held only
// for the duration of the call and released on every exit path. A close
// failure is logged as a warning and never replaces or masks a
// serialization error.
func (w *Writer) Write(tree *plan.Tree, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputUnwritable, path, err)
	}

	serializeErr := w.WriteTo(tree, file)

	// The write failure stays the reported error; the close failure is
	// still surfaced in the log rather than dropped.
	if closeErr := file.Close(); closeErr != nil {
		w.log.Warn("could not close output file",
			zap.String("path", path),
			zap.Error(closeErr))
	}

	if serializeErr != nil {
		return serializeErr
	}
	return nil
}

// WriteTo serializes the tree to the given stream.
func (w *Writer) WriteTo(tree *plan.Tree, out io.Writer) error {
	if tree == nil || tree.Root == nil {
		return fmt.Errorf("%w: empty tree", ErrSerialization)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	doc := document{Version: SaveFormatVersion, Plan: tree.Root}
	if err := enc.Encode(doc); err != nil {
		enc.Close()
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return nil
}
