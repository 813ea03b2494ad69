package output

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Sink receives the finished source text of a run.
type Sink interface {
	Write(content string) (err error)
	// Destination names where the content goes, for log messages.
	Destination() (name string)
}

// Console writes to a stream, normally stdout.
type Console struct {
	W io.Writer
}

// Write writes content to the stream unchanged.
func (c *Console) Write(content string) (err error) {
	_, err = io.WriteString(c.W, content)
	if err != nil {
		err = errors.Wrap(err, "failed to write generated code to console")
		return err
	}
	return err
}

// Destination implements Sink.
func (c *Console) Destination() (name string) {
	name = "stdout"
	return name
}

// File writes to a path. Content goes to a temporary file in the same
// directory first and is renamed into place, so a failed write never leaves
// a partial file behind.
type File struct {
	Path string
}

// Write writes content to the file, creating parent directories as needed.
func (f *File) Write(content string) (err error) {
	// Ensure output directory exists
	outputDir := filepath.Dir(f.Path)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	var tmp *os.File
	tmp, err = os.CreateTemp(outputDir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		err = errors.Wrapf(err, "failed to create temporary file in %s", outputDir)
		return err
	}
	tmpPath := tmp.Name()

	_, err = tmp.WriteString(content)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		err = errors.Wrapf(err, "failed to write generated code: %s", tmpPath)
		return err
	}

	err = tmp.Close()
	if err != nil {
		_ = os.Remove(tmpPath)
		err = errors.Wrapf(err, "failed to close temporary file: %s", tmpPath)
		return err
	}

	//nolint:gosec // generated source is meant to be readable
	err = os.Chmod(tmpPath, 0644)
	if err != nil {
		_ = os.Remove(tmpPath)
		err = errors.Wrapf(err, "failed to set permissions on %s", tmpPath)
		return err
	}

	err = os.Rename(tmpPath, f.Path)
	if err != nil {
		_ = os.Remove(tmpPath)
		err = errors.Wrapf(err, "failed to write output file: %s", f.Path)
		return err
	}

	return err
}

// Destination implements Sink.
func (f *File) Destination() (name string) {
	name = f.Path
	return name
}

// DefaultFileName derives a file name from a raw enum name: lowercased,
// spaces replaced with underscores, ext appended.
func DefaultFileName(rawName, ext string) (name string) {
	name = strings.ReplaceAll(strings.ToLower(rawName), " ", "_") + "." + ext
	return name
}

// Select picks the sink for a run: the console when toConsole is set,
// otherwise outputFile, otherwise a file named after the enum.
func Select(toConsole bool, console io.Writer, outputFile, rawName, ext string) (sink Sink) {
	if toConsole {
		sink = &Console{W: console}
		return sink
	}

	path := outputFile
	if path == "" {
		path = DefaultFileName(rawName, ext)
	}

	sink = &File{Path: path}
	return sink
}
