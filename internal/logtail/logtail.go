package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Source is one tailed file and the offset consumed so far.
type Source struct {
	Path   string
	Tag    string
	Offset int64
}

// LineFunc receives each complete line without its trailing newline.
// Returning an error stops the drain.
type LineFunc func(line string) error

// Drain reads complete lines from src.Offset to end of file and passes each
// to fn. It returns the offset just past the last line fn accepted.
func Drain(src Source, fn LineFunc) (int64, error) {
	file, err := os.Open(src.Path)
	if err != nil {
		return src.Offset, fmt.Errorf("open source: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(src.Offset, io.SeekStart); err != nil {
		return src.Offset, fmt.Errorf("seek source: %w", err)
	}

	offset := src.Offset
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Anything left in line is a partial write; leave it for later.
				return offset, nil
			}
			return offset, fmt.Errorf("read source: %w", err)
		}

		text := strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if err := fn(text); err != nil {
			return offset, err
		}
		offset += int64(len(line))
	}
}

// Size returns the current size of the file at path.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
