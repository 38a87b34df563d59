package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// StartMode selects where a new Source begins reading.
type StartMode string

const (
	StartBeginning StartMode = "beginning"
	StartEnd       StartMode = "end"
	StartTail      StartMode = "tail"
)

// ParseStartMode accepts the configuration spelling of a StartMode.
func ParseStartMode(s string) (StartMode, error) {
	switch StartMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", StartBeginning:
		return StartBeginning, nil
	case StartEnd:
		return StartEnd, nil
	case StartTail:
		return StartTail, nil
	default:
		return "", fmt.Errorf("unknown start mode %q", s)
	}
}

// StartOffset returns the initial offset for path. Missing files start at 0
// so that lines written after creation are not skipped.
func StartOffset(path string, mode StartMode, tailLines int) (int64, error) {
	switch mode {
	case StartEnd:
		size, err := Size(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return 0, nil
			}
			return 0, fmt.Errorf("stat source: %w", err)
		}
		return size, nil
	case StartTail:
		return TailOffset(path, tailLines)
	default:
		return 0, nil
	}
}

// TailOffset returns the offset at which the last maxLines complete lines of
// the file begin. A partial trailing line is not counted.
func TailOffset(path string, maxLines int) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer file.Close()

	var end int64
	if maxLines <= 0 {
		// Nothing requested: start after the last complete line.
		reader := bufio.NewReader(file)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if errors.Is(err, io.EOF) {
					return end, nil
				}
				return 0, fmt.Errorf("read source: %w", err)
			}
			end += int64(len(line))
		}
	}

	ring := make([]int64, maxLines)
	reader := bufio.NewReader(file)
	count := 0
	idx := 0
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("read source: %w", err)
		}
		ring[idx] = end
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
		end += int64(len(line))
	}

	if count < maxLines {
		return 0, nil
	}
	// idx now points at the oldest retained line start.
	return ring[idx], nil
}
