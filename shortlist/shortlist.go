// Package shortlist reads and writes the selected address list
// (best_ip.txt): one address per line, with a trailing newline only
// when the list isn't empty.
package shortlist

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
)

// Write writes addrs to w.
func Write(w io.Writer, addrs []string) error {
	_, err := w.Write(Format(addrs))
	return err
}

// Format returns the file content for addrs.
func Format(addrs []string) []byte {
	var buf bytes.Buffer
	for _, a := range addrs {
		buf.WriteString(a)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WriteFile replaces path with the list. The content is written to a
// temporary file next to path first, so readers never see a partial
// list.
func WriteFile(path string, addrs []string) error {
	return ReplaceFile(path, Format(addrs))
}

// Read returns the trimmed, non-empty lines of r.
func Read(r io.Reader) ([]string, error) {
	var addrs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		addrs = append(addrs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return addrs, nil
}

// ReadFile reads the list at path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// ReplaceFile atomically replaces path with b (mode 0644).
func ReplaceFile(path string, b []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	n, err := f.Write(b)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	if err1 := f.Close(); err == nil {
		err = err1
	}
	if err != nil {
		return err
	}

	err = os.Chmod(tmpPath, 0o644)
	if err != nil {
		return err
	}

	err = os.Rename(tmpPath, path)
	if err != nil {
		return err
	}

	return nil
}
