// Package fileutil holds small file helpers shared by the mirror, unpack and
// catalog stages.
package fileutil

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

const bufferSize = 64 << 10

// WriteStream writes r to dst through a buffered writer, creating parent
// directories. The data lands in a temporary sibling first and is renamed over
// dst once complete, so a failed copy never leaves a truncated file behind.
// When expected is non-negative the written size must match it.
func WriteStream(dst string, r io.Reader, expected int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create parent: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".part-*")
	if err != nil {
		return 0, fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	buf := bufio.NewWriterSize(tmp, bufferSize)
	written, err := io.Copy(buf, r)
	if err != nil {
		cleanup()
		return written, err
	}
	if err := buf.Flush(); err != nil {
		cleanup()
		return written, err
	}
	if expected >= 0 && written != expected {
		cleanup()
		return written, fmt.Errorf("copy size mismatch: expected %d bytes, wrote %d bytes", expected, written)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return written, err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return written, err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return written, err
	}
	return written, nil
}

// CopyFile streams src to dst with WriteStream semantics.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = WriteStream(dst, in, -1)
	return err
}

// HashFile returns the hex BLAKE3 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := blake3.New()
	if _, err := io.Copy(hasher, bufio.NewReaderSize(f, bufferSize)); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashBytes returns the hex BLAKE3 digest of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
