package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"

	"slate/config"
)

// filetype needs no more than this to recognize anything it knows about.
const headerSize = 262

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:n], nil
}

// isArchiveFile checks extension first and then file signature.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := readHeader(path)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// isSourceFile accepts files with one of the configured extensions which do
// not look like any known binary format.
func isSourceFile(path string, cfg *config.CompilerConfig) (bool, error) {
	if !cfg.IsSource(filepath.Ext(path)) {
		return false, nil
	}
	head, err := readHeader(path)
	if err != nil {
		return false, err
	}
	return isText(head), nil
}

func isText(head []byte) bool {
	if len(head) == 0 {
		return true
	}
	kind, err := filetype.Match(head)
	if err != nil {
		return false
	}
	return kind == types.Unknown
}

// decodeSource returns source text. When label is not empty data is decoded
// from named character set, otherwise UTF-8 is assumed if data is valid and
// encoding is guessed if it is not.
func decodeSource(data []byte, label string) (string, error) {
	if len(label) > 0 {
		r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("unable to decode source from %q: %w", label, err)
		}
		text, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("unable to decode source from %q: %w", label, err)
		}
		return string(bytes.TrimPrefix(text, utf8BOM)), nil
	}

	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	enc, name, _ := charset.DetermineEncoding(data, "text/css")
	text, err := decodeWith(enc, data)
	if err != nil {
		return "", fmt.Errorf("unable to decode source from detected %q: %w", name, err)
	}
	return text, nil
}

func decodeWith(enc encoding.Encoding, data []byte) (string, error) {
	text, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimPrefix(text, utf8BOM)), nil
}
