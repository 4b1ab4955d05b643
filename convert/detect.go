package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// number of leading bytes used for content sniffing
const sniffLen = 512

var htmlType = types.NewType("html", "text/html")

func init() {
	filetype.AddMatcher(htmlType, htmlMatcher)
}

var htmlSignatures = [][]byte{
	[]byte("<!doctype html"),
	[]byte("<html"),
	[]byte("<head"),
	[]byte("<body"),
}

// htmlMatcher recognizes HTML markup after optional UTF-8 BOM, whitespace
// and comments.
func htmlMatcher(buf []byte) bool {
	buf = bytes.TrimPrefix(buf, []byte{0xEF, 0xBB, 0xBF})
	for {
		buf = bytes.TrimLeft(buf, " \t\r\n\f")
		if !bytes.HasPrefix(buf, []byte("<!--")) {
			break
		}
		end := bytes.Index(buf, []byte("-->"))
		if end < 0 {
			return false
		}
		buf = buf[end+3:]
	}
	for _, sig := range htmlSignatures {
		if len(buf) >= len(sig) && bytes.EqualFold(buf[:len(sig)], sig) {
			return true
		}
	}
	return false
}

func hasHTMLExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

func readHead(r io.Reader) ([]byte, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// isArchiveFile reports whether file is a zip archive by extension and content.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := readHead(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// isHTMLFile reports whether file should be processed as HTML document.
func isHTMLFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head, err := readHead(f)
	if err != nil {
		return false, err
	}
	return isHTML(path, head), nil
}

// isHTMLInArchive reports whether archive entry should be processed as HTML
// document.
func isHTMLInArchive(f *zip.File) (bool, error) {
	r, err := f.Open()
	if err != nil {
		return false, err
	}
	defer r.Close()

	head, err := readHead(r)
	if err != nil {
		return false, err
	}
	return isHTML(f.FileHeader.Name, head), nil
}

func isHTML(name string, head []byte) bool {
	if len(head) == 0 {
		return false
	}
	return hasHTMLExt(name) || filetype.Is(head, htmlType.Extension)
}
