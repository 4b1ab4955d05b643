package config

import (
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"
)

// longest generated file name in bytes, leaves room for extension and
// conversion suffixes within common 255 bytes limit
const maxFileNameLen = 200

const badFileName = "_bad_file_name_"

// CleanFileName makes single path segment safe for local file system: it
// drops path separators, control and platform specific characters, leading
// dots and device names and limits name length.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || strings.ContainsRune(forbiddenFileChars, sym) ||
			sym == os.PathSeparator || sym == os.PathListSeparator {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimLeft(out, ".")
	out = strings.TrimRightFunc(out, trailingFileChar)
	out = truncateName(out, maxFileNameLen)
	if len(out) == 0 || reservedFileName(out) {
		out = badFileName
	}
	return out
}

func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

// EnableColorOutput checks if colorized output is possible. NO_COLOR
// environment variable disables it.
func EnableColorOutput(stream *os.File) bool {
	if len(os.Getenv("NO_COLOR")) > 0 {
		return false
	}
	if !term.IsTerminal(int(stream.Fd())) {
		return false
	}
	return enableTerminalSequences(stream)
}
