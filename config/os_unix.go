//go:build !windows

package config

import (
	"os"
	"unicode"
)

const forbiddenFileChars = ""

func trailingFileChar(r rune) bool {
	return unicode.IsSpace(r)
}

func reservedFileName(string) bool {
	return false
}

func enableTerminalSequences(*os.File) bool {
	return true
}
