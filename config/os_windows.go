//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
)

const forbiddenFileChars = `<>":/\|?*`

// Explorer refuses names ending with dot or space.
func trailingFileChar(r rune) bool {
	return r == '.' || r == ' ' || r == '\t'
}

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// reservedFileName reports device names, which are reserved with any
// extension.
func reservedFileName(name string) bool {
	base, _, _ := strings.Cut(name, ".")
	_, ok := reservedNames[strings.ToUpper(strings.TrimSpace(base))]
	return ok
}

// enableTerminalSequences turns on VT100 processing, available since
// Windows 10.
func enableTerminalSequences(stream *os.File) bool {
	if windows.RtlGetVersion().MajorVersion < 10 {
		return false
	}

	var mode uint32
	if err := windows.GetConsoleMode(windows.Handle(stream.Fd()), &mode); err != nil {
		return false
	}
	if err := windows.SetConsoleMode(windows.Handle(stream.Fd()), mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err != nil {
		return false
	}
	return true
}
