package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"inliner/misc"
)

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

func consoleEncoderConfig(stream *os.File) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if EnableColorOutput(stream) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return ec
}

// belowErrors enables levels starting from min up to (but excluding) errors.
func belowErrors(min zapcore.Level) zap.LevelEnablerFunc {
	return func(lvl zapcore.Level) bool {
		return min <= lvl && lvl < zapcore.ErrorLevel
	}
}

// Prepare returns our standard logger - configured zap logger for use by the
// program. Console output is split: errors go to stderr, everything else to
// stdout. When report is requested file log is always written at debug level
// and stored in the report together with panic log.
func (conf *LoggingConfig) Prepare(rpt *Report) (*zap.Logger, error) {

	consoleEncoderLP := zapcore.NewConsoleEncoder(consoleEncoderConfig(os.Stdout))
	consoleEncoderHP := newEncoder(consoleEncoderConfig(os.Stderr)) // filter errorVerbose

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	consoleCoreLP, consoleCoreHP := zapcore.NewNopCore(), zapcore.NewNopCore()
	switch conf.ConsoleLogger.Level {
	case "normal":
		consoleCoreLP = zapcore.NewCore(consoleEncoderLP, zapcore.Lock(os.Stdout), belowErrors(zapcore.InfoLevel))
		consoleCoreHP = zapcore.NewCore(consoleEncoderHP, zapcore.Lock(os.Stderr), highPriority)
	case "debug":
		consoleCoreLP = zapcore.NewCore(consoleEncoderLP, zapcore.Lock(os.Stdout), belowErrors(zapcore.DebugLevel))
		consoleCoreHP = zapcore.NewCore(consoleEncoderHP, zapcore.Lock(os.Stderr), highPriority)
	}

	fileCore := zapcore.NewNopCore()
	levelRequested, modeRequested := conf.FileLogger.Level, conf.FileLogger.Mode
	if rpt != nil {
		// if report is requested always set maximum available logging level for file logger
		levelRequested, modeRequested = "debug", "overwrite"
	}

	var logLevel zapcore.Level
	switch levelRequested {
	case "debug":
		logLevel = zapcore.DebugLevel
	case "normal":
		logLevel = zapcore.InfoLevel
	default:
		levelRequested = ""
	}

	var newName string
	if levelRequested != "" {
		fileEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())

		// capture panic log if possible, quietly ignore failures
		panicLog := filepath.Join(filepath.Dir(conf.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if ef, _, err := openLogFile(panicLog, misc.GetAppName()+"-panic.*.log", modeRequested); err == nil {
			debug.SetCrashOutput(ef, debug.CrashOptions{})
			rpt.Store("panic.log", ef.Name())
			ef.Close()
		}

		f, redirected, err := openLogFile(conf.FileLogger.Destination, misc.GetAppName()+".*.log", modeRequested)
		if err != nil {
			return nil, fmt.Errorf("unable to access file log destination (%s): %w", conf.FileLogger.Destination, err)
		}
		if redirected {
			newName = f.Name()
		}
		fileCore = zapcore.NewCore(fileEncoder, zapcore.Lock(f), zap.NewAtomicLevelAt(logLevel))
		rpt.Store("final.log", f.Name())
	}

	core := zap.New(zapcore.NewTee(consoleCoreHP, consoleCoreLP, fileCore), zap.AddCaller())
	if len(newName) != 0 {
		// log was redirected - we need to report this
		core.Warn("Log file was redirected to new location", zap.String("location", newName))
	}
	return core.Named(misc.GetAppName()), nil
}

// openLogFile opens requested file and falls back to temporary file created
// using pattern when destination is not accessible.
func openLogFile(fname, pattern, mode string) (*os.File, bool, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if mode == "append" {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	if f, err := os.OpenFile(fname, flags, 0644); err == nil {
		return f, false, nil
	}
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// When logging error to console - do not output verbose message.

type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	var newFields []zapcore.Field
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			// presently superficial - but we may need to shorten what is printed to console in the future
			e := f.Interface.(error)
			f.Interface = errors.New(e.Error())
		}
		newFields = append(newFields, f)
	}
	return c.Encoder.EncodeEntry(ent, newFields)
}
