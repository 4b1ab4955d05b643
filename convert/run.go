package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"
	yaml "gopkg.in/yaml.v3"

	"inliner/archive"
	"inliner/dom"
	"inliner/inline"
	"inliner/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")
	if base := cmd.String("base-url"); len(base) > 0 {
		env.BaseURL = base
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	if err := env.PrepareConversion(); err != nil {
		return fmt.Errorf("unable to prepare conversion: %w", err)
	}
	defer func() {
		if er := env.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close stylesheet cache: %w", er))
		}
	}()

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.String("base", env.BaseURL))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)), zap.Int("documents", len(env.Results)))
	}(time.Now())

	err = process(ctx, src, dst, log)

	if report := cmd.String("report"); len(report) > 0 {
		if er := writeResults(report, env.Results); er != nil {
			err = multierr.Append(err, er)
		} else {
			log.Info("Conversion report written", zap.String("file", report))
		}
	}
	return err
}

// writeResults saves conversion summaries as YAML document.
func writeResults(fname string, results []inline.Summary) error {
	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("unable to marshal conversion report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
		return fmt.Errorf("unable to create report directory: %w", err)
	}
	if err := os.WriteFile(fname, data, 0644); err != nil {
		return fmt.Errorf("unable to write conversion report: %w", err)
	}
	return nil
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		archive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if archive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		document, err := isHTMLFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if document && len(tail) == 0 {
			// single document, failure is reported to the caller
			file, err := os.Open(head)
			if err != nil {
				return fmt.Errorf("unable to process file: %w", err)
			}
			defer file.Close()
			return processDocument(ctx, file, filepath.Base(head), dst, log)
		}
		return fmt.Errorf("input was not recognized as HTML document (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding HTML documents and archives and
// processes them.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		archive, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if archive {
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		document, err := isHTMLFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !document {
			log.Debug("Skipping file, not recognized as HTML document or archive", zap.String("file", path))
			return nil
		}

		count++

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		defer file.Close()

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processDocument(ctx, file, src, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds HTML documents under
// "pathIn" and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	err = archive.Walk(path, pathIn, func(archive string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		document, err := isHTMLInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", archive), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !document {
			log.Debug("Skipping file, not recognized as HTML document", zap.String("archive", archive), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		if err := processDocument(ctx, r, filepath.Join(pathOut, archiveEntryName(ctx, f, log)), dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// archiveEntryName returns name of archive entry, decoding it with forced
// code page when requested.
func archiveEntryName(ctx context.Context, f *zip.File, log *zap.Logger) string {
	cp := state.EnvFromContext(ctx).CodePage

	name := f.FileHeader.Name
	if cp == nil || !f.FileHeader.NonUTF8 {
		return filepath.FromSlash(name)
	}
	n, err := cp.NewDecoder().String(name)
	if err == nil {
		return filepath.FromSlash(n)
	}
	cs, _ := ianaindex.IANA.Name(cp)
	log.Warn("Unable to convert archive name from specified encoding",
		zap.String("charset", cs), zap.String("path", name), zap.Error(err))
	return filepath.FromSlash(name)
}

// processDocument inlines styles of a single HTML document. "src" is part of
// the source path (always including file name) relative to the original path.
// When actual file was specified it will be just base file name without a
// path. When looking inside archive or directory it will be relative path
// inside archive or directory (including base file name). "dst" is the
// destination directory where the result should be written.
func processDocument(ctx context.Context, r io.Reader, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string
	c := inline.New(env.InlineOptions()...)
	log = log.With(zap.Stringer("id", c.ID()))

	log.Info("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName),
				zap.Float64("support", c.SupportPercentage()), zap.Int("styled", c.View().Len()))
		}
	}(time.Now())

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read source (%s): %w", src, err)
	}
	env.Rpt.StoreData(fmt.Sprintf("%s/source%s", c.ID(), filepath.Ext(src)), data)

	doc, err := dom.Parse(bytes.NewReader(data), "", log)
	if err != nil {
		return fmt.Errorf("unable to parse HTML source (%s): %w", src, err)
	}
	if err := c.Perform(ctx, doc, env.BaseURL); err != nil {
		return fmt.Errorf("unable to inline styles (%s): %w", src, err)
	}

	outputName = buildOutputPath(src, dst, c.ID(), env)

	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, []byte(c.HTML()), 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	for _, p := range c.Unsupported().Properties() {
		log.Debug("Property is not supported by some clients", zap.String("property", p), zap.Strings("clients", c.Unsupported()[p]))
	}

	summary := c.Summary(src, outputName)
	env.Results = append(env.Results, summary)

	// Store conversion result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("%s/result%s", c.ID(), filepath.Ext(outputName)), outputName)
		env.Rpt.StoreData(fmt.Sprintf("%s/dump.txt", c.ID()), []byte(c.String()))
		if data, err := yaml.Marshal(summary); err == nil {
			env.Rpt.StoreData(fmt.Sprintf("%s/summary.yaml", c.ID()), data)
		}
	}
	return nil
}
