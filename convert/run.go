// Package convert drives compilation of stylesheet sources found in files,
// directories and zip archives.
package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"slate/archive"
	"slate/cache"
	"slate/config"
	"slate/state"
)

var defineName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src, dst, err := resolvePaths(cmd, log)
	if err != nil {
		return err
	}

	if err := prepareEnv(cmd, env, log); err != nil {
		return err
	}
	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	if err := openCache(env, log); err != nil {
		return err
	}
	defer closeCache(env, log)

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

func resolvePaths(cmd *cli.Command, log *zap.Logger) (src, dst string, err error) {
	src = cmd.Args().Get(0)
	if len(src) == 0 {
		return "", "", errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return "", "", err
	}

	dst = cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return "", "", fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return "", "", err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	return src, dst, nil
}

// prepareEnv moves common compilation flags into program state.
func prepareEnv(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) error {
	defines, err := parseDefines(cmd.StringSlice("define"))
	if err != nil {
		return err
	}
	env.Defines = env.Cfg.Compiler.Defines(defines)
	if len(env.Defines) > 0 {
		log.Debug("Variables defined", zap.Any("variables", env.Defines))
	}

	env.Verify = env.Cfg.Compiler.Verify || cmd.Bool("verify")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}
	return nil
}

// parseDefines turns "name=expression" pairs into variable overrides, later
// pairs win.
func parseDefines(pairs []string) (map[string]string, error) {
	defines := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, expr, ok := strings.Cut(pair, "=")
		name, expr = strings.TrimSpace(name), strings.TrimSpace(expr)
		if !ok || len(expr) == 0 {
			return nil, fmt.Errorf("bad variable definition %q, expected name=expression", pair)
		}
		if !defineName.MatchString(name) {
			return nil, fmt.Errorf("bad variable name %q", name)
		}
		defines[name] = expr
	}
	return defines, nil
}

func openCache(env *state.LocalEnv, log *zap.Logger) (err error) {
	if len(env.Cfg.Compiler.CachePath) == 0 {
		return nil
	}
	if env.Builds, err = cache.Open(env.Cfg.Compiler.CachePath, log); err != nil {
		return err
	}
	return nil
}

func closeCache(env *state.LocalEnv, log *zap.Logger) {
	if err := env.Builds.Close(); err != nil {
		log.Warn("Unable to close build cache", zap.Error(err))
	}
	env.Builds = nil
}

// tally keeps track of sources processed by a single run.
type tally struct {
	total, skipped int
	errs           error
}

func (t *tally) fail(from string, err error) {
	t.errs = multierr.Append(t.errs, fmt.Errorf("%s: %w", from, err))
}

func (t *tally) result() error {
	if t.errs == nil {
		return nil
	}
	return fmt.Errorf("%d of %d sources failed: %w", len(multierr.Errors(t.errs)), t.total, t.errs)
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	t := &tally{}

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
			if err := processDir(ctx, head, dst, t, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := processArchive(ctx, head, tail, "", dst, t, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		source, err := isSourceFile(head, &state.EnvFromContext(ctx).Cfg.Compiler)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if !source {
			return fmt.Errorf("input was not recognized as stylesheet source (%s)", head)
		}
		processFile(ctx, head, filepath.Base(head), dst, t, log)
		break
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	log.Debug("Sources processed", zap.Int("total", t.total), zap.Int("up to date", t.skipped))
	return t.result()
}

// processDir walks directory tree finding stylesheet sources and archives
// and processes them.
func processDir(ctx context.Context, dir, dst string, t *tally, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)
	count := t.total
	defer func() {
		if err == nil && count == t.total {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if info.IsDir() {
			if path != dir && env.Cfg.Watch.SkipHidden && config.IsHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, t, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				t.fail(path, err)
			}
			return nil
		}

		source, err := isSourceFile(path, &env.Cfg.Compiler)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !source {
			log.Debug("Skipping file, not recognized as source or archive", zap.String("file", path))
			return nil
		}

		processFile(ctx, path, strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator)), dst, t, log)
		return nil
	})
}

func processFile(ctx context.Context, path, src, dst string, t *tally, log *zap.Logger) {
	t.total++

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		t.fail(path, err)
		return
	}
	skipped, err := processSource(ctx, data, path, src, dst, log)
	if err != nil {
		log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		t.fail(path, err)
		return
	}
	if skipped {
		t.skipped++
	}
}

// processArchive walks all files inside archive, finds sources under
// "pathIn" and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, t *tally, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)
	count := t.total
	defer func() {
		if err == nil && count == t.total {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	match := func(name string) bool {
		return env.Cfg.Compiler.IsSource(filepath.Ext(name))
	}

	return archive.Walk(path, pathIn, match, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		pathInArchive, err := archive.EntryName(f, env.CodePage)
		if err != nil {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Warn("Unable to convert archive name from specified encoding",
				zap.String("charset", n), zap.String("path", f.FileHeader.Name), zap.Error(err))
		}
		from := arc + "/" + f.FileHeader.Name

		data, err := archive.ReadEntry(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", arc), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !isText(data[:min(len(data), headerSize)]) {
			log.Debug("Skipping file, not recognized as source", zap.String("archive", arc), zap.String("file", f.FileHeader.Name))
			return nil
		}

		t.total++
		skipped, err := processSource(ctx, data, from, filepath.Join(pathOut, filepath.FromSlash(pathInArchive)), dst, log)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			t.fail(from, err)
			return nil
		}
		if skipped {
			t.skipped++
		}
		return nil
	})
}

// processSource compiles single stylesheet. "from" identifies where data came
// from (file path or archive path followed by entry name). "src" is part of
// the source path (always including file name) relative to the original path.
// When actual file was specified it will be just base file name without a
// path. When looking inside archive or directory it will be relative path
// inside archive or directory (including base file name). "dst" is the
// destination directory where the result should be written. Returns true
// when build cache says the same output has already been written.
func processSource(ctx context.Context, data []byte, from, src, dst string, log *zap.Logger) (skipped bool, rerr error) {
	env := state.EnvFromContext(ctx)

	var (
		outputName string
		result     []byte
	)

	log.Debug("Conversion starting", zap.String("from", from))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		}
		if skipped {
			return
		}
		// Store conversion input and result for debugging
		refID := env.Rpt.StoreCompilation(from, data, result, rerr)
		if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("from", from), zap.String("to", outputName), zap.String("ref_id", refID))
		}
	}(time.Now())

	text, err := decodeSource(data, env.Cfg.Compiler.SourceCharset)
	if err != nil {
		return false, err
	}

	sheet, err := env.Compiler().Parse(text)
	if err != nil {
		return false, err
	}
	out, err := sheet.Evaluate(env.Defines)
	if err != nil {
		return false, err
	}

	// Determine output file name and path based on input and configuration.
	// Template may depend on compiled content, so it is known only now.
	outputName = buildOutputPath(out, src, dst, env)

	digest := cache.Digest(text, env.Defines)
	if env.Builds.Fresh(from, digest, outputName) {
		log.Debug("Source is up to date", zap.String("from", from), zap.String("to", outputName))
		return true, nil
	}

	result = []byte(out.String())
	if len(result) > 0 {
		result = append(result, '\n')
	}

	if env.Verify {
		if err := verifyOutput(out, result, src, log); err != nil {
			return false, fmt.Errorf("output verification failed: %w", err)
		}
	}

	if samePath(outputName, from) {
		return false, fmt.Errorf("output would overwrite its own source: %s", outputName)
	}

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return false, fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return false, err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return false, fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, result, 0644); err != nil {
		return false, fmt.Errorf("unable to write output: %w", err)
	}

	if err := env.Builds.Remember(from, digest, outputName); err != nil {
		log.Warn("Unable to update build cache", zap.String("from", from), zap.Error(err))
	}
	return false, nil
}

func samePath(a, b string) bool {
	a, errA := filepath.Abs(a)
	b, errB := filepath.Abs(b)
	return errA == nil && errB == nil && a == b
}
