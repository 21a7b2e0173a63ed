// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"slate/cache"
	"slate/ccss"
	"slate/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by convert and watch subcommands
	NoDirs    bool
	Overwrite bool
	Verify    bool
	// variables from configuration merged with --define values
	Defines  map[string]string
	CodePage encoding.Encoding
	// nil unless compiler.cache_path is configured
	Builds *cache.Builds

	compiler      *ccss.Compiler
	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Compiler returns stylesheet compiler logging to program log, it is created
// on first use.
func (e *LocalEnv) Compiler() *ccss.Compiler {
	if e.compiler == nil {
		e.compiler = ccss.NewCompiler(e.Log)
	}
	return e.compiler
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
