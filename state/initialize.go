package state

import (
	"errors"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"inliner/compliance"
	"inliner/fetch"
	"inliner/inline"
	"inliner/misc"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

func (e *LocalEnv) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// LoadTable loads compliance table requested by configuration or built-in
// one.
func (e *LocalEnv) LoadTable() error {
	if e.Cfg == nil {
		return errors.New("configuration is not loaded")
	}
	if e.Table != nil {
		return nil
	}

	path := e.Cfg.Inliner.ComplianceTable
	if path == "" {
		table, err := compliance.Default()
		if err != nil {
			return err
		}
		e.Table = table
		return nil
	}

	table, err := compliance.LoadFile(path)
	if err != nil {
		return err
	}
	e.Table = table
	// table file may change while report is being collected
	if err := e.Rpt.StoreCopy("compliance/"+filepath.Base(path), path); err != nil {
		e.logger().Warn("Unable to store compliance table in report", zap.Error(err))
	}
	e.logger().Debug("Compliance table loaded", zap.String("path", path), zap.Int("clients", table.ClientCount()))
	return nil
}

// PrepareConversion loads compliance table and builds stylesheet fetcher
// according to configuration. Must be called after Cfg and Log are set.
func (e *LocalEnv) PrepareConversion() error {
	if err := e.LoadTable(); err != nil {
		return err
	}
	log := e.logger()

	if e.BaseURL == "" {
		e.BaseURL = e.Cfg.Inliner.BaseURL
	}

	fc := e.Cfg.Fetch
	userAgent := fc.UserAgent
	if userAgent == "" {
		userAgent = misc.GetAppName() + "/" + misc.GetVersion()
	}
	var f fetch.Fetcher = fetch.NewHTTP(fetch.HTTPOptions{
		Timeout:     fc.Timeout,
		UserAgent:   userAgent,
		AuthToken:   fc.AuthToken.Value(),
		MaxBodySize: fc.MaxBodySize,
	}, log)

	if fc.Cache.Path != "" {
		cached, err := fetch.NewCached(f, fc.Cache.Path, fc.Cache.TTL, log)
		if err != nil {
			return err
		}
		e.cache = cached
		f = cached
		log.Debug("Stylesheet cache enabled", zap.String("path", fc.Cache.Path), zap.Duration("ttl", fc.Cache.TTL))
	}
	e.Fetcher = f
	return nil
}

// InlineOptions returns conversion options reflecting current environment.
func (e *LocalEnv) InlineOptions() []inline.Option {
	opts := []inline.Option{
		inline.WithLogger(e.Log),
		inline.WithKeepMediaQueries(e.Cfg.Inliner.KeepMediaQueries),
	}
	if e.Fetcher != nil {
		opts = append(opts, inline.WithFetcher(e.Fetcher))
	}
	if e.Table != nil {
		opts = append(opts, inline.WithTable(e.Table))
	}
	if len(e.Cfg.Inliner.IgnoreTags) > 0 {
		opts = append(opts, inline.WithIgnoreTags(e.Cfg.Inliner.IgnoreTags))
	}
	if len(e.Cfg.Inliner.RetainPseudoClasses) > 0 {
		opts = append(opts, inline.WithRetainedPseudoClasses(e.Cfg.Inliner.RetainPseudoClasses))
	}
	return opts
}

// Close releases resources acquired by PrepareConversion.
func (e *LocalEnv) Close() error {
	if e.cache == nil {
		return nil
	}
	err := e.cache.Close()
	e.cache = nil
	return err
}
