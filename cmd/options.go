// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/luthersystems/perlmro/analysis"
	"github.com/luthersystems/perlmro/mro"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Option configures an exported command factory (LintCommand, MROCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	session *analysis.Session
	log     logrus.FieldLogger
}

func newCmdConfig(opts []Option) *cmdConfig {
	cfg := &cmdConfig{}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithSession injects an already indexed session.  Commands given a
// session do not scan the workspace roots.
func WithSession(s *analysis.Session) Option {
	return func(c *cmdConfig) { c.session = s }
}

// WithLogger sets the logger used by the session a command creates.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *cmdConfig) { c.log = log }
}

func (c *cmdConfig) logger() logrus.FieldLogger {
	if c.log != nil {
		return c.log
	}
	return logrus.StandardLogger()
}

// settings is the resolved configuration shared by all commands.
type settings struct {
	Roots         []string
	Include       []string
	Exclude       []string
	Builtins      bool
	Algorithm     mro.Algorithm
	RespectPragma bool
	Debounce      time.Duration
	MetricsAddr   string
}

func loadSettings() (*settings, error) {
	alg, err := mro.ParseAlgorithm(viper.GetString("mro.default"))
	if err != nil {
		return nil, fmt.Errorf("mro.default: %w", err)
	}
	s := &settings{
		Roots:         viper.GetStringSlice("roots"),
		Include:       viper.GetStringSlice("include"),
		Exclude:       viper.GetStringSlice("exclude"),
		Builtins:      viper.GetBool("builtins") && !noBuiltins,
		Algorithm:     alg,
		RespectPragma: viper.GetBool("mro.respect-pragma") && !ignorePragma,
		Debounce:      viper.GetDuration("watch.debounce"),
		MetricsAddr:   viper.GetString("metrics.addr"),
	}
	if len(s.Roots) == 0 {
		s.Roots = []string{"."}
	}
	if s.Debounce <= 0 {
		s.Debounce = analysis.DefaultDebounce
	}
	return s, nil
}

func (s *settings) scanOptions(log logrus.FieldLogger) *analysis.ScanOptions {
	return &analysis.ScanOptions{
		Include: s.Include,
		Exclude: s.Exclude,
		Logger:  log,
	}
}

// workspace is a session together with the settings used to fill it.
type workspace struct {
	*analysis.Session
	settings *settings
	log      logrus.FieldLogger
	owned    bool
}

// release closes the session unless it was injected.
func (ws *workspace) release() {
	if ws.owned {
		ws.Close()
	}
}

// openWorkspace returns the injected session or creates one and indexes the
// configured roots.
func (c *cmdConfig) openWorkspace(ctx context.Context) (*workspace, error) {
	st, err := loadSettings()
	if err != nil {
		return nil, err
	}
	log := c.logger()
	if c.session != nil {
		return &workspace{Session: c.session, settings: st, log: log}, nil
	}
	session := analysis.NewSession(&analysis.Config{
		Algorithm:    st.Algorithm,
		IgnorePragma: !st.RespectPragma,
		NoBuiltins:   !st.Builtins,
		Logger:       log,
	})
	ws := &workspace{Session: session, settings: st, log: log, owned: true}
	if _, err := ws.scan(ctx); err != nil {
		session.Close()
		return nil, err
	}
	return ws, nil
}

// scan indexes the roots, dropping files which no longer exist.
func (ws *workspace) scan(ctx context.Context) (int, error) {
	for _, root := range ws.settings.Roots {
		if _, err := os.Stat(root); err != nil {
			return 0, fmt.Errorf("workspace root: %w", err)
		}
	}
	ws.Index.RemoveFunc(func(path string) bool {
		_, err := os.Stat(path)
		return errors.Is(err, fs.ErrNotExist)
	})
	return analysis.ScanWorkspace(ctx, ws.Index, ws.settings.Roots, ws.settings.scanOptions(ws.log))
}
