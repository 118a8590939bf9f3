// Command mep2d serves MEP2 connections, storing messages in a catalogue
// backed by a content arena. Grounded on the teacher's main.go for its
// flag-then-subsystem-startup shape, trimmed to the single subsystem MEP2
// needs: there is no subcommand dispatcher here, just a listener.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mjl-/sconf"

	"github.com/retro-rabbit-hole/MCImail/config"
	"github.com/retro-rabbit-hole/MCImail/mep2server"
	"github.com/retro-rabbit-hole/MCImail/mlog"
	"github.com/retro-rabbit-hole/MCImail/moxio"
	"github.com/retro-rabbit-hole/MCImail/moxvar"
	"github.com/retro-rabbit-hole/MCImail/store"
)

var xlog = mlog.New("mep2d")

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "mep2d.conf", "path to configuration file")
	flag.Parse()

	var cfg config.Static
	if err := sconf.ParseFile(configPath, &cfg); err != nil {
		fatalf("parsing config %s: %s", configPath, err)
	}

	if err := moxio.CheckUmask(); err != nil {
		xlog.Errorx("umask check, catalogue files may be world-readable", err)
	}

	levels := map[string]mlog.Level{"": parseLevel(cfg.LogLevel)}
	for pkg, level := range cfg.PackageLogLevels {
		levels[pkg] = parseLevel(level)
	}
	mlog.SetConfig(levels)

	dataDir := cfg.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(filepath.Dir(configPath), dataDir)
	}
	cat, err := store.OpenCatalogue(dataDir)
	if err != nil {
		fatalf("opening catalogue at %s: %s", dataDir, err)
	}
	defer cat.Close()

	if missing, err := cat.Reconcile(); err != nil {
		xlog.Errorx("reconciling catalogue against content arena", err)
	} else if len(missing) > 0 {
		xlog.Print("catalogue entries missing content file", mlog.Field("count", len(missing)))
	}

	if cfg.Listen.MaxMsgSize == 0 {
		cfg.Listen.MaxMsgSize = config.DefaultMaxMsgSize
	}
	if cfg.Listen.ChecksumErrorLimit == 0 {
		cfg.Listen.ChecksumErrorLimit = config.DefaultChecksumErrorLimit
	}

	xlog.Print("starting", mlog.Field("addr", cfg.Listen.Addr), mlog.Field("datadir", dataDir), mlog.Field("version", moxvar.Version))
	if err := mep2server.Listen(cfg, cat); err != nil {
		fatalf("listening: %s", err)
	}
}

func parseLevel(s string) mlog.Level {
	if s == "" {
		return mlog.LevelInfo
	}
	level, ok := mlog.Levels[s]
	if !ok {
		fatalf("unknown log level %q", s)
	}
	return level
}

func fatalf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, "mep2d: "+fmt.Sprintf(format, args...))
	os.Exit(1)
}
