// Package config resolves the immutable run configuration from flags, the
// environment and an optional .env file, and supplies the URL list.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultParallelism = 8
	DefaultTimeout     = 3 * time.Minute
	DefaultLogLevel    = "info"
	DefaultEnvFile     = ".env"

	envPrefix = "YTBATCH_"
)

// Config is resolved once at startup and only read afterwards.
type Config struct {
	BaseDir          string
	VideoDir         string
	AudioDir         string
	TranscoderPath   string
	URLFile          string
	URLs             []string // inline list; takes precedence over URLFile
	Parallelism      int
	Timeout          time.Duration
	TranscodeTimeout time.Duration
	LenientExit      bool
	RateLimit        float64
	Tags             bool
	CatalogPath      string
	ListCatalog      bool // print the catalog and exit
	LogLevel         string
	JSON             bool
	Quiet            bool
}

// Workers returns the worker pool size, defaulting to DefaultParallelism.
func (c Config) Workers() int {
	if c.Parallelism <= 0 {
		return DefaultParallelism
	}
	return c.Parallelism
}

// Validate reports settings that cannot be used as given.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.VideoDir) == "" {
		errs = append(errs, errors.New("video directory is empty"))
	}
	if strings.TrimSpace(c.AudioDir) == "" {
		errs = append(errs, errors.New("audio directory is empty"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative: %s", c.Timeout))
	}
	if c.TranscodeTimeout < 0 {
		errs = append(errs, fmt.Errorf("transcode timeout must not be negative: %s", c.TranscodeTimeout))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate must not be negative: %g", c.RateLimit))
	}
	if c.ListCatalog && strings.TrimSpace(c.CatalogPath) == "" {
		errs = append(errs, errors.New("-list needs a catalog path"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Getenv looks up an environment variable.
type Getenv func(key string) string

// Parse resolves a Config from command-line args (without the program name).
// Precedence is flag, then environment, then the .env file, then defaults.
// Positional arguments become the inline URL list.
func Parse(args []string, getenv Getenv, usage io.Writer) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	fs := flag.NewFlagSet("ytbatch", flag.ContinueOnError)
	if usage != nil {
		fs.SetOutput(usage)
	}

	var (
		baseDir, ffmpegPath, videoDir, audioDir, links string
		parallelism                                     int
		timeout, transcodeTimeout                       time.Duration
		lenient, tags, jsonOut, quiet, list             bool
		rateLimit                                       float64
		catalog, logLevel, envFile                      string
	)
	stringFlag(fs, &baseDir, "", "base directory", "b", "basedir")
	stringFlag(fs, &ffmpegPath, "", "path to the ffmpeg executable", "f", "ffmpeg")
	stringFlag(fs, &videoDir, "", "video output directory (default <basedir>/Videos)", "v", "videodir")
	stringFlag(fs, &audioDir, "", "audio output directory (default <basedir>/Audio)", "a", "audiodir")
	stringFlag(fs, &links, "", "file with one URL per line (default <basedir>/urls.txt)", "l", "links")
	fs.IntVar(&parallelism, "p", 0, "number of items processed in parallel (default 8)")
	fs.IntVar(&parallelism, "parallelization", 0, "alias for -p")
	fs.DurationVar(&timeout, "timeout", DefaultTimeout, "per-request HTTP timeout (0 disables)")
	fs.DurationVar(&transcodeTimeout, "transcode-timeout", 0, "limit for a single transcoder run (0 disables)")
	fs.BoolVar(&lenient, "lenient-exit", false, "ignore non-zero transcoder exit status")
	fs.Float64Var(&rateLimit, "rate", 0, "max metadata lookups per second (0 = unlimited)")
	fs.BoolVar(&tags, "tags", true, "write ID3 tags into extracted mp3 files")
	fs.StringVar(&catalog, "catalog", "", "SQLite catalog of produced artifacts (empty disables)")
	fs.BoolVar(&list, "list", false, "print the artifacts recorded in -catalog and exit")
	fs.StringVar(&logLevel, "log-level", DefaultLogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&jsonOut, "json", false, "emit one JSON object per item")
	fs.BoolVar(&quiet, "quiet", false, "only report failures")
	fs.StringVar(&envFile, "env", DefaultEnvFile, "dotenv file with YTBATCH_* settings")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	isSet := func(names ...string) bool {
		for _, n := range names {
			if set[n] {
				return true
			}
		}
		return false
	}

	dotenv, err := readEnvFile(envFile, isSet("env"))
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) string {
		if v := getenv(envPrefix + key); v != "" {
			return v
		}
		return dotenv[envPrefix+key]
	}

	var errs []error
	pickString := func(flagVal string, flagSet bool, key string) string {
		if flagSet {
			return flagVal
		}
		return lookup(key)
	}

	cfg := Config{
		BaseDir:          pickString(baseDir, isSet("b", "basedir"), "BASE_DIR"),
		TranscoderPath:   pickString(ffmpegPath, isSet("f", "ffmpeg"), "FFMPEG"),
		VideoDir:         pickString(videoDir, isSet("v", "videodir"), "VIDEO_DIR"),
		AudioDir:         pickString(audioDir, isSet("a", "audiodir"), "AUDIO_DIR"),
		URLFile:          pickString(links, isSet("l", "links"), "LINKS"),
		CatalogPath:      pickString(catalog, isSet("catalog"), "CATALOG"),
		LogLevel:         pickString(logLevel, isSet("log-level"), "LOG_LEVEL"),
		Parallelism:      parallelism,
		Timeout:          timeout,
		TranscodeTimeout: transcodeTimeout,
		LenientExit:      lenient,
		RateLimit:        rateLimit,
		Tags:             tags,
		ListCatalog:      list,
		JSON:             jsonOut,
		Quiet:            quiet,
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if !isSet("p", "parallelization") {
		if v := lookup("PARALLELISM"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%sPARALLELISM: %w", envPrefix, err))
			}
			cfg.Parallelism = n
		}
	}
	if !isSet("timeout") {
		if v := lookup("TIMEOUT"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", envPrefix, err))
			}
			cfg.Timeout = d
		}
	}
	if !isSet("transcode-timeout") {
		if v := lookup("TRANSCODE_TIMEOUT"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%sTRANSCODE_TIMEOUT: %w", envPrefix, err))
			}
			cfg.TranscodeTimeout = d
		}
	}
	if !isSet("lenient-exit") {
		if v := lookup("LENIENT_EXIT"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%sLENIENT_EXIT: %w", envPrefix, err))
			}
			cfg.LenientExit = b
		}
	}
	if !isSet("tags") {
		if v := lookup("TAGS"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%sTAGS: %w", envPrefix, err))
			} else {
				cfg.Tags = b
			}
		}
	}
	if !isSet("rate") {
		if v := lookup("RATE"); v != "" {
			r, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%sRATE: %w", envPrefix, err))
			}
			cfg.RateLimit = r
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	cfg.URLs = cleanURLs(fs.Args())
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() error {
	if c.BaseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving default base directory: %w", err)
		}
		c.BaseDir = filepath.Join(home, "YoutubeDownloader")
	}
	if c.TranscoderPath == "" {
		name := "ffmpeg"
		if runtime.GOOS == "windows" {
			name = "ffmpeg.exe"
		}
		c.TranscoderPath = filepath.Join(c.BaseDir, name)
	}
	if c.VideoDir == "" {
		c.VideoDir = filepath.Join(c.BaseDir, "Videos")
	}
	if c.AudioDir == "" {
		c.AudioDir = filepath.Join(c.BaseDir, "Audio")
	}
	if c.URLFile == "" {
		c.URLFile = filepath.Join(c.BaseDir, "urls.txt")
	}
	return nil
}

// stringFlag registers the same variable under several names.
func stringFlag(fs *flag.FlagSet, p *string, value, usage string, names ...string) {
	for i, name := range names {
		if i == 0 {
			fs.StringVar(p, name, value, usage)
			continue
		}
		fs.StringVar(p, name, value, "alias for -"+names[0])
	}
}

// readEnvFile loads a dotenv file without touching the process environment.
// A missing default file is not an error; a missing explicit one is.
func readEnvFile(path string, explicit bool) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return values, nil
}
