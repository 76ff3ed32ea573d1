package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// URLList returns the URLs to process: the inline list when present,
// otherwise the lines of URLFile.
func (c Config) URLList() ([]string, error) {
	if len(c.URLs) > 0 {
		return append([]string(nil), c.URLs...), nil
	}
	file, err := os.Open(c.URLFile)
	if err != nil {
		return nil, fmt.Errorf("opening url list: %w", err)
	}
	defer file.Close()
	return ReadURLs(file)
}

// ReadURLs reads one URL per line. Surrounding whitespace is trimmed; blank
// lines and lines starting with '#' are ignored.
func ReadURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading url list: %w", err)
	}
	return urls, nil
}

func cleanURLs(args []string) []string {
	var urls []string
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			urls = append(urls, arg)
		}
	}
	return urls
}

// EnsureDirs creates the base, video and audio directories if missing.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.BaseDir, c.VideoDir, c.AudioDir} {
		if dir == "" {
			continue
		}
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%s exists and is not a directory", dir)
			}
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
