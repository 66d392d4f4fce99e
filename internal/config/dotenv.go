package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"membership-app-go/pkg/logger"
)

const (
	dotenvFilename = ".env"
	// envFileVar points at an explicit env file and disables the upward search.
	envFileVar = "ENV_FILE"
)

var (
	dotenvKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	dotenvRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

type dotenvEntry struct {
	key   string
	value string
	line  int
	// literal values came from single quotes and skip ${VAR} expansion.
	literal bool
}

type DotEnvError struct {
	Path string
	Line int
	Msg  string
}

func (e *DotEnvError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// loadDotEnv applies the env file to the process environment. Variables that
// are already set win over the file.
func loadDotEnv(log logger.Logger) error {
	path, explicit := os.LookupEnv(envFileVar)
	if !explicit || strings.TrimSpace(path) == "" {
		found, err := findUpwards(dotenvFilename)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		path = found
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	entries, err := readDotEnv(file, path)
	if err != nil {
		return err
	}

	applied, kept, err := applyDotEnv(entries)
	if err != nil {
		return err
	}
	log.Info("config: env file applied", "path", path, "applied", applied, "kept_from_env", kept)
	return nil
}

func findUpwards(filename string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// readDotEnv parses KEY=VALUE lines. Blank lines, comments and an optional
// "export " prefix are accepted; anything else is a DotEnvError.
func readDotEnv(r io.Reader, name string) ([]dotenvEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []dotenvEntry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, raw, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || !dotenvKeyPattern.MatchString(key) {
			return nil, &DotEnvError{Path: name, Line: lineNo, Msg: "expected KEY=VALUE"}
		}

		value, literal, err := dotenvValue(strings.TrimSpace(raw))
		if err != nil {
			return nil, &DotEnvError{Path: name, Line: lineNo, Msg: err.Error()}
		}
		entries = append(entries, dotenvEntry{key: key, value: value, line: lineNo, literal: literal})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func dotenvValue(raw string) (value string, literal bool, err error) {
	if raw == "" {
		return "", false, nil
	}
	switch raw[0] {
	case '"':
		value, err := strconv.Unquote(raw)
		if err != nil {
			return "", false, fmt.Errorf("malformed double-quoted value")
		}
		return value, false, nil
	case '\'':
		if len(raw) < 2 || raw[len(raw)-1] != '\'' {
			return "", false, fmt.Errorf("unterminated single-quoted value")
		}
		return raw[1 : len(raw)-1], true, nil
	}
	if idx := strings.Index(raw, " #"); idx >= 0 {
		raw = strings.TrimSpace(raw[:idx])
	}
	return raw, false, nil
}

// applyDotEnv sets every entry that is not already in the environment.
// ${VAR} references resolve against the environment as it is being built, so
// later lines can use earlier ones.
func applyDotEnv(entries []dotenvEntry) (applied, kept int, err error) {
	for _, entry := range entries {
		if _, exists := os.LookupEnv(entry.key); exists {
			kept++
			continue
		}
		value := entry.value
		if !entry.literal {
			value = expandDotEnv(value)
		}
		if err := os.Setenv(entry.key, value); err != nil {
			return applied, kept, err
		}
		applied++
	}
	return applied, kept, nil
}

func expandDotEnv(value string) string {
	return dotenvRefPattern.ReplaceAllStringFunc(value, func(ref string) string {
		return os.Getenv(dotenvRefPattern.FindStringSubmatch(ref)[1])
	})
}
