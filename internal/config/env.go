package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PROJFIND_"

// envMapping maps environment variables to the preference they override.
var envMapping = map[string]func(p *Preferences, val string) error{
	EnvPrefix + "EXCLUDE_DIRS": func(p *Preferences, val string) error {
		p.Projects.ExcludeDirs = val
		return nil
	},
	EnvPrefix + "EXCLUDE_TYPES": func(p *Preferences, val string) error {
		p.Projects.ExcludeTypes = val
		return nil
	},
	EnvPrefix + "MATCH_CASE": func(p *Preferences, val string) error {
		b, err := parseBool(val)
		if err != nil {
			return err
		}
		p.Search.MatchCase = b
		return nil
	},
	EnvPrefix + "MAX_FILE_SIZE": func(p *Preferences, val string) error {
		n, err := humanize.ParseBytes(val)
		if err != nil {
			return err
		}
		p.Search.MaxFileSize = int64(n)
		return nil
	},
	EnvPrefix + "LOG_LEVEL": func(p *Preferences, val string) error {
		p.Search.LogLevel = strings.ToLower(strings.TrimSpace(val))
		return nil
	},
}

// ApplyEnv returns p with the PROJFIND_* overrides found by lookup applied.
// Empty values are treated as set. lookup is usually os.LookupEnv.
func ApplyEnv(p Preferences, lookup func(string) (string, bool)) (Preferences, error) {
	for name, set := range envMapping {
		val, ok := lookup(name)
		if !ok {
			continue
		}
		if err := set(&p, val); err != nil {
			return Preferences{}, fmt.Errorf("%w: %s=%q", ErrInvalidValue, name, val)
		}
	}
	if err := p.Validate(); err != nil {
		return Preferences{}, err
	}
	return p, nil
}

// parseBool also accepts yes/no and on/off.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}
