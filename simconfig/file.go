package simconfig

import (
	"os"

	"github.com/go-errors/errors"
	"github.com/jessevdk/go-flags"
)

// LoadConfigFile applies the ini-style config file at path onto cfg,
// mirroring lnd's layered config resolution: defaults first, then a config
// file, then command-line flags (applied by the caller afterward). A
// missing file is not an error, since the file is optional.
func LoadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	parser := flags.NewParser(cfg, flags.Default)
	if err := flags.NewIniParser(parser).ParseFile(path); err != nil {
		return errors.WrapPrefix(err, "simconfig: parsing config file "+path, 0)
	}
	return nil
}
