package config

import (
	"os"
	"path/filepath"

	"github.com/kkyr/fig"
)

const (
	EnvPrefix = "RETROAV"
	FileName  = "config.yaml"
)

func dirs(path string) []string {
	if path != "" {
		return []string{path}
	}
	d := []string{".", "configs", "../../configs"}
	if home, err := os.UserHomeDir(); err == nil {
		d = append(d, filepath.Join(home, ".retroav"))
	}
	return d
}

// LoadConfig loads a configuration file into the given struct.
// The path param specifies a custom dir of the configuration file.
// Reads and puts environment variables with the prefix RETROAV_.
// Params from the config should be in uppercase separated with _.
func LoadConfig(config any, path string) error {
	return fig.Load(config, fig.File(FileName), fig.Dirs(dirs(path)...), fig.UseEnv(EnvPrefix))
}

func LoadConfigEnv(config any) error {
	return fig.Load(config, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
}

// Load reads the config from a file in the path dir (or the default dirs),
// falling back to the env variables only when there is no file.
func Load(path string) (Config, error) {
	conf := Default()
	if Locate(path) == "" {
		return conf, LoadConfigEnv(&conf)
	}
	return conf, LoadConfig(&conf, path)
}

// Locate returns the config file that Load would use or an empty string.
func Locate(path string) string {
	for _, d := range dirs(path) {
		f := filepath.Join(d, FileName)
		if st, err := os.Stat(f); err == nil && !st.IsDir() {
			return f
		}
	}
	return ""
}
