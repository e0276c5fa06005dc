package paths

import (
	"os"
	"path/filepath"
)

// AppName is used as the directory name under every XDG base directory
const AppName = "addonctl"

// Dirs holds the per-user directories of the application
type Dirs struct {
	Config string
	Data   string
	Cache  string
}

// Default resolves the XDG base directories, falling back to the usual
// locations under the home directory
func Default() Dirs {
	homeDir, _ := os.UserHomeDir()

	return Dirs{
		Config: filepath.Join(xdg("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config")), AppName),
		Data:   filepath.Join(xdg("XDG_DATA_HOME", filepath.Join(homeDir, ".local", "share")), AppName),
		Cache:  filepath.Join(xdg("XDG_CACHE_HOME", filepath.Join(homeDir, ".cache")), AppName),
	}
}

func xdg(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	return fallback
}

// LogFile returns the path of the log file
func (d Dirs) LogFile() string {
	return filepath.Join(d.Cache, AppName+".log")
}

// ProfilesDB returns the path of the profiles database
func (d Dirs) ProfilesDB() string {
	return filepath.Join(d.Data, "profiles.db")
}

// Journal returns the directory of the push journal repository
func (d Dirs) Journal() string {
	return filepath.Join(d.Data, "journal")
}

// EnsureAll creates every directory
func (d Dirs) EnsureAll() error {
	for _, dir := range []string{d.Config, d.Data, d.Cache} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
