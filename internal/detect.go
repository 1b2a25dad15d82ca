package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DataPaths holds the local paths wakechat reads and writes
type DataPaths struct {
	BaseDir    string // per-user application directory
	DBPath     string // sqlite file holding persisted chat state
	ConfigPath string // optional YAML config
	EnvPath    string // optional .env file
}

// DetectDataPaths resolves the per-user data directory based on the operating system
func DetectDataPaths() (DataPaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return DataPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var baseDir string
	switch runtime.GOOS {
	case "darwin":
		baseDir = filepath.Join(home, "Library/Application Support/wakechat")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			baseDir = filepath.Join(appData, "wakechat")
		} else {
			baseDir = filepath.Join(home, "AppData", "Roaming", "wakechat")
		}
	default:
		// XDG first, then the conventional dot directory
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			baseDir = filepath.Join(xdg, "wakechat")
		} else {
			baseDir = filepath.Join(home, ".config", "wakechat")
		}
	}

	return PathsIn(baseDir), nil
}

// PathsIn lays out DataPaths under an explicit base directory
func PathsIn(baseDir string) DataPaths {
	return DataPaths{
		BaseDir:    baseDir,
		DBPath:     filepath.Join(baseDir, "state.db"),
		ConfigPath: filepath.Join(baseDir, "config.yaml"),
		EnvPath:    filepath.Join(baseDir, ".env"),
	}
}

// EnsureBaseDir creates the data directory if needed
func (dp DataPaths) EnsureBaseDir() error {
	return os.MkdirAll(dp.BaseDir, 0755)
}

// ConfigExists checks if the YAML config file exists
func (dp DataPaths) ConfigExists() bool {
	info, err := os.Stat(dp.ConfigPath)
	return err == nil && !info.IsDir()
}
