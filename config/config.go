package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

type YamlConf struct {
	Chain      string     `yaml:"chain"`
	DB         DB         `yaml:"db"`
	Checkpoint Checkpoint `yaml:"checkpoint"`
	Log        Log        `yaml:"log"`
	Index      Index      `yaml:"index"`
}

type DB struct {
	Path string `yaml:"path"`
}

// Checkpoint locates the memory-mapped last-indexed-height file.
type Checkpoint struct {
	Path string `yaml:"path"`
}

type Log struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type Index struct {
	// ForceRebuild makes on_start_read_from_db ignore a valid checkpoint
	// and replay from height 0.
	ForceRebuild bool `yaml:"force_rebuild"`
	// ProgressEvery controls how often apply_block logs an informational
	// progress line (0 defaults to 100000, matching the distilled spec).
	ProgressEvery int64 `yaml:"progress_every"`
}

func GetBaseDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "./."
	}
	return filepath.Dir(execPath)
}

// InitConfig resolves the config file from the -env CLI flag, defaulting
// to ./ordinal.yaml, joining relative paths against the executable's
// directory.
func InitConfig(configFile string) *YamlConf {
	if configFile == "" {
		for i, item := range os.Args {
			if item == "-env" && i+1 < len(os.Args) {
				configFile = os.Args[i+1]
				break
			}
		}
		if configFile == "" {
			configFile = "./ordinal.yaml"
		}
	}
	if !strings.HasPrefix(configFile, "/") {
		configFile = filepath.Join(GetBaseDir(), configFile)
	}

	fmt.Printf("config file: %s\n", configFile)

	cfg, err := LoadYamlConf(configFile)
	if err != nil {
		return nil
	}
	return cfg
}

func LoadYamlConf(cfgPath string) (*YamlConf, error) {
	confFile, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cfg: %s, error: %s", cfgPath, err)
	}
	defer confFile.Close()

	ret := &YamlConf{}
	decoder := yaml.NewDecoder(confFile)
	if err := decoder.Decode(ret); err != nil {
		return nil, fmt.Errorf("failed to decode cfg: %s, error: %s", cfgPath, err)
	}

	if _, err := logrus.ParseLevel(ret.Log.Level); err != nil {
		ret.Log.Level = "info"
	}
	if ret.Log.Path == "" {
		ret.Log.Path = "log"
	}
	ret.Log.Path = filepath.FromSlash(ret.Log.Path)

	if ret.DB.Path == "" {
		ret.DB.Path = "ordinaldb"
	}
	ret.DB.Path = filepath.FromSlash(ret.DB.Path)

	if ret.Checkpoint.Path == "" {
		ret.Checkpoint.Path = "ordinal_last_indexed"
	}
	ret.Checkpoint.Path = filepath.FromSlash(ret.Checkpoint.Path)

	if ret.Index.ProgressEvery <= 0 {
		ret.Index.ProgressEvery = 100000
	}

	return ret, nil
}
