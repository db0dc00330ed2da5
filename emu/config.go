package emu

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"nitro/emu/log"
	"nitro/hw"
	"nitro/hw/spu"
)

type Config struct {
	Audio AudioConfig `toml:"audio"`

	// Log modules enabled at startup, same names as the --log flag.
	Log []string `toml:"log"`
}

type AudioConfig struct {
	Disable   bool `toml:"disable"`
	LimitRate bool `toml:"limit_rate"`

	Out hw.AudioConfig `toml:"out"`
}

func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			LimitRate: true,
			Out: hw.AudioConfig{
				SampleRate: spu.SampleRate,
				BufferSize: 1024,
			},
		},
	}
}

var ConfigDir string = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("nitro")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})()

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the configuration from the nitro config
// directory, or provides a default one.
func LoadConfigOrDefault() Config {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(filepath.Join(ConfigDir, cfgFilename), &cfg)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig into the nitro config directory.
func SaveConfig(cfg Config) error {
	f, err := os.Create(filepath.Join(ConfigDir, cfgFilename))
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
