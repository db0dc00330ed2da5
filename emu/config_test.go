package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
)

func TestConfigDir(t *testing.T) {
	if filepath.Base(ConfigDir) != "nitro" {
		t.Errorf("ConfigDir = %q, want a nitro-named directory", ConfigDir)
	}
	fi, err := os.Stat(ConfigDir)
	if err != nil {
		t.Fatalf("ConfigDir not created: %v", err)
	}
	if !fi.IsDir() {
		t.Errorf("ConfigDir %q is not a directory", ConfigDir)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.Disable = true
	cfg.Audio.Out.BufferSize = 512
	cfg.Log = []string{"spu", "hwio"}

	path := filepath.Join(t.TempDir(), cfgFilename)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got := DefaultConfig()
	if _, err := toml.DecodeFile(path, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}
