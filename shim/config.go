package shim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
)

const configFilename = "config.json"

// The slice of the OCI bundle config the shim actually cares about.
type bundleRoot struct {
	// Path is the path to the rootfs
	Path string `json:"path"`
}

type bundleProcess struct {
	// Args is the command to run
	Args []string `json:"args"`
	// Env is the environment variables to set
	Env []string `json:"env"`
}

type bundleConfig struct {
	Root    bundleRoot    `json:"root"`
	Process bundleProcess `json:"process"`
}

// Config is what the shim needs to run a container: where the rootfs is,
// which .bf file inside it to interpret, and with how much tape.
type Config struct {
	Root       string
	Entrypoint string
	Path       []string
	// Memory is the tape length requested via the BF_MEMORY environment
	// variable, or 0 for the interpreter default.
	Memory int
}

// ReadConfig reads the bundle's config.json from the given directory and
// checks that it describes something this runtime can actually run: a
// single-argument CMD naming an existing .bf script in the rootfs.
func ReadConfig(path string) (*Config, error) {
	filePath := filepath.Join(path, configFilename)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file %s: %w", configFilename, errdefs.ErrNotFound)
		}
		return nil, err
	}

	var config bundleConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configFilename, err)
	}

	if config.Root.Path == "" {
		return nil, fmt.Errorf("root path not found in config file %s: %w", configFilename, errdefs.ErrInvalidArgument)
	}

	if len(config.Process.Args) != 1 {
		return nil, fmt.Errorf("incorrect number of args in the CMD, expected 1, got %d: %w", len(config.Process.Args), errdefs.ErrInvalidArgument)
	}

	arg0 := config.Process.Args[0]

	if !(filepath.Ext(arg0) == ".bf" || filepath.Ext(arg0) == ".brainfuck") {
		return nil, fmt.Errorf("entry point (%s) is not a .bf file: %w", arg0, errdefs.ErrInvalidArgument)
	}

	// check that the script exists in the rootfs
	script := filepath.Join(config.Root.Path, arg0)
	if _, err := os.Stat(script); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("script %s does not exist: %w", arg0, errdefs.ErrNotFound)
		}
		return nil, fmt.Errorf("checking script %s: %w", arg0, err)
	}

	split_path := []string{}
	memory := 0
	for _, env := range config.Process.Env {
		switch {
		case strings.HasPrefix(env, "PATH="):
			split_path = strings.Split(env[len("PATH="):], ":")
		case strings.HasPrefix(env, "BF_MEMORY="):
			memory, err = strconv.Atoi(env[len("BF_MEMORY="):])
			if err != nil {
				return nil, fmt.Errorf("parsing BF_MEMORY: %w", errdefs.ErrInvalidArgument)
			}
		}
	}

	return &Config{
		Root:       config.Root.Path,
		Entrypoint: arg0,
		Path:       split_path,
		Memory:     memory,
	}, nil
}

func (c *Config) FullPath() string {
	return filepath.Join(c.Root, c.Entrypoint)
}
