package config

import (
	"fmt"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var Path = "url-previewer.yaml"

var instance *MainRepoConfig
var singletonLock = &sync.Mutex{}

// Load reads the configuration at the given path over top of the defaults. A missing file is
// created from the defaults; a directory has every file inside it loaded in name order.
func Load(p string) (*MainRepoConfig, error) {
	c := NewDefaultMainConfig()

	// Write a default config if the one given doesn't exist
	_, err := os.Stat(p)
	exists := err == nil || !os.IsNotExist(err)
	if !exists {
		fmt.Println("Generating new configuration...")
		configBytes, err := yaml.Marshal(c)
		if err != nil {
			return nil, err
		}
		if err = os.WriteFile(p, configBytes, 0644); err != nil {
			return nil, err
		}
	}

	// Get new info about the possible directory after creating
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}

	pathsOrdered := make([]string, 0)
	if info.IsDir() {
		logrus.Info("Config is a directory - loading all files over top of each other")

		files, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			if f.IsDir() {
				continue
			}
			pathsOrdered = append(pathsOrdered, path.Join(p, f.Name()))
		}

		sort.Strings(pathsOrdered)
	} else {
		pathsOrdered = append(pathsOrdered, p)
	}

	for _, fp := range pathsOrdered {
		logrus.Info("Loading config file: ", fp)
		buffer, err := os.ReadFile(fp)
		if err != nil {
			return nil, err
		}
		if err = yaml.Unmarshal(buffer, &c); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", fp, err)
		}
	}

	c.Validate()
	return &c, nil
}

func Get() *MainRepoConfig {
	singletonLock.Lock()
	defer singletonLock.Unlock()
	if instance == nil {
		c, err := Load(Path)
		if err != nil {
			logrus.Fatal(err)
		}
		instance = c
	}
	return instance
}

func Set(c *MainRepoConfig) {
	singletonLock.Lock()
	instance = c
	singletonLock.Unlock()
}
