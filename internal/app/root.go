package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/helheim/content_ranker/internal/config"
)

// rootMarkers identify a ranker workspace. The config file is optional, so the legacy
// weight files and input dirs count as well.
var rootMarkers = []string{
	config.FileName,
	"items-config.yml",
	"mob-config.yml",
	"items",
	"mobs",
}

// FindRoot looks for a ranker workspace in the working directory and its parents.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

func FindRootFrom(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for i := 0; i < 10; i++ {
		for _, m := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("cannot find app root from %q (expected %s, items-config.yml or an items/ dir in this dir or any parent)", start, config.FileName)
}
