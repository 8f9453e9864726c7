package main

import (
	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/settings"
)

// errNoSuchFile reports a command-line path that could not be used: either
// it has no tracked file row (untag) or it does not exist on disk (tag). It
// returns an errs.FileNotFound error, the same kind repair uses.
func errNoSuchFile(path string) error {
	return errs.FileNotFound(path)
}

func settingOrDefault(s *settings.Settings, name string) string {
	value, _ := s.Get(name)
	return value
}
