package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/htmlclean"
)

// policyFromFlags builds the sanitizing policy selected on the command
// line.
func policyFromFlags(cmd *cobra.Command) (*htmlclean.Policy, error) {
	flags := cmd.Root().PersistentFlags()
	mode, err := flags.GetString("mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get mode flag: %w", err)
	}
	clip, err := flags.GetInt("clip")
	if err != nil {
		return nil, fmt.Errorf("failed to get clip flag: %w", err)
	}
	files, err := flags.GetStringSlice("whitelist")
	if err != nil {
		return nil, fmt.Errorf("failed to get whitelist flag: %w", err)
	}
	replace, err := flags.GetBool("replace-whitelist")
	if err != nil {
		return nil, fmt.Errorf("failed to get replace-whitelist flag: %w", err)
	}

	p := htmlclean.DefaultPolicy()
	p.Logger = logger
	if p.Fidelity, err = htmlclean.ParseFidelity(mode); err != nil {
		return nil, err
	}
	if clip != 0 {
		if err := p.SetClipLength(clip); err != nil {
			return nil, err
		}
	}
	if replace && len(files) == 0 {
		return nil, errors.New("--replace-whitelist needs at least one --whitelist file")
	}
	for i, path := range files {
		w, err := htmlclean.LoadWhitelistFile(path)
		if err != nil {
			return nil, err
		}
		if i == 0 && replace {
			err = p.SetWhitelist(w)
		} else {
			err = p.AddWhitelist(w)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded whitelist", zap.String("path", path))
	}
	return p, nil
}
