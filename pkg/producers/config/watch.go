// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// settleDelay lets editors finish writing before the file is read again.
const settleDelay = 100 * time.Millisecond

// WatchConfig calls onChange with the reloaded config every time the file at
// path is written or replaced, until ctx is done. The parent directory is
// watched so atomic renames are seen too.
func WatchConfig(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating file watcher: %w", err)
	}

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("error adding %s to watcher: %w", filepath.Dir(target), err)
	}
	log.Info().Str("file", target).Msg("started watching config file for changes")

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					log.Warn().Msg("watcher events channel closed")
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				time.Sleep(settleDelay)

				cfg, err := LoadConfig(target)
				if err != nil {
					log.Error().Err(err).Msg("failed to reload config, keeping previous one")
					continue
				}
				log.Info().Str("file", target).Msg("config reloaded")
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					log.Warn().Msg("watcher errors channel closed")
					return
				}
				log.Error().Err(err).Msg("config watcher encountered an error")
			}
		}
	}()
	return nil
}
