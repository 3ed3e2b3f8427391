package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/giongto35/retroav/pkg/logger"
)

// Watch reloads the config file each time it is changed and passes
// the new values to fn. It blocks until ctx is done.
func Watch(ctx context.Context, file string, fn func(Config), log *logger.Logger) error {
	log = logger.OrDefault(log).Module("config")
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// the dir is watched as editors tend to replace files
	file = filepath.Clean(file)
	if err = watcher.Add(filepath.Dir(file)); err != nil {
		return err
	}
	log.Debug().Msgf("Watching %v", file)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != file || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			conf := Default()
			if err := LoadConfig(&conf, filepath.Dir(file)); err != nil {
				log.Warn().Err(err).Msg("config reload")
				continue
			}
			log.Info().Msg("Config reloaded")
			fn(conf)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("config watch")
		}
	}
}
