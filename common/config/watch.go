package config

import (
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

type ReloadListener func(configNow *MainRepoConfig, configNew *MainRepoConfig)

var listenersLock = &sync.Mutex{}
var listeners = make([]ReloadListener, 0)

// OnReload registers a function to be called after the configuration has been reloaded from disk.
func OnReload(fn ReloadListener) {
	listenersLock.Lock()
	listeners = append(listeners, fn)
	listenersLock.Unlock()
}

func Watch() *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.Fatal(err)
	}

	err = watcher.Add(Path)
	if err != nil {
		logrus.Fatal(err)
	}

	go func() {
		debounced := debounce.New(1 * time.Second)
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				debounced(onFileChanged)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.Error("error in config watcher:", err)
			}
		}
	}()

	return watcher
}

func onFileChanged() {
	logrus.Info("Config file change detected - reloading")
	configNow := Get()
	configNew, err := Load(Path)
	if err != nil {
		logrus.Error("Error reloading configuration - ignoring")
		logrus.Error(err)
		return
	}

	logrus.Info("Applying reloaded config live")
	Set(configNew)

	logChange := configNew.General.LogDirectory != configNow.General.LogDirectory
	if logChange {
		logrus.Warn("Log directory changed - restart the previewer to apply changes")
	}

	listenersLock.Lock()
	toCall := append(make([]ReloadListener, 0, len(listeners)), listeners...)
	listenersLock.Unlock()
	for _, fn := range toCall {
		fn(configNow, configNew)
	}
}
