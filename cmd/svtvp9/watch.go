/*
NAME
  watch.go

DESCRIPTION
  watch.go provides reading of the svtvp9 config file and watching of it for
  changes, which are applied to the running encoder.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ausocean/utils/logging"
)

// readVars reads a file of Name=Value lines. Blank lines and lines starting
// with # are ignored.
func readVars(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars := make(map[string]string)
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected Name=Value", n)
		}
		vars[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return vars, sc.Err()
}

// changed returns the variables of vars that differ from prev.
func changed(prev, vars map[string]string) map[string]string {
	diff := make(map[string]string)
	for k, v := range vars {
		if p, ok := prev[k]; !ok || p != v {
			diff[k] = v
		}
	}
	return diff
}

// reconfigurer is implemented by the encoder.
type reconfigurer interface {
	Reconfigure(vars map[string]string) error
}

// watchConfig applies changes of the config file at path to enc until ctx
// is done. vars holds the variables the encoder was started with. The
// file's directory is watched so that files replaced by editors are seen.
func watchConfig(ctx context.Context, path string, vars map[string]string, enc reconfigurer, log logging.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	path = filepath.Clean(path)
	err = w.Add(filepath.Dir(path))
	if err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		prev := vars
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				next, err := readVars(path)
				if err != nil {
					log.Warning(pkg+"could not read config file", "error", err.Error())
					continue
				}
				diff := changed(prev, next)
				if len(diff) == 0 {
					continue
				}
				log.Info("config file changed", "vars", diff)
				err = enc.Reconfigure(diff)
				if err != nil {
					log.Warning(pkg+"could not reconfigure encoder", "error", err.Error())
					continue
				}
				prev = next
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warning(pkg+"config watcher error", "error", err.Error())
			}
		}
	}()
	return nil
}
