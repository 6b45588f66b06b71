/*
NAME
  file.go

DESCRIPTION
  file.go provides an implementation of the AVDevice interface for raw video
  files.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file provides an implementation of AVDevice for files.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ausocean/utils/logging"
)

// AVFile is an implementation of the AVDevice interface for a file of raw
// video. If looping, reads continue from the start of the file at its end.
type AVFile struct {
	f         *os.File
	path      string
	loop      bool
	isRunning bool
	log       logging.Logger
	mu        sync.Mutex
}

// New returns a new AVFile for the file at path.
func New(l logging.Logger, path string, loop bool) *AVFile {
	return &AVFile{log: l, path: path, loop: loop}
}

// Name returns the name of the device.
func (m *AVFile) Name() string { return "File" }

// Start opens the file.
func (m *AVFile) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	m.f, err = os.Open(m.path)
	if err != nil {
		return fmt.Errorf("could not open video file: %w", err)
	}
	m.isRunning = true
	return nil
}

// Stop closes the file such that any further reads will fail.
func (m *AVFile) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.f == nil {
		return nil
	}
	err := m.f.Close()
	if err != nil {
		return err
	}
	m.isRunning = false
	return nil
}

// Read implements io.Reader. If Start has not been called, or Stop has since
// been called, an error is returned.
func (m *AVFile) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.f == nil || !m.isRunning {
		return 0, errors.New("video file is closed, AVFile not started")
	}

	n, err := m.f.Read(p)
	if n == 0 && err == io.EOF && m.loop {
		m.log.Info("looping input file", "path", m.path)
		_, err = m.f.Seek(0, io.SeekStart)
		if err != nil {
			return 0, fmt.Errorf("could not seek to start of file for input loop: %w", err)
		}
		n, err = m.f.Read(p)
		if err != nil {
			return n, fmt.Errorf("could not read after start seek: %w", err)
		}
	}
	return n, err
}

// IsRunning is used to determine if the AVFile device is running.
func (m *AVFile) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.f != nil && m.isRunning
}
