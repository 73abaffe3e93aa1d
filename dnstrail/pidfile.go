package main

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dchest/safefile"
)

var pidFile = flag.String("pidfile", "", "Write the daemon PID to this file")

// PidFileCreate writes the PID atomically, creating missing parent
// directories first. A no-op unless -pidfile was given.
func PidFileCreate() error {
	if pidFile == nil || len(*pidFile) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(*pidFile), 0755); err != nil {
		return err
	}
	pid := []byte(strconv.Itoa(os.Getpid()))
	return safefile.WriteFile(*pidFile, pid, 0644)
}

func PidFileRemove() error {
	if pidFile == nil || len(*pidFile) == 0 {
		return nil
	}
	return os.Remove(*pidFile)
}
