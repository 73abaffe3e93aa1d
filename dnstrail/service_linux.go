package main

import "github.com/coreos/go-systemd/daemon"

func ServiceManagerStartNotify() error {
	daemon.SdNotify(false, "STATUS=Starting dnstrail")
	return nil
}

// ServiceManagerReadyNotify runs once the listeners are accepting queries.
func ServiceManagerReadyNotify() {
	daemon.SdNotify(false, "READY=1\nSTATUS=Walking delegations")
}
