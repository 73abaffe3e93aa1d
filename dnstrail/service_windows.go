package main

import "golang.org/x/sys/windows/svc/mgr"

// ServiceManagerStartNotify checks that the service control manager is
// reachable; readiness is reported through the manager itself.
func ServiceManagerStartNotify() error {
	scm, err := mgr.Connect()
	if err != nil {
		return err
	}
	scm.Disconnect()
	return nil
}

func ServiceManagerReadyNotify() {}
