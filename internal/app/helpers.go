// internal/app/helpers.go
package app

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// NormalizeLocalViewer ensures the viewer only binds to localhost
// and returns listen addr, browser URL, and TCP check addr.
func NormalizeLocalViewer(cfgAddr string) (listenAddr string, url string, tcpAddr string) {
	a := strings.TrimSpace(cfgAddr)

	if strings.HasPrefix(a, ":") {
		a = "127.0.0.1" + a
	}
	if strings.HasPrefix(a, "0.0.0.0:") {
		a = "127.0.0.1:" + strings.TrimPrefix(a, "0.0.0.0:")
	}

	listenAddr = a
	url = "http://" + a
	tcpAddr = a
	return
}

func WaitTCP(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		c, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = c.Close()
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for %s", addr)
}

func logBanner(projectDir, cfgPath string) {
	log.Info("────────────────────────────────────────")
	log.Info("ChucK IDE project scope")
	log.Infof(" Project folder : %s", projectDir)
	log.Infof(" Config file    : %s", cfgPath)
	log.Info("")
	log.Info(" One folder holds one autosaved project.")
	log.Info("────────────────────────────────────────")
}
