package browser

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// xvfbReady bounds the wait for the X socket of a fresh display.
const xvfbReady = 5 * time.Second

// startXvfb runs a virtual display for headful mode and waits until its
// socket accepts clients. An already running display is reused.
func (m *Manager) startXvfb() error {
	if m.xvfb != nil {
		return nil
	}
	sock := xSocket(m.cfg.XvfbDisplay)
	if sock != "" {
		if _, err := os.Stat(sock); err == nil {
			m.cfg.Logger.Info("browser: reusing display", "display", m.cfg.XvfbDisplay)
			return nil
		}
	}

	cmd := exec.Command("Xvfb", m.cfg.XvfbDisplay, "-screen", "0", "1920x1080x24", "-ac", "-nolisten", "tcp")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start xvfb: %w", err)
	}
	m.xvfb = cmd

	deadline := time.Now().Add(xvfbReady)
	for sock != "" && time.Now().Before(deadline) {
		if _, err := os.Stat(sock); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	m.cfg.Logger.Info("browser: xvfb started", "display", m.cfg.XvfbDisplay, "pid", cmd.Process.Pid)
	return nil
}

func (m *Manager) stopXvfb() {
	cmd := m.xvfb
	m.xvfb = nil
	if cmd == nil || cmd.Process == nil {
		return
	}
	cmd.Process.Kill()
	cmd.Wait()
	m.cfg.Logger.Info("browser: xvfb stopped", "display", m.cfg.XvfbDisplay)
}

// xSocket maps ":99" to its unix socket path, "" for remote displays.
func xSocket(display string) string {
	if !strings.HasPrefix(display, ":") {
		return ""
	}
	n, _, _ := strings.Cut(display[1:], ".")
	if n == "" {
		return ""
	}
	return "/tmp/.X11-unix/X" + n
}
