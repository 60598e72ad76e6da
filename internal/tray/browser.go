package tray

import (
	"os/exec"
	"runtime"

	"go.uber.org/zap"
)

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		zap.L().Warn("unsupported platform for opening a browser", zap.String("os", runtime.GOOS))
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		zap.L().Warn("failed to open browser", zap.String("url", url), zap.Error(err))
	}
}
