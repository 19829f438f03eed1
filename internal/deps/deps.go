// Package deps reports on the external programs voicebridge shells out to.
package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Installed bool
	Path      string
	Version   string
	// Needed is what the program is used for.
	Needed string
}

// Check looks name up in PATH and, when found, runs it with versionArgs and
// keeps the first line of output as the version.
func Check(name string, versionArgs ...string) Status {
	path, err := exec.LookPath(name)
	if err != nil {
		return Status{Name: name}
	}

	status := Status{Name: name, Installed: true, Path: path}
	if len(versionArgs) == 0 {
		return status
	}

	output, err := exec.Command(path, versionArgs...).Output()
	if err == nil {
		line, _, _ := strings.Cut(string(output), "\n")
		status.Version = strings.TrimSpace(line)
	}
	return status
}

// CheckWhisperCli checks for whisper-cli, used by the local strategy.
func CheckWhisperCli() Status {
	s := Check("whisper-cli", "--version")
	s.Needed = "local transcription (whisper-cpp)"
	return s
}

// CheckNotifySend checks for notify-send, used by desktop notifications.
func CheckNotifySend() Status {
	s := Check("notify-send", "--version")
	s.Needed = "desktop notifications"
	return s
}

// All returns every dependency voicebridge may use.
func All() []Status {
	return []Status{CheckWhisperCli(), CheckNotifySend()}
}
