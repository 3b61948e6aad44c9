package launchd

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const DefaultLabel = "com.ramblings.daily"

// InstallOptions config for creating/loading a launchd agent.
type InstallOptions struct {
	Label            string
	Hour             int      // 0-23, local time of the daily run
	Minute           int      // 0-59
	ProgramPath      string   // absolute path to this binary
	ProgramArgs      []string // args after ProgramPath
	WorkingDirectory string   // relative feeds/output paths resolve here
	StdOutPath       string
	StdErrPath       string
	PlistPath        string // optional custom plist path
}

func DefaultAgentPath(label string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", label+".plist"), nil
}

// BuildPlist constructs a plist that runs the program once a day at Hour:Minute.
func BuildPlist(opt InstallOptions) ([]byte, error) {
	if opt.Label == "" {
		return nil, errors.New("label required")
	}
	if opt.ProgramPath == "" {
		return nil, errors.New("program path required")
	}
	if opt.Hour < 0 || opt.Hour > 23 {
		return nil, fmt.Errorf("hour out of range: %d", opt.Hour)
	}
	if opt.Minute < 0 || opt.Minute > 59 {
		return nil, fmt.Errorf("minute out of range: %d", opt.Minute)
	}
	if opt.StdOutPath == "" || opt.StdErrPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			def := filepath.Join(home, "Library", "Logs", "Ramblings", "ramblings.launchd.log")
			if opt.StdOutPath == "" {
				opt.StdOutPath = def
			}
			if opt.StdErrPath == "" {
				opt.StdErrPath = def
			}
		}
	}

	// Manually render a valid launchd plist with proper key/value tags
	escape := func(s string) string {
		var b bytes.Buffer
		xml.EscapeText(&b, []byte(s))
		return b.String()
	}
	str := func(buf *bytes.Buffer, key, val string) {
		buf.WriteString("    <key>" + key + "</key>\n    <string>")
		buf.WriteString(escape(val))
		buf.WriteString("</string>\n")
	}
	args := []string{opt.ProgramPath}
	args = append(args, opt.ProgramArgs...)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<!DOCTYPE plist PUBLIC \"-//Apple//DTD PLIST 1.0//EN\" \"http://www.apple.com/DTDs/PropertyList-1.0.dtd\">\n")
	buf.WriteString("<plist version=\"1.0\">\n  <dict>\n")
	str(&buf, "Label", opt.Label)
	buf.WriteString("    <key>ProgramArguments</key>\n    <array>\n")
	for _, a := range args {
		buf.WriteString("      <string>")
		buf.WriteString(escape(a))
		buf.WriteString("</string>\n")
	}
	buf.WriteString("    </array>\n")
	if opt.WorkingDirectory != "" {
		str(&buf, "WorkingDirectory", opt.WorkingDirectory)
	}
	buf.WriteString("    <key>StartCalendarInterval</key>\n    <dict>\n")
	buf.WriteString("      <key>Hour</key>\n      <integer>" + strconv.Itoa(opt.Hour) + "</integer>\n")
	buf.WriteString("      <key>Minute</key>\n      <integer>" + strconv.Itoa(opt.Minute) + "</integer>\n")
	buf.WriteString("    </dict>\n")
	if opt.StdOutPath != "" {
		str(&buf, "StandardOutPath", opt.StdOutPath)
	}
	if opt.StdErrPath != "" {
		str(&buf, "StandardErrorPath", opt.StdErrPath)
	}
	buf.WriteString("  </dict>\n</plist>\n")
	return buf.Bytes(), nil
}

// Install writes the plist and loads it via launchctl.
func Install(opt InstallOptions) (string, error) {
	if runtime.GOOS != "darwin" {
		return "", errors.New("launchd is only available on macOS")
	}
	plistPath := opt.PlistPath
	if strings.TrimSpace(plistPath) == "" {
		var err error
		plistPath, err = DefaultAgentPath(opt.Label)
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(filepath.Dir(plistPath), 0o755); err != nil {
		return "", err
	}
	data, err := BuildPlist(opt)
	if err != nil {
		return "", err
	}
	for _, p := range []string{opt.StdOutPath, opt.StdErrPath} {
		if p != "" {
			_ = os.MkdirAll(filepath.Dir(p), 0o755)
		}
	}
	if err := os.WriteFile(plistPath, data, 0o644); err != nil {
		return "", err
	}

	lctl := launchctlPath()
	if lctl == "" {
		return plistPath, errors.New("launchctl not found in /bin, /usr/bin, or PATH")
	}

	// Prefer modern bootstrap/enable under user GUI domain
	domain := fmt.Sprintf("gui/%d", os.Getuid())
	if err := exec.Command(lctl, "bootstrap", domain, plistPath).Run(); err != nil {
		if err2 := exec.Command(lctl, "load", "-w", plistPath).Run(); err2 != nil {
			return plistPath, fmt.Errorf("launchctl bootstrap/load failed: %v / %v", err, err2)
		}
	} else {
		_ = exec.Command(lctl, "enable", domain+"/"+opt.Label).Run()
	}
	return plistPath, nil
}

// Uninstall unloads and removes the plist.
func Uninstall(label string, plistPath string) error {
	if runtime.GOOS != "darwin" {
		return errors.New("launchd is only available on macOS")
	}
	if strings.TrimSpace(plistPath) == "" {
		var err error
		plistPath, err = DefaultAgentPath(label)
		if err != nil {
			return err
		}
	}
	domain := fmt.Sprintf("gui/%d", os.Getuid())
	lctl := launchctlPath()
	if lctl == "" {
		return errors.New("launchctl not found")
	}
	if err := exec.Command(lctl, "bootout", domain, plistPath).Run(); err != nil {
		_ = exec.Command(lctl, "unload", "-w", plistPath).Run()
	}
	if err := os.Remove(plistPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Status returns whether the agent is loaded and a short human string.
func Status(label string) (bool, string) {
	if runtime.GOOS != "darwin" || strings.TrimSpace(label) == "" {
		return false, "unsupported"
	}
	lctl := launchctlPath()
	if lctl == "" {
		return false, "launchctl not found"
	}
	domain := fmt.Sprintf("gui/%d", os.Getuid())
	out, err := exec.Command(lctl, "print", domain+"/"+label).CombinedOutput()
	if err != nil {
		return false, "not loaded"
	}
	state := "loaded"
	for _, ln := range strings.Split(string(out), "\n") {
		if strings.Contains(ln, "state = ") {
			state = strings.TrimSpace(ln)
			break
		}
	}
	return true, state
}

// launchctlPath attempts to find the absolute path to launchctl.
func launchctlPath() string {
	for _, c := range []string{"/bin/launchctl", "/usr/bin/launchctl"} {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	if p, err := exec.LookPath("launchctl"); err == nil {
		return p
	}
	return ""
}
