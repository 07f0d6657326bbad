package media

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pders01/brief/internal/config"
	"github.com/pders01/brief/internal/debuglog"
	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/validation"
)

type Type int

const (
	TypePage Type = iota
	TypeImage
)

func (t Type) String() string {
	if t == TypeImage {
		return "image"
	}
	return "page"
}

var (
	ErrNoLink  = errors.New("item has no link")
	ErrNoImage = errors.New("item has no image")
)

type Launcher struct {
	browser       string
	imageViewer   string
	defaultOpener string
	detector      *TypeDetector
	start         func(name string, args ...string) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	detector, err := NewTypeDetector()
	if err != nil {
		debuglog.Warnf("media types unavailable: %v", err)
		detector = &TypeDetector{config: &TypesConfig{}}
	}

	defaultOpener := cfg.Media.DefaultOpener
	if defaultOpener == "" {
		defaultOpener = detector.GetDefaultOpener()
	}

	var openers config.MediaOpeners
	switch runtime.GOOS {
	case "darwin":
		openers = cfg.Media.Darwin
	case "windows":
		openers = cfg.Media.Windows
	default:
		openers = cfg.Media.Linux
	}

	l := &Launcher{
		browser:       findCommand(openers.Browser...),
		imageViewer:   findCommand(openers.Image...),
		defaultOpener: defaultOpener,
		detector:      detector,
		start:         startDetached,
	}
	if l.browser == "" {
		l.browser = defaultOpener
	}
	if l.imageViewer == "" {
		l.imageViewer = defaultOpener
	}
	return l
}

// Open hands rawURL to the browser or image viewer depending on its type.
func (l *Launcher) Open(rawURL string) error {
	return l.open(rawURL, l.detector.DetectType(rawURL))
}

func (l *Launcher) open(rawURL string, t Type) error {
	if !validation.IsWebURL(rawURL) {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", rawURL)
	}

	opener := l.browser
	if t == TypeImage {
		opener = l.imageViewer
	}
	if opener == "" {
		opener = l.defaultOpener
	}
	if opener == "" {
		return fmt.Errorf("no application found to open URL")
	}

	args := append(append([]string(nil), l.detector.Args(filepath.Base(opener), t)...), rawURL)
	debuglog.Debugf("opening %s %s with %s %v", t, rawURL, opener, args)
	if err := l.start(opener, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", opener, err)
	}
	return nil
}

// OpenItem opens the article page of item.
func (l *Launcher) OpenItem(item results.Item) error {
	if item.URL == "" {
		return ErrNoLink
	}
	return l.Open(item.URL)
}

// OpenImage opens the first image of item in the image viewer, whatever its
// URL looks like.
func (l *Launcher) OpenImage(item results.Item) error {
	img := item.FirstImage()
	if img == "" {
		return ErrNoImage
	}
	return l.open(img, TypeImage)
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
