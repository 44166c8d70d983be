package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// PackageVersion is written into every exported bundle.
const PackageVersion = "1.0"

// PackageExt is the file extension for exported game bundles.
const PackageExt = ".bravo"

var (
	ErrPackageInvalid = errors.New("invalid game package structure")
	ErrPackageEmpty   = errors.New("game package contains no questions")
)

type PackageMeta struct {
	Name          string `json:"name"`
	CreatedAt     string `json:"createdAt"`
	Version       string `json:"version"`
	QuestionCount int    `json:"questionCount"`
}

type PackageSettings struct {
	DefaultTimeLimit int  `json:"defaultTimeLimit"`
	ShowPoints       bool `json:"showPoints"`
}

type PackageSounds struct {
	Timer   string `json:"timer,omitempty"`
	Correct string `json:"correct,omitempty"`
	Wrong   string `json:"wrong,omitempty"`
}

type PackageAssets struct {
	Background string         `json:"background,omitempty"`
	Logo       string         `json:"logo,omitempty"`
	Sounds     *PackageSounds `json:"sounds,omitempty"`
}

// GamePackage is a self-contained game bundle: questions plus the
// settings and assets the presentation needs, serialized as JSON in a
// .bravo file. A bundle present at startup puts the server into locked
// mode.
type GamePackage struct {
	Meta      PackageMeta     `json:"meta"`
	Questions []Question      `json:"questions"`
	Settings  PackageSettings `json:"settings"`
	Assets    *PackageAssets  `json:"assets,omitempty"`
}

// NewPackage assembles a bundle from the current questions and settings.
// Sound and background URIs move into the asset block so the packaged
// game is self-contained.
func NewPackage(name string, questions []Question, settings Settings, logo string) GamePackage {
	pkg := GamePackage{
		Meta: PackageMeta{
			Name:          name,
			CreatedAt:     time.Now().UTC().Format(time.RFC3339),
			Version:       PackageVersion,
			QuestionCount: len(questions),
		},
		Questions: questions,
		Settings: PackageSettings{
			DefaultTimeLimit: settings.DefaultTimeLimit,
			ShowPoints:       settings.ShowPoints,
		},
	}

	assets := PackageAssets{Background: settings.CustomBackground, Logo: logo}
	if settings.TimerSound != "" || settings.CorrectSound != "" || settings.WrongSound != "" {
		assets.Sounds = &PackageSounds{
			Timer:   settings.TimerSound,
			Correct: settings.CorrectSound,
			Wrong:   settings.WrongSound,
		}
	}
	if assets.Background != "" || assets.Logo != "" || assets.Sounds != nil {
		pkg.Assets = &assets
	}
	return pkg
}

// ParsePackage reads and validates a bundle. A malformed bundle leaves
// the caller's question list untouched; validation failures are the only
// errors a well-formed JSON document can produce.
func ParsePackage(r io.Reader) (*GamePackage, error) {
	var pkg GamePackage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&pkg); err != nil {
		return nil, fmt.Errorf("decode game package: %w", err)
	}
	if pkg.Meta.Name == "" || pkg.Questions == nil {
		return nil, ErrPackageInvalid
	}
	if len(pkg.Questions) == 0 {
		return nil, ErrPackageEmpty
	}
	return &pkg, nil
}

// LoadPackageFile reads a bundle from disk, for locked-mode startup.
func LoadPackageFile(path string) (*GamePackage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open game package: %w", err)
	}
	defer f.Close()
	return ParsePackage(f)
}

// Write serializes the bundle as indented JSON.
func (p *GamePackage) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode game package: %w", err)
	}
	return nil
}

// Filename is the download name for the bundle.
func (p *GamePackage) Filename() string {
	name := strings.Join(strings.Fields(p.Meta.Name), "_")
	if name == "" {
		name = "game"
	}
	return name + PackageExt
}

// SessionConfig resolves the bundle into a locked session seed, layering
// the bundle's settings and assets over the stored ones the way a
// packaged game overrides local configuration.
func (p *GamePackage) SessionConfig(stored Settings) SessionConfig {
	settings := stored
	settings.DefaultTimeLimit = p.Settings.DefaultTimeLimit
	settings.ShowPoints = p.Settings.ShowPoints
	if p.Assets != nil {
		if p.Assets.Background != "" {
			settings.CustomBackground = p.Assets.Background
		}
		if p.Assets.Sounds != nil {
			if p.Assets.Sounds.Timer != "" {
				settings.TimerSound = p.Assets.Sounds.Timer
			}
			if p.Assets.Sounds.Correct != "" {
				settings.CorrectSound = p.Assets.Sounds.Correct
			}
			if p.Assets.Sounds.Wrong != "" {
				settings.WrongSound = p.Assets.Sounds.Wrong
			}
		}
	}
	return SessionConfig{
		Locked:    true,
		Questions: p.Questions,
		Settings:  settings,
	}
}
