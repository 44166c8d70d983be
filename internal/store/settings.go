package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/27180781/trivia-master-offline/internal/game"
)

const (
	settingsKey = "game_settings"
	adminPinKey = "admin_pin"
)

// DefaultAdminPIN guards the license admin panel until the operator
// changes it.
const DefaultAdminPIN = "1234"

// GameSettings returns the stored presentation settings, falling back to
// defaults when nothing was saved yet.
func (s *Store) GameSettings() (game.Settings, error) {
	raw, err := s.getSetting(settingsKey)
	if errors.Is(err, sql.ErrNoRows) {
		return game.DefaultSettings(), nil
	}
	if err != nil {
		return game.Settings{}, fmt.Errorf("read settings: %w", err)
	}

	settings := game.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		// A corrupt row should not brick the app; start over from
		// defaults.
		return game.DefaultSettings(), nil
	}
	return settings, nil
}

// SaveGameSettings persists the presentation settings.
func (s *Store) SaveGameSettings(settings game.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.setSetting(settingsKey, string(raw)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// AdminPIN returns the stored admin PIN, or the default when unset.
func (s *Store) AdminPIN() (string, error) {
	pin, err := s.getSetting(adminPinKey)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultAdminPIN, nil
	}
	if err != nil {
		return "", fmt.Errorf("read admin pin: %w", err)
	}
	return pin, nil
}

// SetAdminPIN replaces the admin PIN.
func (s *Store) SetAdminPIN(pin string) error {
	if err := s.setSetting(adminPinKey, pin); err != nil {
		return fmt.Errorf("save admin pin: %w", err)
	}
	return nil
}
