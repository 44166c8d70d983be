package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrLicenseNotFound = errors.New("license not found")

// License is one activation code with a usage budget.
type License struct {
	Code            string     `json:"code"`
	MaxActivations  int        `json:"maxActivations"`
	UsedActivations int        `json:"usedActivations"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastUsedAt      *time.Time `json:"lastUsedAt,omitempty"`
	IsActive        bool       `json:"isActive"`
}

// Validation holds the outcome of a license check: the message is
// user-facing data, not an error.
type Validation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// AddLicense registers a new code. Codes are stored uppercased so
// lookups can be case-insensitive.
func (s *Store) AddLicense(code string, maxActivations int) (License, error) {
	lic := License{
		Code:           strings.ToUpper(strings.TrimSpace(code)),
		MaxActivations: maxActivations,
		CreatedAt:      time.Now().UTC(),
		IsActive:       true,
	}
	if lic.Code == "" {
		return License{}, errors.New("license code is required")
	}
	_, err := s.db.Exec(
		`INSERT INTO licenses (code, max_activations, used_activations, created_at, is_active)
		 VALUES (?, ?, 0, ?, 1)`,
		lic.Code, lic.MaxActivations, lic.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return License{}, fmt.Errorf("add license: %w", err)
	}
	return lic, nil
}

// Licenses lists every license, newest first.
func (s *Store) Licenses() ([]License, error) {
	rows, err := s.db.Query(
		`SELECT code, max_activations, used_activations, created_at, last_used_at, is_active
		 FROM licenses ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	defer rows.Close()

	var out []License
	for rows.Next() {
		lic, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lic)
	}
	return out, rows.Err()
}

// GetLicense fetches one license by code, case-insensitively.
func (s *Store) GetLicense(code string) (License, error) {
	row := s.db.QueryRow(
		`SELECT code, max_activations, used_activations, created_at, last_used_at, is_active
		 FROM licenses WHERE code = ?`, strings.ToUpper(strings.TrimSpace(code)))
	lic, err := scanLicense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return License{}, ErrLicenseNotFound
	}
	return lic, err
}

// ValidateLicense checks a code without consuming an activation.
func (s *Store) ValidateLicense(code string) (Validation, error) {
	lic, err := s.GetLicense(code)
	if errors.Is(err, ErrLicenseNotFound) {
		return Validation{Message: "invalid license code"}, nil
	}
	if err != nil {
		return Validation{}, err
	}
	if !lic.IsActive {
		return Validation{Message: "license code is not active"}, nil
	}
	if lic.UsedActivations >= lic.MaxActivations {
		return Validation{Message: "license code has no activations left"}, nil
	}
	return Validation{Valid: true, Message: "license code is valid"}, nil
}

// ActivateLicense consumes one activation. It reports false when the
// code is unknown, inactive, or exhausted.
func (s *Store) ActivateLicense(code string) (bool, error) {
	check, err := s.ValidateLicense(code)
	if err != nil || !check.Valid {
		return false, err
	}
	_, err = s.db.Exec(
		`UPDATE licenses
		 SET used_activations = used_activations + 1, last_used_at = ?
		 WHERE code = ?`,
		time.Now().UTC().Format(time.RFC3339), strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return false, fmt.Errorf("activate license: %w", err)
	}
	return true, nil
}

// DeactivateLicense turns a code off without deleting its history.
func (s *Store) DeactivateLicense(code string) error {
	res, err := s.db.Exec(
		`UPDATE licenses SET is_active = 0 WHERE code = ?`,
		strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return fmt.Errorf("deactivate license: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLicenseNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLicense(row rowScanner) (License, error) {
	var lic License
	var createdAt string
	var lastUsedAt sql.NullString
	var active int
	if err := row.Scan(&lic.Code, &lic.MaxActivations, &lic.UsedActivations, &createdAt, &lastUsedAt, &active); err != nil {
		return License{}, err
	}
	lic.IsActive = active != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		lic.CreatedAt = t
	}
	if lastUsedAt.Valid {
		if t, err := time.Parse(time.RFC3339, lastUsedAt.String); err == nil {
			lic.LastUsedAt = &t
		}
	}
	return lic, nil
}
