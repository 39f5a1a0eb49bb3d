package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a custom dhikr ID does not exist.
var ErrNotFound = errors.New("custom dhikr not found")

// AddCustom stores a user-defined dhikr and returns it with its assigned
// ID. The Arabic text is required.
func (m *Manager) AddCustom(ctx context.Context, d Dhikr) (Dhikr, error) {
	d.Arabic = strings.TrimSpace(d.Arabic)
	if d.Arabic == "" {
		return Dhikr{}, errors.New("arabic text is required")
	}

	now := time.Now()
	if d.ID == "" {
		d.ID = fmt.Sprintf("custom_%d", now.UnixMilli())
	}
	if d.Times < 1 {
		d.Times = 1
	}
	if d.Source == "" {
		d.Source = "Custom"
	}
	if d.Category == "" {
		d.Category = "custom"
	}

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO custom_azkar
			(id, arabic, transliteration, translation, source, times, category, audio, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Arabic, d.Transliteration, d.Translation, d.Source, d.Times,
		d.Category, d.AudioURL, now.UnixMilli())
	if err != nil {
		return Dhikr{}, fmt.Errorf("insert custom dhikr: %w", err)
	}
	return d, nil
}

// CustomAzkar returns all user-defined entries, oldest first.
func (m *Manager) CustomAzkar(ctx context.Context) ([]Dhikr, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, arabic, transliteration, translation, source, times, category, audio
		FROM custom_azkar
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query custom azkar: %w", err)
	}
	defer rows.Close()

	var out []Dhikr
	for rows.Next() {
		var d Dhikr
		err := rows.Scan(&d.ID, &d.Arabic, &d.Transliteration, &d.Translation,
			&d.Source, &d.Times, &d.Category, &d.AudioURL)
		if err != nil {
			return nil, fmt.Errorf("scan custom dhikr: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteCustom removes a user-defined dhikr by ID.
func (m *Manager) DeleteCustom(ctx context.Context, id string) error {
	res, err := m.db.ExecContext(ctx,
		`DELETE FROM custom_azkar WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete custom dhikr: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
