// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package storage

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"codeberg.org/lingofe/lingofe/config"
)

// Keys of the persisted display preferences.
const (
	LanguageKey = "selected_language"
	ThemeKey    = "theme"
)

var (
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrInvalidLanguage = errors.New("invalid language tag")
)

// Preferences reads and writes the display preferences kept in a Store.
type Preferences struct {
	store Store

	// defaults apply when nothing has been stored yet
	defaultLanguage string
	defaultTheme    string
}

// NewPreferences wraps store. The defaults are returned for unset preferences.
func NewPreferences(store Store, defaultLanguage, defaultTheme string) *Preferences {
	return &Preferences{store: store, defaultLanguage: defaultLanguage, defaultTheme: defaultTheme}
}

// Language returns the stored display language, or the default.
func (p *Preferences) Language(ctx context.Context) string {
	return p.get(ctx, LanguageKey, p.defaultLanguage)
}

// SetLanguage stores lang after normalising it to a canonical BCP 47 tag.
func (p *Preferences) SetLanguage(ctx context.Context, lang string) (string, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}

	canonical := tag.String()

	if err := p.store.Set(ctx, LanguageKey, []byte(canonical)); err != nil {
		return "", fmt.Errorf("save language: %w", err)
	}

	return canonical, nil
}

// Theme returns the stored theme, or the default. Unknown stored values are
// ignored.
func (p *Preferences) Theme(ctx context.Context) string {
	theme := p.get(ctx, ThemeKey, p.defaultTheme)
	if !config.IsValidTheme(theme) {
		return p.defaultTheme
	}

	return theme
}

// SetTheme stores one of light, dark or system.
func (p *Preferences) SetTheme(ctx context.Context, theme string) error {
	if !config.IsValidTheme(theme) {
		return fmt.Errorf("%w: %q (want one of %v)", ErrInvalidTheme, theme, config.Themes)
	}

	if err := p.store.Set(ctx, ThemeKey, []byte(theme)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}

	return nil
}

func (p *Preferences) get(ctx context.Context, key, fallback string) string {
	value, err := p.store.Get(ctx, key)
	if err != nil || len(value) == 0 {
		return fallback
	}

	return string(value)
}
