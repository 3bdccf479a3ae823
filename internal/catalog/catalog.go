// Package catalog resolves localized notification content by reason code.
// Built-in defaults cover the default locale; deployments extend or override
// them with a TOML file keyed reason -> locale -> {title, body}.
package catalog

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"

	"capsyhub/internal/logging"
	"capsyhub/pkg/interfaces"
	"capsyhub/pkg/types"
)

// Catalog implements interfaces.ContentCatalog.
type Catalog struct {
	mu            sync.RWMutex
	defaultLocale string
	entries       map[string]map[string]types.LocalizedContent
}

// New creates a catalog with the built-in content for defaultLocale.
func New(defaultLocale string) *Catalog {
	c := &Catalog{
		defaultLocale: defaultLocale,
		entries:       make(map[string]map[string]types.LocalizedContent),
	}
	for reason, locales := range builtinContent {
		c.entries[reason] = make(map[string]types.LocalizedContent, len(locales))
		for locale, content := range locales {
			c.entries[reason][locale] = content
		}
	}
	return c
}

// builtinContent ships with the binary so the broker can run without a
// content file. English only; other locales come from the TOML overrides.
var builtinContent = map[string]map[string]types.LocalizedContent{
	types.ReasonMedicationReminder: {
		"en": {Title: "Time for your medication", Body: "Your next dose is ready in the Capsy dispenser."},
	},
	types.ReasonRefillReminder: {
		"en": {Title: "Refill needed", Body: "The Capsy dispenser is running low. Please refill it soon."},
	},
	types.ReasonTestNotification: {
		"en": {Title: "Test notification", Body: "This is a scheduled test notification."},
	},
	types.ReasonDeviceOffline: {
		"en": {Title: "Capsy is offline", Body: "The dispenser is not connected. Check its power and network."},
	},
}

// tomlContent mirrors the override file shape:
//
//	[medicationReminder.es]
//	title = "..."
//	body  = "..."
type tomlContent map[string]map[string]struct {
	Title string `toml:"title"`
	Body  string `toml:"body"`
}

// LoadFile merges reason/locale entries from a TOML file into the catalog.
// File entries override built-ins for the same reason and locale.
func (c *Catalog) LoadFile(path string) error {
	var content tomlContent
	if _, err := toml.DecodeFile(path, &content); err != nil {
		return logging.WrapError(err, "failed to load content catalog "+path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for reason, locales := range content {
		if !types.IsValidReason(reason) {
			return fmt.Errorf("content catalog %s: unknown reason %q", path, reason)
		}
		if c.entries[reason] == nil {
			c.entries[reason] = make(map[string]types.LocalizedContent, len(locales))
		}
		for locale, entry := range locales {
			if entry.Title == "" || entry.Body == "" {
				return fmt.Errorf("content catalog %s: %s.%s needs both title and body", path, reason, locale)
			}
			c.entries[reason][locale] = types.LocalizedContent{
				Title: entry.Title,
				Body:  entry.Body,
			}
		}
	}
	return nil
}

// Localize returns the title/body for reason in locale, falling back to the
// default locale when the requested locale is unsupported.
func (c *Catalog) Localize(reason, locale string) (types.LocalizedContent, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	locales, ok := c.entries[reason]
	if !ok {
		return types.LocalizedContent{}, interfaces.ErrUnknownReason
	}

	if content, ok := locales[locale]; ok {
		return content, nil
	}
	if content, ok := locales[c.defaultLocale]; ok {
		return content, nil
	}
	return types.LocalizedContent{}, fmt.Errorf("no content for reason %q in locale %q or default %q",
		reason, locale, c.defaultLocale)
}
