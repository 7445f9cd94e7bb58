// internal/i18n/i18n.go
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// catalog holds the loaded locale maps. Indonesian is the storefront's
// primary language; English is the fallback set for the admin tooling.
type catalog struct {
	mu          sync.RWMutex
	byLang      map[string]map[string]string
	defaultLang string
}

var (
	instance *catalog
	once     sync.Once
)

var supportedLocales = []string{"id", "en"}

// Initialize loads the locale files once. Later calls are no-ops, so the
// router and tests can both call it safely.
func Initialize(defaultLang, localesPath string) error {
	var err error
	once.Do(func() {
		if defaultLang == "" {
			defaultLang = "id"
		}
		if localesPath == "" {
			localesPath = "./internal/i18n/locales"
		}
		c := &catalog{
			byLang:      make(map[string]map[string]string),
			defaultLang: defaultLang,
		}
		for _, lang := range supportedLocales {
			if err = c.loadLocale(lang, localesPath); err != nil {
				return
			}
		}
		instance = c
	})
	return err
}

func (c *catalog) loadLocale(lang, localesPath string) error {
	path := filepath.Join(localesPath, lang+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read locale file %s: %w", path, err)
	}

	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("failed to parse locale file %s: %w", path, err)
	}

	c.mu.Lock()
	c.byLang[lang] = messages
	c.mu.Unlock()
	return nil
}

func (c *catalog) lookup(lang, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if messages, ok := c.byLang[lang]; ok {
		if text, ok := messages[key]; ok {
			return text, true
		}
	}
	return "", false
}

// T translates key for lang, falling back to the default language and
// finally to the key itself so a missing entry never blanks a message.
// Args are fmt.Sprintf arguments for templated messages.
func T(lang, key string, args ...interface{}) string {
	if instance == nil {
		return key
	}

	text, ok := instance.lookup(lang, key)
	if !ok && lang != instance.defaultLang {
		text, ok = instance.lookup(instance.defaultLang, key)
	}
	if !ok {
		return key
	}

	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

func GetSupportedLanguages() []string {
	return supportedLocales
}
