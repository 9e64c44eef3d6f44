package i18n

import (
	"os"
	"strings"
	"sync"

	"github.com/google/logger"
	"github.com/jeandeaual/go-locale"
)

var (
	mu   sync.RWMutex
	lang string
)

var supported = []string{"pt", "es", "ru"}

var translations = map[string]map[string]string{
	"Pomodoro": {
		"pt": "Pomodoro",
		"es": "Pomodoro",
		"ru": "Помидор",
	},
	"Short Break": {
		"pt": "Pausa Curta",
		"es": "Descanso Corto",
		"ru": "Короткий перерыв",
	},
	"Long Break": {
		"pt": "Pausa Longa",
		"es": "Descanso Largo",
		"ru": "Длинный перерыв",
	},
	"Paused": {
		"pt": "Pausado",
		"es": "En pausa",
		"ru": "Пауза",
	},
	"Running": {
		"pt": "Rodando",
		"es": "En marcha",
		"ru": "Идёт",
	},
	"Finished!": {
		"pt": "Concluído!",
		"es": "¡Terminado!",
		"ru": "Готово!",
	},
	"Up next": {
		"pt": "A seguir",
		"es": "A continuación",
		"ru": "Далее",
	},
	"Ready": {
		"pt": "Pronto",
		"es": "Listo",
		"ru": "Готов",
	},
}

func init() {
	// Check for override environment variable
	if forcedLang := strings.TrimSpace(os.Getenv("FOCUSTIMERS_LANG")); forcedLang != "" {
		logger.Infof("FOCUSTIMERS_LANG is set to: '%s'", forcedLang)
		lang = normalize(forcedLang)
		return
	}

	userLocales, err := locale.GetLocales()
	if err != nil || len(userLocales) == 0 {
		lang = "en"
		return
	}
	lang = normalize(userLocales[0])
}

// normalize maps a locale such as "pt-BR" or "es_ES" onto a supported
// language, defaulting to english.
func normalize(loc string) string {
	loc = strings.ToLower(strings.TrimSpace(loc))
	for _, l := range supported {
		if strings.HasPrefix(loc, l) {
			return l
		}
	}
	return "en"
}

// SetLang overrides the detected language.
func SetLang(l string) {
	mu.Lock()
	defer mu.Unlock()
	lang = normalize(l)
	logger.Infof("Language set to: %s", lang)
}

// T translates key into the current language, falling back to key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if translated, ok := translations[key][lang]; ok {
		return translated
	}
	return key
}

// GetLang returns the current language code.
func GetLang() string {
	mu.RLock()
	defer mu.RUnlock()
	return lang
}
