package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"grimaldi/internal/log"
)

// Language представляет поддерживаемый язык
type Language string

const (
	LangPortuguese Language = "pt"
	LangEnglish    Language = "en"
	DefaultLang    Language = LangPortuguese
)

// Languages — все поддерживаемые языки
var Languages = []Language{LangPortuguese, LangEnglish}

//go:embed locales/*.json
var embedded embed.FS

// translations хранит все переводы
var translations = struct {
	sync.RWMutex
	data map[Language]map[string]string
}{data: make(map[Language]map[string]string)}

func init() {
	if err := LoadEmbedded(); err != nil {
		log.Error("встроенная локализация не загружена", "error", err)
	}
}

// LoadEmbedded загружает переводы, встроенные в бинарник
func LoadEmbedded() error {
	return load(func(lang Language) ([]byte, error) {
		return embedded.ReadFile("locales/" + string(lang) + ".json")
	})
}

// Load загружает переводы из каталога, заменяя встроенные
func Load(localesDir string) error {
	return load(func(lang Language) ([]byte, error) {
		return os.ReadFile(filepath.Join(localesDir, string(lang)+".json"))
	})
}

func load(read func(Language) ([]byte, error)) error {
	loaded := make(map[Language]map[string]string, len(Languages))

	for _, lang := range Languages {
		data, err := read(lang)
		if err != nil {
			return fmt.Errorf("ошибка чтения файла локализации %s: %w", lang, err)
		}

		var langData map[string]string
		if err := json.Unmarshal(data, &langData); err != nil {
			return fmt.Errorf("ошибка парсинга файла локализации %s: %w", lang, err)
		}
		loaded[lang] = langData
		log.Debug("загружена локализация", "lang", lang, "keys", len(langData))
	}

	translations.Lock()
	translations.data = loaded
	translations.Unlock()
	return nil
}

// T возвращает перевод для указанного ключа и языка
func T(key string, lang Language) string {
	translations.RLock()
	defer translations.RUnlock()

	if langData, ok := translations.data[lang]; ok {
		if text, ok := langData[key]; ok {
			return text
		}
	}

	// Fallback на португальский
	if lang != DefaultLang {
		if langData, ok := translations.data[DefaultLang]; ok {
			if text, ok := langData[key]; ok {
				return text
			}
		}
	}

	log.Warn("перевод не найден", "key", key, "lang", lang)
	return key
}

// Tf возвращает форматированный перевод
func Tf(key string, lang Language, args ...any) string {
	template := T(key, lang)
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}

// IsValidLanguage проверяет, является ли язык поддерживаемым
func IsValidLanguage(lang string) bool {
	switch Language(strings.ToLower(lang)) {
	case LangPortuguese, LangEnglish:
		return true
	default:
		return false
	}
}

// ParseLanguage преобразует строку в Language. Telegram передаёт коды
// вида "pt-BR", учитывается только префикс.
func ParseLanguage(lang string) Language {
	lang = strings.ToLower(lang)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	switch Language(lang) {
	case LangEnglish:
		return LangEnglish
	default:
		return LangPortuguese
	}
}

// GetLanguageName возвращает название языка на этом языке
func GetLanguageName(lang Language) string {
	switch lang {
	case LangEnglish:
		return "English"
	default:
		return "Português"
	}
}
