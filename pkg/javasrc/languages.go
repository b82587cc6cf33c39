package javasrc

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/alexaandru/go-sitter-forest/java"
	"github.com/alexaandru/go-sitter-forest/kotlin"
)

// Language names accepted by the parser pool.
const (
	LangJava   = "java"
	LangKotlin = "kotlin"
)

var errLanguageNotAvailable = errors.New("tree-sitter language not available")

// languageFuncs maps language names to their tree-sitter GetLanguage functions.
var languageFuncs = map[string]func() unsafe.Pointer{
	LangJava:   java.GetLanguage,
	LangKotlin: kotlin.GetLanguage,
}

var (
	languageCache sync.Map
	parserPools   sync.Map
)

// getLanguage returns the tree-sitter Language for the given name, or nil if not supported.
func getLanguage(name string) *sitter.Language {
	if cached, ok := languageCache.Load(name); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	fn, ok := languageFuncs[name]
	if !ok {
		return nil
	}

	lang := sitter.NewLanguage(fn())
	languageCache.Store(name, lang)

	return lang
}

// parserPool returns the shared pool of parsers configured for name.
func parserPool(name string) (*sync.Pool, error) {
	if pool, ok := parserPools.Load(name); ok {
		return pool.(*sync.Pool), nil //nolint:forcetypeassert // only *sync.Pool is stored
	}

	lang := getLanguage(name)
	if lang == nil {
		return nil, fmt.Errorf("%w: %s", errLanguageNotAvailable, name)
	}

	pool := &sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}

	actual, _ := parserPools.LoadOrStore(name, pool)

	return actual.(*sync.Pool), nil //nolint:forcetypeassert // only *sync.Pool is stored
}
