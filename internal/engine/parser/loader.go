// # internal/engine/parser/loader.go
package parser

import (
	"actiongen/internal/core/errors"
	"actiongen/internal/shared/util"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c_sharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
)

const LanguageCSharp = "csharp"

// LanguageSpec describes a language the loader can parse.
type LanguageSpec struct {
	Name       string
	Extensions []string
	Enabled    bool
}

func defaultLanguageRegistry() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		LanguageCSharp: {
			Name:       LanguageCSharp,
			Extensions: []string{".cs"},
			Enabled:    true,
		},
	}
}

type GrammarLoader struct {
	languages map[string]*sitter.Language
	registry  map[string]LanguageSpec
}

func NewGrammarLoader() (*GrammarLoader, error) {
	gl := &GrammarLoader{
		languages: make(map[string]*sitter.Language),
		registry:  defaultLanguageRegistry(),
	}

	for _, langID := range util.SortedStringKeys(gl.registry) {
		if !gl.registry[langID].Enabled {
			continue
		}
		switch langID {
		case LanguageCSharp:
			gl.languages[LanguageCSharp] = sitter.NewLanguage(tree_sitter_c_sharp.Language())
		default:
			return nil, errors.New(errors.CodeNotSupported, "runtime grammar loading is not implemented for "+langID)
		}
	}
	return gl, nil
}

// Language returns the loaded grammar for langID.
func (gl *GrammarLoader) Language(langID string) (*sitter.Language, error) {
	lang, ok := gl.languages[langID]
	if !ok {
		return nil, errors.New(errors.CodeNotSupported, "grammar not loaded: "+langID)
	}
	return lang, nil
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	set := make(map[string]bool)
	for _, spec := range gl.registry {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			set[strings.ToLower(ext)] = true
		}
	}
	extensions := make([]string, 0, len(set))
	for ext := range set {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

func (gl *GrammarLoader) languageForExtension(ext string) string {
	ext = strings.ToLower(ext)
	for _, langID := range util.SortedStringKeys(gl.registry) {
		spec := gl.registry[langID]
		if !spec.Enabled {
			continue
		}
		for _, candidate := range spec.Extensions {
			if strings.ToLower(candidate) == ext {
				return langID
			}
		}
	}
	return ""
}
