package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const filePrefix = "text"

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"(", `\(`,
	")", `\)`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
	".", `\.`,
	"!", `\!`,
	"|", `\|`,
	"~", `\~`,
	"=", `\=`,
)

// EscapeMarkdown escapes the characters reserved by Telegram MarkdownV2.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Catalog holds the texts of every language. Texts are read from "text.yaml" for
// the fallback language and "text_<lang>.yaml" for the others; nested keys are
// flattened with dots.
type Catalog struct {
	fsys     fs.FS
	fallback string

	mu    sync.RWMutex
	texts map[string]map[string]string
}

// NewCatalog reads catalogs from fsys lazily. fallback is the language served by
// "text.yaml" and used when a language has no catalog of its own.
func NewCatalog(fsys fs.FS, fallback string) *Catalog {
	return &Catalog{
		fsys:     fsys,
		fallback: strings.ToLower(fallback),
		texts:    make(map[string]map[string]string),
	}
}

// Text returns the text of key in lang with {name} placeholders replaced by the
// escaped params. An unknown key is returned escaped.
func (c *Catalog) Text(lang, key string, params map[string]any) string {
	text, ok := c.lookup(strings.ToLower(lang), key)
	if !ok {
		return EscapeMarkdown(key)
	}
	for name, value := range params {
		text = strings.ReplaceAll(text, "{"+name+"}", EscapeMarkdown(fmt.Sprint(value)))
	}
	return text
}

func (c *Catalog) lookup(lang, key string) (string, bool) {
	if lang != "" && lang != c.fallback {
		if texts, err := c.language(lang); err == nil {
			if text, ok := texts[key]; ok {
				return text, true
			}
		}
	}
	texts, err := c.language(c.fallback)
	if err != nil {
		return "", false
	}
	text, ok := texts[key]
	return text, ok
}

// Languages lists the languages loaded so far.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.texts))
	for lang := range c.texts {
		out = append(out, lang)
	}
	return out
}

func (c *Catalog) language(lang string) (map[string]string, error) {
	c.mu.RLock()
	texts, ok := c.texts[lang]
	c.mu.RUnlock()
	if ok {
		return texts, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if texts, ok = c.texts[lang]; ok {
		return texts, nil
	}
	texts, err := c.load(lang)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		// remember missing catalogs so that the fallback is used without retrying
		texts = map[string]string{}
	}
	c.texts[lang] = texts
	return texts, nil
}

func (c *Catalog) load(lang string) (map[string]string, error) {
	name := filePrefix + ".yaml"
	if lang != c.fallback {
		name = filePrefix + "_" + lang + ".yaml"
	}
	raw, err := fs.ReadFile(c.fsys, path.Clean(name))
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err = yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	texts := make(map[string]string)
	for k, v := range doc {
		flatten(texts, k, v)
	}
	return texts, nil
}

func flatten(out map[string]string, key string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for k, nested := range v {
			flatten(out, key+"."+k, nested)
		}
	case nil:
		out[key] = ""
	default:
		out[key] = fmt.Sprint(v)
	}
}
