// Package locale indexes the compiled-in translation bundles and resolves
// language codes with graceful fallback to the base language.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed locales/*.json
var bundleFS embed.FS

// BaseCode is the default language; resolution never falls through it.
const BaseCode = "en"

// Bundle is one self-contained set of localized text. The key/value tree
// is opaque to the core and addressed by dotted paths.
type Bundle struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`

	tree map[string]any
}

// Get looks up a dotted key path ("toast.config_saved") in the bundle.
func (b *Bundle) Get(key string) (string, bool) {
	node := any(b.tree)
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		node, ok = m[part]
		if !ok {
			return "", false
		}
	}
	s, ok := node.(string)
	return s, ok
}

// Registry is the directory of all available bundles, built once at init.
type Registry struct {
	bundles map[string]*Bundle
	order   []string // base first, then by display name
}

// New builds the registry from the embedded bundle files.
func New() (*Registry, error) {
	return newFromFS(bundleFS, "locales")
}

func newFromFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("locale: read bundle dir: %w", err)
	}

	r := &Registry{bundles: make(map[string]*Bundle)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		code := strings.TrimSuffix(e.Name(), ".json")
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("locale: read bundle %s: %w", code, err)
		}
		var tree map[string]any
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("locale: parse bundle %s: %w", code, err)
		}
		b := &Bundle{Code: code, tree: tree}
		if name, ok := b.Get("lang.display"); ok && name != "" {
			b.DisplayName = name
		} else {
			b.DisplayName = strings.ToUpper(code)
		}
		r.bundles[code] = b
	}

	if _, ok := r.bundles[BaseCode]; !ok {
		return nil, fmt.Errorf("locale: base bundle %q missing", BaseCode)
	}

	for code := range r.bundles {
		if code != BaseCode {
			r.order = append(r.order, code)
		}
	}
	sort.Slice(r.order, func(i, j int) bool {
		return r.bundles[r.order[i]].DisplayName < r.bundles[r.order[j]].DisplayName
	})
	r.order = append([]string{BaseCode}, r.order...)

	return r, nil
}

// Bundles returns all bundles: the base code first, the rest sorted by
// display name.
func (r *Registry) Bundles() []*Bundle {
	out := make([]*Bundle, len(r.order))
	for i, code := range r.order {
		out[i] = r.bundles[code]
	}
	return out
}

// Resolve returns the bundle for code, or the base bundle when the code is
// unknown. It never returns nil.
func (r *Registry) Resolve(code string) *Bundle {
	if b, ok := r.bundles[code]; ok {
		return b
	}
	return r.bundles[BaseCode]
}

// Has reports whether an exact bundle exists for code.
func (r *Registry) Has(code string) bool {
	_, ok := r.bundles[code]
	return ok
}

// Text resolves a dotted key in the given language, falling back to the
// base bundle and finally to the key itself.
func (r *Registry) Text(code, key string) string {
	if s, ok := r.Resolve(code).Get(key); ok {
		return s
	}
	if s, ok := r.bundles[BaseCode].Get(key); ok {
		return s
	}
	return key
}
