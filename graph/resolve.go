package graph

import (
	"path"
	"sort"
	"strings"

	"github.com/lexandro/contextrank-mcp/language"
)

var (
	scriptExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".vue", ".svelte", ".json", ".d.ts"}
	styleExtensions  = []string{".scss", ".sass", ".less", ".css"}
)

// resolver maps raw import specifiers to project files. It only ever returns
// paths that exist in the file set it was built from.
type resolver struct {
	files      map[string]struct{}
	dirToFiles map[string][]string
	goModules  []goModule
	jvmByName  map[string][]string
}

// goModule is a module path and the directory holding its go.mod ("." for root).
type goModule struct {
	path string
	dir  string
}

func newResolver(paths []string, goModules []goModule) *resolver {
	// Nested modules must win over their parents.
	sort.Slice(goModules, func(i, j int) bool {
		if len(goModules[i].path) != len(goModules[j].path) {
			return len(goModules[i].path) > len(goModules[j].path)
		}
		return goModules[i].path < goModules[j].path
	})
	r := &resolver{
		files:      make(map[string]struct{}, len(paths)),
		dirToFiles: make(map[string][]string),
		goModules:  goModules,
		jvmByName:  make(map[string][]string),
	}
	for _, p := range paths {
		r.files[p] = struct{}{}
		dir := path.Dir(p)
		r.dirToFiles[dir] = append(r.dirToFiles[dir], p)
		if ext := path.Ext(p); ext == ".java" || ext == ".kt" {
			name := strings.TrimSuffix(path.Base(p), ext)
			r.jvmByName[name] = append(r.jvmByName[name], p)
		}
	}
	for dir := range r.dirToFiles {
		sort.Strings(r.dirToFiles[dir])
	}
	return r
}

func (r *resolver) exists(p string) bool {
	_, ok := r.files[p]
	return ok
}

// Resolve returns the project files a specifier in importer refers to.
func (r *resolver) Resolve(importer string, lang language.Tag, specifier string) []string {
	dir := path.Dir(importer)
	switch {
	case lang.IsScript():
		return r.resolveScript(dir, specifier)
	case lang.IsStyleSheet():
		return r.resolveStyle(dir, specifier)
	}

	switch lang {
	case language.Python:
		return r.resolvePython(dir, specifier)
	case language.Go:
		return r.resolveGo(specifier)
	case language.Rust:
		return r.resolveRust(importer, specifier)
	case language.Java, language.Kotlin:
		return r.resolveJVM(specifier)
	case language.C, language.CPP:
		return r.first(path.Join(dir, specifier), specifier, path.Join("include", specifier))
	case language.Ruby:
		return r.first(
			r.withExt(path.Join(dir, specifier), ".rb"),
			r.withExt(path.Join("lib", specifier), ".rb"),
			r.withExt(specifier, ".rb"),
		)
	case language.PHP:
		return r.first(path.Join(dir, strings.TrimPrefix(specifier, "/")), strings.TrimPrefix(specifier, "/"))
	case language.Dart:
		if rest, ok := strings.CutPrefix(specifier, "package:"); ok {
			if _, p, found := strings.Cut(rest, "/"); found {
				return r.first(path.Join("lib", p))
			}
			return nil
		}
		return r.first(path.Join(dir, specifier))
	}
	return nil
}

func (r *resolver) resolveScript(dir, specifier string) []string {
	specifier, _, _ = strings.Cut(specifier, "?")
	specifier, _, _ = strings.Cut(specifier, "#")

	var bases []string
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"), specifier == ".", specifier == "..":
		bases = []string{path.Join(dir, specifier)}
	case strings.HasPrefix(specifier, "@/"), strings.HasPrefix(specifier, "~/"):
		bases = []string{path.Join("src", specifier[2:]), specifier[2:]}
	case strings.HasPrefix(specifier, "/"):
		bases = []string{strings.TrimPrefix(specifier, "/")}
	default:
		bases = []string{specifier, path.Join("src", specifier)}
	}
	for _, base := range bases {
		if hit := r.tryModule(base, scriptExtensions, "index"); hit != "" {
			return []string{hit}
		}
	}
	return nil
}

func (r *resolver) resolveStyle(dir, specifier string) []string {
	if strings.HasPrefix(specifier, "~") || strings.Contains(specifier, "://") {
		return nil
	}
	base := path.Join(dir, specifier)
	if strings.HasPrefix(specifier, "/") {
		base = strings.TrimPrefix(specifier, "/")
	}
	if hit := r.tryModule(base, styleExtensions, "_index"); hit != "" {
		return []string{hit}
	}
	partial := path.Join(path.Dir(base), "_"+path.Base(base))
	if hit := r.tryModule(partial, styleExtensions, ""); hit != "" {
		return []string{hit}
	}
	return nil
}

func (r *resolver) resolvePython(dir, specifier string) []string {
	dots := len(specifier) - len(strings.TrimLeft(specifier, "."))
	module := strings.ReplaceAll(specifier[dots:], ".", "/")

	var bases []string
	if dots > 0 {
		base := dir
		for i := 1; i < dots; i++ {
			base = path.Dir(base)
		}
		bases = []string{path.Join(base, module)}
	} else {
		bases = []string{module, path.Join("src", module), path.Join(dir, module)}
	}
	for _, base := range bases {
		if hit := r.first(base+".py", base+".pyi", path.Join(base, "__init__.py")); hit != nil {
			return hit
		}
	}
	return nil
}

// resolveGo links an import to every non-test file of the package directory.
func (r *resolver) resolveGo(specifier string) []string {
	for _, module := range r.goModules {
		var rel string
		switch {
		case specifier == module.path:
		case strings.HasPrefix(specifier, module.path+"/"):
			rel = specifier[len(module.path)+1:]
		default:
			continue
		}
		pkgDir := path.Join(module.dir, rel)
		var targets []string
		for _, f := range r.dirToFiles[pkgDir] {
			if strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
				targets = append(targets, f)
			}
		}
		if len(targets) > 0 {
			return targets
		}
	}
	return nil
}

func (r *resolver) resolveRust(importer, specifier string) []string {
	if i := strings.Index(specifier, "::{"); i >= 0 {
		specifier = specifier[:i]
	}
	specifier = strings.TrimSuffix(specifier, "::*")
	segments := strings.Split(specifier, "::")

	var base string
	switch segments[0] {
	case "crate":
		base = r.rustCrateRoot(importer)
		segments = segments[1:]
	case "self":
		base = rustModuleDir(importer)
		segments = segments[1:]
	case "super":
		base = path.Dir(rustModuleDir(importer))
		segments = segments[1:]
	default:
		if len(segments) != 1 {
			return nil
		}
		// mod declarations
		base = rustModuleDir(importer)
	}

	// The trailing segments may name items rather than modules; try the
	// longest module path first.
	for i := len(segments); i > 0; i-- {
		p := path.Join(base, path.Join(segments[:i]...))
		if hit := r.first(p+".rs", path.Join(p, "mod.rs")); hit != nil {
			return hit
		}
	}
	return nil
}

// rustCrateRoot is the nearest ancestor directory holding lib.rs or main.rs.
func (r *resolver) rustCrateRoot(importer string) string {
	for dir := path.Dir(importer); ; dir = path.Dir(dir) {
		if r.exists(path.Join(dir, "lib.rs")) || r.exists(path.Join(dir, "main.rs")) {
			return dir
		}
		if dir == "." || dir == "/" {
			return path.Dir(importer)
		}
	}
}

// rustModuleDir is where child modules of importer live.
func rustModuleDir(importer string) string {
	dir := path.Dir(importer)
	switch path.Base(importer) {
	case "mod.rs", "lib.rs", "main.rs":
		return dir
	}
	return path.Join(dir, strings.TrimSuffix(path.Base(importer), ".rs"))
}

func (r *resolver) resolveJVM(specifier string) []string {
	if pkg, ok := strings.CutSuffix(specifier, ".*"); ok {
		suffix := strings.ReplaceAll(pkg, ".", "/")
		dirs := make([]string, 0)
		for dir := range r.dirToFiles {
			if dir == suffix || strings.HasSuffix(dir, "/"+suffix) {
				dirs = append(dirs, dir)
			}
		}
		sort.Strings(dirs)
		var targets []string
		for _, dir := range dirs {
			for _, f := range r.dirToFiles[dir] {
				if ext := path.Ext(f); ext == ".java" || ext == ".kt" {
					targets = append(targets, f)
				}
			}
		}
		return targets
	}

	parts := strings.Split(specifier, ".")
	// Static imports name a member after the class.
	for n := len(parts); n > 0 && n >= len(parts)-1; n-- {
		qualified := strings.Join(parts[:n], "/")
		var targets []string
		for _, candidate := range r.jvmByName[parts[n-1]] {
			stem := strings.TrimSuffix(candidate, path.Ext(candidate))
			if stem == qualified || strings.HasSuffix(stem, "/"+qualified) {
				targets = append(targets, candidate)
			}
		}
		if len(targets) > 0 {
			sort.Strings(targets)
			return targets
		}
	}
	return nil
}

// tryModule resolves base as a file, as base plus an extension, or as a
// directory holding indexName plus an extension.
func (r *resolver) tryModule(base string, extensions []string, indexName string) string {
	base = path.Clean(base)
	if strings.HasPrefix(base, "../") || base == ".." {
		return ""
	}
	if r.exists(base) {
		return base
	}
	for _, ext := range extensions {
		if r.exists(base + ext) {
			return base + ext
		}
	}
	if indexName == "" {
		return ""
	}
	for _, ext := range extensions {
		if p := path.Join(base, indexName+ext); r.exists(p) {
			return p
		}
	}
	return ""
}

// first returns the first candidate that exists, as a one-element slice.
func (r *resolver) first(candidates ...string) []string {
	for _, c := range candidates {
		c = path.Clean(c)
		if strings.HasPrefix(c, "../") {
			continue
		}
		if r.exists(c) {
			return []string{c}
		}
	}
	return nil
}

func (r *resolver) withExt(p, ext string) string {
	if strings.HasSuffix(p, ext) {
		return p
	}
	return p + ext
}

// parseGoModulePath returns the module path declared in a go.mod file.
func parseGoModulePath(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "module"); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
			return strings.Trim(strings.TrimSpace(rest), `"`)
		}
	}
	return ""
}
