package builder

import (
	"fmt"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/internal/log"
	"github.com/cottand/typeguard/typemodel"
	"github.com/pkg/errors"
	"go/ast"
	"go/token"
	gopackages "golang.org/x/tools/go/packages"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

var builderLogger = log.DefaultLogger.With("section", "builder")

// Builder produces the definition tree of a documented target.
//
// Malformed annotations do not fail a build: they are returned as errors next
// to the definitions built from the rest of the target. The error return is
// reserved for targets which cannot be read.
type Builder interface {
	Build() ([]typemodel.Definition, *guarderr.Errors, error)
}

var (
	_ Builder = (*DocBuilder)(nil)
	_ Builder = (*SigBuilder)(nil)
	_ Builder = (*Cached)(nil)
)

// New returns the builder configured by cfg. Unless cfg.Reparse is set,
// builds are reused for as long as the targets are unchanged.
func New(cfg config.Config) (Builder, error) {
	var b Builder
	switch cfg.Source {
	case config.SourceYard, "":
		b = &DocBuilder{Targets: cfg.Target}
	case config.SourceRBS:
		b = &SigBuilder{Targets: cfg.Target}
	default:
		return nil, fmt.Errorf("no builder for source '%s'", cfg.Source)
	}
	if cfg.Reparse {
		return b, nil
	}
	return NewCached(string(cfg.Source), cfg.Target, b), nil
}

func goLoadPkgsConfig(fset *token.FileSet, dir string) *gopackages.Config {
	return &gopackages.Config{
		Mode: gopackages.NeedName | gopackages.NeedFiles | gopackages.NeedCompiledGoFiles | gopackages.NeedSyntax,
		Fset: fset,
		Dir:  dir,
	}
}

// LoadPackages loads the syntax, comments included, of the Go packages matching patterns
func LoadPackages(fset *token.FileSet, dir string, patterns ...string) ([]*ast.File, error) {
	pkgs, err := gopackages.Load(goLoadPkgsConfig(fset, dir), patterns...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load Go packages")
	}
	var files []*ast.File
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("errors when loading Go package %s: %v", pkg.PkgPath, pkg.Errors)
		}
		builderLogger.Debug("loaded package", "path", pkg.PkgPath, "files", len(pkg.Syntax))
		files = append(files, pkg.Syntax...)
	}
	return files, nil
}

type cacheEntry struct {
	fingerprint string
	defs        []typemodel.Definition
	errs        *guarderr.Errors
}

var (
	cacheMu sync.Mutex
	cache   = make(map[string]cacheEntry)
)

// Cached reuses the result of a previous build of the same targets for as
// long as none of their files changed. Every build returns its own copy of the
// definitions, since resolution prunes them and binds their types in place.
type Cached struct {
	key        string
	targets    []string
	underlying Builder
}

func NewCached(source string, targets []string, underlying Builder) *Cached {
	return &Cached{
		key:        source + ":" + strings.Join(targets, ","),
		targets:    targets,
		underlying: underlying,
	}
}

func (c *Cached) Build() ([]typemodel.Definition, *guarderr.Errors, error) {
	fingerprint, err := fingerprint(c.targets)
	if err != nil {
		return nil, nil, err
	}
	cacheMu.Lock()
	entry, ok := cache[c.key]
	cacheMu.Unlock()
	if ok && entry.fingerprint == fingerprint {
		builderLogger.Debug("reusing previous build", "targets", c.targets)
		return typemodel.CopyDefinitions(entry.defs), entry.errs, nil
	}
	defs, errs, err := c.underlying.Build()
	if err != nil {
		return nil, nil, err
	}
	cacheMu.Lock()
	cache[c.key] = cacheEntry{fingerprint: fingerprint, defs: typemodel.CopyDefinitions(defs), errs: errs}
	cacheMu.Unlock()
	return defs, errs, nil
}

// fingerprint summarises the paths, sizes and modification times of every file of targets.
// Targets which are not paths, like package patterns, contribute their name only.
func fingerprint(targets []string) (string, error) {
	var entries []string
	for _, target := range targets {
		if _, err := os.Stat(target); err != nil {
			entries = append(entries, target)
			continue
		}
		err := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			entries = append(entries, fmt.Sprintf("%s:%d:%s", path, info.Size(), info.ModTime().Format(time.RFC3339Nano)))
			return nil
		})
		if err != nil {
			return "", errors.Wrapf(err, "could not read target '%s'", target)
		}
	}
	slices.Sort(entries)
	return strings.Join(entries, "\n"), nil
}
