package compiler

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/Masterminds/semver/v3"

	"github.com/roach88/scopecard/internal/compliance"
	"github.com/roach88/scopecard/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

//go:embed catalog/*.json
var catalogFS embed.FS

// Load error codes (E001-E009)
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No configuration files found
	ErrCodeLoadFailed  = "E004" // File read or parse failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // Unification or schema check failed
)

// LoadError represents an error that occurred while reading configuration files.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DefaultSessionsFile is where sessions are written when no file declares them.
const DefaultSessionsFile = "sessions-config.json"

// Config is a compiled session configuration.
type Config struct {
	Version       string
	Rules         []ir.SessionRule
	Table         *compliance.Table
	Files         []string
	SessionsFiles []string // files that declare a sessions list
	Errors        []ValidationError
	Warnings      []ValidationError
}

// Sources lists the files a configuration was unified from, in lexical order.
type Sources struct {
	Files    []string
	Sessions []string
}

// Hash identifies the configuration, including attached overrides.
func (c *Config) Hash() string {
	return ir.MustConfigHash(c.Rules)
}

// SessionsFile returns the one file the sessions list can be written back
// to, relative to the configuration directory. It fails when sessions are
// declared in more than one file or in a CUE file, since rewriting one of
// them would leave the configuration unable to unify.
func (c *Config) SessionsFile() (string, error) {
	switch len(c.SessionsFiles) {
	case 0:
		return DefaultSessionsFile, nil
	case 1:
		name := c.SessionsFiles[0]
		if path.Ext(name) != ".json" {
			return "", fmt.Errorf("sessions are declared in %s; only JSON files can be written back", name)
		}
		return name, nil
	default:
		return "", fmt.Errorf("sessions are declared in %d files (%s); edit them by hand",
			len(c.SessionsFiles), strings.Join(c.SessionsFiles, ", "))
	}
}

// Err returns the validation errors as a single error, or nil.
func (c *Config) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return ValidationErrors(c.Errors)
}

// LoadDir reads, unifies and compiles every .json and .cue file in dir.
// Validation problems are recorded on the Config; check Config.Err.
func LoadDir(dir string) (*Config, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config directory not found: %s", dir), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing config directory: %v", err), Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}
	return LoadFS(os.DirFS(dir))
}

// Default compiles the catalog embedded in the binary.
func Default() (*Config, error) {
	sub, err := fs.Sub(catalogFS, "catalog")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadFS is LoadDir over an fs.FS.
func LoadFS(fsys fs.FS) (*Config, error) {
	v, src, err := Load(fsys)
	if err != nil {
		return nil, err
	}
	cfg, err := Compile(v)
	if err != nil {
		return nil, err
	}
	cfg.Files = src.Files
	cfg.SessionsFiles = src.Sessions
	return cfg, nil
}

// Load unifies every .json and .cue file of fsys into a single CUE value.
// Files are read in lexical order; conflicting values are a build error.
func Load(fsys fs.FS) (cue.Value, Sources, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch path.Ext(p) {
		case ".json", ".cue":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return cue.Value{}, Sources{}, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}
	}
	if len(files) == 0 {
		return cue.Value{}, Sources{}, &LoadError{Code: ErrCodeNoFiles, Message: "no .json or .cue configuration files found"}
	}
	slices.Sort(files)

	ctx := cuecontext.New()
	value := ctx.CompileString("{}")
	src := Sources{Files: files, Sessions: []string{}}
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return cue.Value{}, Sources{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", name, err), Err: err}
		}

		var fileVal cue.Value
		if path.Ext(name) == ".json" {
			expr, err := cuejson.Extract(name, data)
			if err != nil {
				return cue.Value{}, Sources{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing %s: %v", name, err), Err: err}
			}
			fileVal = ctx.BuildExpr(expr)
		} else {
			fileVal = ctx.CompileBytes(data, cue.Filename(name))
		}
		if err := fileVal.Err(); err != nil {
			return cue.Value{}, Sources{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("building %s: %v", name, err), Err: formatCUEError(err)}
		}
		if fileVal.LookupPath(cue.ParsePath("sessions")).Exists() {
			src.Sessions = append(src.Sessions, name)
		}
		value = value.Unify(fileVal)
	}

	if err := value.Err(); err != nil {
		return cue.Value{}, Sources{}, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("unifying configuration: %v", err), Err: formatCUEError(err)}
	}
	return value, src, nil
}

// Compile checks v against the embedded schema and compiles it into a Config.
// Structural problems (schema violations, unsupported version, unparseable
// sessions) are returned as errors; rule-level problems are recorded on the
// Config so callers can report all of them at once.
func Compile(v cue.Value) (*Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("embedded schema: %w", err)
	}
	checked := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("schema check: %v", err), Err: formatCUEError(err)}
	}

	cfg := &Config{}

	version, err := compileVersion(checked)
	if err != nil {
		return nil, err
	}
	cfg.Version = version

	cfg.Rules, err = compileSessions(checked)
	if err != nil {
		return nil, err
	}

	errs, warnings := ValidateRules(cfg.Rules)
	cfg.Errors = append(cfg.Errors, errs...)
	cfg.Warnings = append(cfg.Warnings, warnings...)

	table, errs, warnings := CompileCompliance(checked, cfg.Rules)
	cfg.Table = table
	cfg.Errors = append(cfg.Errors, errs...)
	cfg.Warnings = append(cfg.Warnings, warnings...)

	return cfg, nil
}

// compileVersion accepts a missing version as the current one.
func compileVersion(v cue.Value) (string, error) {
	verVal := v.LookupPath(cue.ParsePath("version"))
	if !verVal.Exists() {
		return ir.ConfigVersion, nil
	}
	s, err := verVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}

	ver, err := semver.NewVersion(s)
	if err != nil {
		return "", &CompileError{Field: "version", Message: fmt.Sprintf("invalid version %q: %v", s, err), Pos: verVal.Pos()}
	}
	constraint, err := semver.NewConstraint(ir.ConfigConstraint)
	if err != nil {
		return "", err
	}
	if !constraint.Check(ver) {
		return "", &CompileError{
			Field:   "version",
			Message: fmt.Sprintf("[%s] version %s is not supported (want %s)", ErrUnsupportedVersion, s, ir.ConfigConstraint),
			Pos:     verVal.Pos(),
		}
	}
	return ver.String(), nil
}

func compileSessions(v cue.Value) ([]ir.SessionRule, error) {
	sessVal := v.LookupPath(cue.ParsePath("sessions"))
	if !sessVal.Exists() {
		return []ir.SessionRule{}, nil
	}
	iter, err := sessVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	rules := []ir.SessionRule{}
	for iter.Next() {
		rule, err := CompileSession(iter.Value())
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}
