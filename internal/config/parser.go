package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// DefaultParseTimeout applies when the caller's context has no deadline.
const DefaultParseTimeout = 5 * time.Second

//go:embed catalog.lua
var defaultCatalog string

// DefaultCatalog returns the source of the built-in catalog.
func DefaultCatalog() string {
	return defaultCatalog
}

// Parser represents a Lua catalog parser with platform detection.
type Parser struct {
	detector platform.Detector
	logger   Logger
}

// NewParser creates a catalog parser. A nil detector leaves the platform
// table undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, logger: noopLogger{}}
}

// WithLogger sets the logger and returns the parser.
func (p *Parser) WithLogger(l Logger) *Parser {
	if l != nil {
		p.logger = l
	}
	return p
}

// ParseFile reads and parses the catalog at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Catalog, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog: %w", err)
	}
	if fi.Size() > MaxCatalogSize {
		return nil, &ParseError{
			Message: "catalog too large",
			Detail:  fmt.Sprintf("%s is %d bytes, maximum is %d", path, fi.Size(), MaxCatalogSize),
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	p.logger.Debug("parsing catalog", "path", path, "bytes", len(data))
	return p.ParseString(ctx, string(data))
}

// ParseDefault parses the built-in catalog.
func (p *Parser) ParseDefault(ctx context.Context) (*Catalog, error) {
	return p.ParseString(ctx, defaultCatalog)
}

// ParseString runs luaCode and extracts the exefetch.tools table.
// The returned Catalog owns the Lua state and must be closed.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Catalog, error) {
	if len(luaCode) > MaxCatalogSize {
		return nil, &ParseError{
			Message: "catalog too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(luaCode), MaxCatalogSize),
		}
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	keep := false
	defer func() {
		if !keep {
			L.Close()
		}
	}()

	var info *platform.Info
	if p.detector != nil {
		var err error
		info, err = p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	L.SetContext(ctx)
	err := L.DoString(luaCode)
	L.RemoveContext()
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ParseError{Message: "catalog evaluation timed out", Detail: err.Error()}
		}
		return nil, &ParseError{Message: "Lua syntax error", Detail: err.Error()}
	}

	tools, err := extractTools(L)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		state:    L,
		platform: info,
		tools:    tools,
		byName:   make(map[string]*Tool, len(tools)),
	}
	for _, t := range tools {
		c.byName[t.Name] = t
	}
	p.logger.Debug("catalog parsed", "tools", len(tools))

	keep = true
	return c, nil
}

// ParseError represents a catalog parsing error with a friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractTools reads the global exefetch.tools table, sorted by name.
func extractTools(L *lua.LState) ([]*Tool, error) {
	root := L.GetGlobal(luaGlobalExefetch)
	if root.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'exefetch' table",
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}

	toolsVal := root.(*lua.LTable).RawGetString(luaFieldTools)
	if toolsVal.Type() == lua.LTNil {
		return nil, nil
	}
	toolsTable, ok := toolsVal.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "invalid 'exefetch.tools'",
			Detail:  fmt.Sprintf("expected table, got %s", toolsVal.Type()),
		}
	}

	var (
		tools    []*Tool
		firstErr error
	)
	toolsTable.ForEach(func(key, value lua.LValue) {
		if firstErr != nil {
			return
		}
		// platform conditionals: `platform.is_linux and {...} or false`
		if value == lua.LNil || value == lua.LFalse {
			return
		}
		name, ok := key.(lua.LString)
		if !ok {
			firstErr = &ValidationError{
				Field:   luaFieldTools,
				Message: fmt.Sprintf("tool keys must be names, got %s", key.Type()),
			}
			return
		}
		entry, ok := value.(*lua.LTable)
		if !ok {
			firstErr = &ValidationError{
				Field:   string(name),
				Message: fmt.Sprintf("expected table, got %s", value.Type()),
			}
			return
		}
		tool, err := extractTool(string(name), entry)
		if err != nil {
			firstErr = err
			return
		}
		tools = append(tools, tool)
	})
	if firstErr != nil {
		return nil, firstErr
	}

	if len(tools) > MaxToolCount {
		return nil, &ValidationError{
			Field:   luaFieldTools,
			Message: fmt.Sprintf("too many tools (%d), maximum is %d", len(tools), MaxToolCount),
		}
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools, nil
}

// extractTool converts one entry table, checking field types as it goes.
func extractTool(name string, table *lua.LTable) (*Tool, error) {
	r := fieldReader{tool: name, table: table}
	t := &Tool{
		Name:            name,
		URL:             r.str(luaFieldURL),
		Version:         r.str(luaFieldVersion),
		Target:          r.str(luaFieldTarget),
		VersionArgs:     r.strList(luaFieldVersionArgs),
		VersionStderr:   r.boolean(luaFieldVersionStderr),
		HashMethod:      r.str(luaFieldHashMethod),
		HashURL:         r.str(luaFieldHashURL),
		ChecksumEntry:   r.str(luaFieldChecksumEntry),
		Gzip:            r.boolean(luaFieldGzip),
		Bzip2:           r.boolean(luaFieldBzip2),
		PathInTar:       r.str(luaFieldPathInTar),
		PathInZip:       r.str(luaFieldPathInZip),
		DirInTar:        r.str(luaFieldDirInTar),
		ExecutableInDir: r.str(luaFieldExecutableInDir),
		Symlink:         r.str(luaFieldSymlink),
		postProcess:     r.function(luaFieldVersionPostProcess),
		execIsOK:        r.function(luaFieldExecIsOK),
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// fieldReader reads typed fields from an entry and keeps the first error.
type fieldReader struct {
	tool  string
	table *lua.LTable
	err   error
}

func (r *fieldReader) get(field string, want lua.LValueType) (lua.LValue, bool) {
	v := r.table.RawGetString(field)
	if v.Type() == lua.LTNil || r.err != nil {
		return nil, false
	}
	if v.Type() != want {
		r.err = &ValidationError{
			Field:   r.tool + "." + field,
			Message: fmt.Sprintf("expected %s, got %s", want, v.Type()),
		}
		return nil, false
	}
	return v, true
}

func (r *fieldReader) str(field string) string {
	if v, ok := r.get(field, lua.LTString); ok {
		return string(v.(lua.LString))
	}
	return ""
}

func (r *fieldReader) boolean(field string) bool {
	if v, ok := r.get(field, lua.LTBool); ok {
		return bool(v.(lua.LBool))
	}
	return false
}

func (r *fieldReader) function(field string) *lua.LFunction {
	if v, ok := r.get(field, lua.LTFunction); ok {
		return v.(*lua.LFunction)
	}
	return nil
}

func (r *fieldReader) strList(field string) []string {
	v, ok := r.get(field, lua.LTTable)
	if !ok {
		return nil
	}
	list := v.(*lua.LTable)
	out := make([]string, 0, list.Len())
	for i := 1; i <= list.Len(); i++ {
		item := list.RawGetInt(i)
		s, ok := item.(lua.LString)
		if !ok {
			r.err = &ValidationError{
				Field:   fmt.Sprintf("%s.%s[%d]", r.tool, field, i),
				Message: fmt.Sprintf("expected string, got %s", item.Type()),
			}
			return nil
		}
		out = append(out, string(s))
	}
	return out
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
