package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/binary"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/platform"
	lua "github.com/yuin/gopher-lua"
	"github.com/zeebo/errs"
)

// ErrUnknownTool is returned for names the catalog does not declare.
var ErrUnknownTool = errs.Class("unknown tool")

// ErrLuaCall wraps failures raised inside catalog functions.
var ErrLuaCall = errs.Class("catalog function")

// Catalog is a parsed tool catalog. It keeps the Lua state alive so that
// catalog functions can run during verification. Safe for concurrent use.
type Catalog struct {
	mu       sync.Mutex
	state    *lua.LState
	platform *platform.Info

	tools  []*Tool
	byName map[string]*Tool
}

// Platform returns the platform the catalog was evaluated for, or nil when
// it was parsed without a detector.
func (c *Catalog) Platform() *platform.Info {
	return c.platform
}

// Names returns the tool names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tools))
	for i, t := range c.tools {
		names[i] = t.Name
	}
	return names
}

// Tools returns the entries in sorted order.
func (c *Catalog) Tools() []*Tool {
	out := make([]*Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

// Lookup returns the entry called name.
func (c *Catalog) Lookup(name string) (*Tool, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Close releases the Lua state. Requests built earlier fail their Lua
// checks afterwards.
func (c *Catalog) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != nil {
		c.state.Close()
		c.state = nil
	}
}

// Request compiles the entry called name into a FetchRequest that installs
// under binDir.
func (c *Catalog) Request(name, binDir string) (binary.FetchRequest, error) {
	t, ok := c.byName[name]
	if !ok {
		return binary.FetchRequest{}, ErrUnknownTool.New("%q", name)
	}
	return c.request(t, binDir), nil
}

// Requests compiles the named entries, or every entry when names is empty.
func (c *Catalog) Requests(binDir string, names ...string) ([]binary.FetchRequest, error) {
	if len(names) == 0 {
		names = c.Names()
	}
	reqs := make([]binary.FetchRequest, 0, len(names))
	var unknown []string
	for _, name := range names {
		req, err := c.Request(name, binDir)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		reqs = append(reqs, req)
	}
	if len(unknown) > 0 {
		return nil, ErrUnknownTool.New("%s", strings.Join(unknown, ", "))
	}
	return reqs, nil
}

func (c *Catalog) request(t *Tool, binDir string) binary.FetchRequest {
	req := binary.FetchRequest{
		Name:    t.Name,
		Target:  t.TargetPath(binDir),
		URL:     t.URL,
		Version: t.Version,
		Extraction: binary.ExtractionSpec{
			Gzip:              t.Gzip,
			Bzip2:             t.Bzip2,
			PathInTar:         t.PathInTar,
			PathInZip:         t.PathInZip,
			DirectoryInTar:    t.DirInTar,
			ExecutableSubPath: t.ExecutableInDir,
			SymlinkPath:       t.SymlinkPath(binDir),
		},
	}

	if t.execIsOK != nil {
		req.Checks = append(req.Checks, binary.CustomCheck{
			Name: luaFieldExecIsOK,
			Func: c.customCheck(t.Name, t.execIsOK),
		})
	}
	if t.Version != "" {
		check := binary.VersionCheck{
			Version:       t.Version,
			ExecArgs:      append([]string(nil), t.VersionArgs...),
			CaptureStderr: t.VersionStderr,
		}
		if t.postProcess != nil {
			check.PostProcess = c.postProcessor(t.Name, t.postProcess)
		}
		req.Checks = append(req.Checks, check)
	}
	if t.HashURL != "" {
		req.Checks = append(req.Checks, binary.HashCheck{
			Method:                t.HashMethod,
			RemoteHashURL:         t.HashURL,
			ChecksumFileEntryPath: t.ChecksumEntry,
		})
	}
	return req
}

// customCheck adapts exec_is_ok(path) to a CustomCheck function. Any value
// other than nil or false counts as OK.
func (c *Catalog) customCheck(tool string, fn *lua.LFunction) func(context.Context, string) (bool, error) {
	return func(ctx context.Context, path string) (bool, error) {
		rets, err := c.call(ctx, fn, 1, lua.LString(path))
		if err != nil {
			return false, ErrLuaCall.New("%s.%s: %v", tool, luaFieldExecIsOK, err)
		}
		return lua.LVAsBool(rets[0]), nil
	}
}

// postProcessor adapts version_post_process(out) to a PostProcess function.
// The Lua function returns the bare version, or raises an error, or returns
// nil and a message.
func (c *Catalog) postProcessor(tool string, fn *lua.LFunction) func(string) (string, error) {
	return func(out string) (string, error) {
		rets, err := c.call(context.Background(), fn, 2, lua.LString(out))
		if err != nil {
			return "", ErrLuaCall.New("%s.%s: %v", tool, luaFieldVersionPostProcess, err)
		}
		switch v := rets[0].(type) {
		case lua.LString:
			return string(v), nil
		case lua.LNumber:
			return v.String(), nil
		}
		if msg, ok := rets[1].(lua.LString); ok {
			return "", ErrLuaCall.New("%s.%s: %s", tool, luaFieldVersionPostProcess, string(msg))
		}
		return "", ErrLuaCall.New("%s.%s returned %s, want string", tool, luaFieldVersionPostProcess, rets[0].Type())
	}
}

// call runs fn with args in protected mode and returns exactly nret values.
func (c *Catalog) call(ctx context.Context, fn *lua.LFunction, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	L := c.state
	if L == nil {
		return nil, fmt.Errorf("catalog is closed")
	}
	L.SetContext(ctx)
	defer L.RemoveContext()

	if err := L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		return nil, luaErrorMessage(err)
	}
	rets := make([]lua.LValue, nret)
	for i := nret - 1; i >= 0; i-- {
		rets[i] = L.Get(-1)
		L.Pop(1)
	}
	return rets, nil
}

// luaErrorMessage drops the stack traceback from errors raised in Lua.
func luaErrorMessage(err error) error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return errors.New(apiErr.Object.String())
	}
	return err
}
