package config

import (
	lua "github.com/yuin/gopher-lua"
)

// sandboxLuaVM strips a Lua VM down to what a declarative catalog needs.
// Catalogs cannot run commands, touch the filesystem or load other code.
// string, table and math stay available, as do the basic functions
// (type, tostring, tonumber, pairs, ipairs, error, pcall).
func sandboxLuaVM(L *lua.LState) {
	// os.execute, os.exit, os.getenv
	L.SetGlobal("os", lua.LNil)

	// io.open, io.popen
	L.SetGlobal("io", lua.LNil)

	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("module", lua.LNil)
	L.SetGlobal("package", lua.LNil)

	// debug could reach the registry and undo everything above.
	L.SetGlobal("debug", lua.LNil)
}

// newSandboxedVM creates a Lua VM with sandboxing applied.
// CallStackSize and RegistrySize keep runaway catalogs bounded.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: 256,
		RegistrySize:  1024 * 8,
	})
	sandboxLuaVM(L)
	return L
}
