// Package config loads the Lua tool catalog.
//
// A catalog declares, per tool, where to download it, how to tell whether an
// installed copy is the right one and how to unpack it:
//
//	exefetch = {
//	  tools = {
//	    helm = {
//	      url = "https://get.helm.sh/helm-v{version}-{platform}-{arch!x64ToAmd64}.tar.gz",
//	      version = "3.5.4",
//	      version_args = { "version", "--short" },
//	      version_post_process = function(out)
//	        return (out:gsub("^v", ""):gsub("%+.*$", ""))
//	      end,
//	      gzip = true,
//	      path_in_tar = "{platform}-{arch!x64ToAmd64}/helm",
//	    },
//	  },
//	}
//
// The catalog runs in a sandboxed gopher-lua VM with a read-only platform
// table, so entries can branch on platform.is_linux and friends. Lua
// functions in the catalog (version_post_process, exec_is_ok) stay bound to
// the VM; Catalog.Close releases it.
//
// # Errors
//
// Lua failures are reported as *ParseError with a short Message and the raw
// Lua error in Detail; FormatError trims the stack traceback unless verbose.
// Entry problems are *ValidationError naming the offending field.
//
// # Concurrency
//
// A gopher-lua state is single threaded. Catalog serializes every call into
// Lua behind a mutex, so the compiled requests may be fetched in parallel.
package config
