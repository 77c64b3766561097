package config

// Lua schema field names and globals
const (
	luaGlobalExefetch = "exefetch"
	luaFieldTools     = "tools"

	luaFieldURL                = "url"
	luaFieldVersion            = "version"
	luaFieldTarget             = "target"
	luaFieldVersionArgs        = "version_args"
	luaFieldVersionPostProcess = "version_post_process"
	luaFieldVersionStderr      = "version_stderr"
	luaFieldExecIsOK           = "exec_is_ok"
	luaFieldHashMethod         = "hash_method"
	luaFieldHashURL            = "hash_url"
	luaFieldChecksumEntry      = "checksum_entry"
	luaFieldGzip               = "gzip"
	luaFieldBzip2              = "bzip2"
	luaFieldPathInTar          = "path_in_tar"
	luaFieldPathInZip          = "path_in_zip"
	luaFieldDirInTar           = "dir_in_tar"
	luaFieldExecutableInDir    = "executable_in_dir"
	luaFieldSymlink            = "symlink"
)

// Catalog limits.
const (
	// MaxToolCount bounds the number of catalog entries.
	MaxToolCount = 1000

	// MaxCatalogSize bounds the catalog source in bytes.
	MaxCatalogSize = 10 << 20

	// DirectorySuffix is appended to the tool name to form the default
	// target of a directory-mode tool.
	DirectorySuffix = ".d"
)
