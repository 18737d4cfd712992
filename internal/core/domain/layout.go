package domain

import "path/filepath"

const (
	// KilnDirName is the name of the internal project directory.
	KilnDirName = ".kiln"

	// CacheDirName is the name of the file cache directory.
	CacheDirName = "cache"

	// CacheIndexFileName is the name of the file cache index.
	CacheIndexFileName = "index.json"

	// SettingsFileName is the name of the optional runtime settings file.
	SettingsFileName = "settings.yaml"

	// ManifestFileName is the name of the project manifest.
	ManifestFileName = "kiln.yaml"

	// DefaultConfigStoreFileName is the project config store used when the
	// manifest enables one without naming a path.
	DefaultConfigStoreFileName = "kiln.overrides.json"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultKilnPath returns the default root directory for kiln metadata.
func DefaultKilnPath() string {
	return KilnDirName
}

// DefaultCachePath returns the default path for the file cache.
// It joins .kiln and cache.
func DefaultCachePath() string {
	return filepath.Join(KilnDirName, CacheDirName)
}

// DefaultSettingsPath returns the default path for runtime settings.
// It joins .kiln and settings.yaml.
func DefaultSettingsPath() string {
	return filepath.Join(KilnDirName, SettingsFileName)
}
