package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidHash is returned when a hex digest cannot be decoded where one is required.
	ErrInvalidHash = zerr.New("invalid content hash")

	// ErrFileNotFound is returned when a file to be hashed does not exist.
	ErrFileNotFound = zerr.New("file not found")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrWalkFailed is returned when a directory cannot be listed.
	ErrWalkFailed = zerr.New("failed to walk directory")

	// ErrGenerationFailed is returned when a unit fails to generate and has no fallback.
	ErrGenerationFailed = zerr.New("generation failed")

	// ErrFallbackFailed is returned when a unit's error handler fails as well.
	ErrFallbackFailed = zerr.New("error handler failed")

	// ErrHashFailed is returned when a unit's hash cannot be computed.
	ErrHashFailed = zerr.New("failed to compute unit hash")

	// ErrLockFailed is returned when waiting for a unit's lock is interrupted.
	ErrLockFailed = zerr.New("failed to acquire unit lock")

	// ErrCacheBackend is returned when the cache store cannot be read or written.
	ErrCacheBackend = zerr.New("cache backend failure")

	// ErrCacheIndexCorrupt is returned when the on-disk cache index cannot be parsed.
	ErrCacheIndexCorrupt = zerr.New("cache index is corrupt")

	// ErrInvalidStrategy is returned when a cache strategy is malformed.
	ErrInvalidStrategy = zerr.New("invalid cache strategy")

	// ErrConfigTargetUnknown is returned when an edit targets an unregistered unit.
	ErrConfigTargetUnknown = zerr.New("unknown config target")

	// ErrInvalidConfigMode is returned when an edit names an unknown mode.
	ErrInvalidConfigMode = zerr.New("invalid config mode")

	// ErrNoConfigStore is returned when an edit targets a unit without a config store.
	ErrNoConfigStore = zerr.New("unit has no config store")

	// ErrConfigReadFailed is returned when the config store file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config store")

	// ErrConfigParseFailed is returned when the config store file is not a JSON object.
	ErrConfigParseFailed = zerr.New("failed to parse config store")

	// ErrConfigWriteFailed is returned when the config store file cannot be written.
	ErrConfigWriteFailed = zerr.New("failed to write config store")

	// ErrConfigApplyFailed is returned when a merged config cannot be decoded into a unit.
	ErrConfigApplyFailed = zerr.New("failed to apply config")

	// ErrConfigSnapshotFailed is returned when a unit's config cannot be captured.
	ErrConfigSnapshotFailed = zerr.New("failed to snapshot config")

	// ErrExportTargetNotDir is returned when several blobs are exported to a file path.
	ErrExportTargetNotDir = zerr.New("export target must be a directory ending in a separator")

	// ErrExportFailed is returned when writing exported blobs fails.
	ErrExportFailed = zerr.New("failed to export source")

	// ErrInvalidBlobID is returned when a blob ID cannot be used as a relative path.
	ErrInvalidBlobID = zerr.New("invalid blob id")

	// ErrInvalidUnitID is returned when a unit ID is empty.
	ErrInvalidUnitID = zerr.New("invalid unit id")

	// ErrInvalidUnit is returned when a unit is constructed without its collaborators.
	ErrInvalidUnit = zerr.New("invalid unit declaration")

	// ErrUnitAlreadyExists is returned when registering a unit ID twice.
	ErrUnitAlreadyExists = zerr.New("unit already exists")

	// ErrUnitNotFound is returned when a unit ID is not registered.
	ErrUnitNotFound = zerr.New("unit not found")

	// ErrBlobNotFound is returned when a unit does not produce the requested blob.
	ErrBlobNotFound = zerr.New("blob not found")

	// ErrUnknownUnitKind is returned when a manifest names a kind without a factory.
	ErrUnknownUnitKind = zerr.New("unknown unit kind")

	// ErrMissingDependency is returned when a unit depends on an undeclared unit.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when unit dependencies form a cycle.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrManifestReadFailed is returned when the manifest cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read manifest")

	// ErrManifestParseFailed is returned when the manifest cannot be parsed.
	ErrManifestParseFailed = zerr.New("failed to parse manifest")

	// ErrManifestInvalid is returned when the manifest fails validation.
	ErrManifestInvalid = zerr.New("invalid manifest")

	// ErrSettingsReadFailed is returned when the settings file cannot be read.
	ErrSettingsReadFailed = zerr.New("failed to read settings")

	// ErrSettingsInvalid is returned when settings fail validation.
	ErrSettingsInvalid = zerr.New("invalid settings")

	// ErrFailedToGetRoot is returned when the project root path cannot be determined.
	ErrFailedToGetRoot = zerr.New("failed to get absolute path of project root")
)
