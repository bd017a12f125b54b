package config

const (
	// Storage errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrUnknownBackendFmt     = "Unknown storage backend %q"
	ErrUnknownCompressionFmt = "Unknown compression %q"

	// Request errors
	ErrInvalidEvent        = "Invalid pointer event"
	ErrInvalidSelection    = "Invalid selection"
	ErrInternalServerError = "Internal server error"

	// Import errors
	ErrImportingPostFmt = "Error importing %s: %w"
)
