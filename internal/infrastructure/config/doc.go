/*
Package config loads server configuration.

Values are layered: built-in defaults, then the YAML file (config.yml by
default, same keys as earlier releases), then environment variables.

	managed_directory: ./managed_files
	upload:
	  enable_chunked_upload: true
	  chunk_size_mb: 10
	  max_concurrent_chunks: 3
	  chunk_timeout: 300
	  max_file_size_gb: 8

Environment overrides include PORT, HOST, MANAGED_DIRECTORY,
UPLOAD_CHUNK_SIZE_MB, UPLOAD_MAX_FILE_SIZE_GB, UPLOAD_CHUNK_TIMEOUT,
UPLOAD_TEMP_DIR, ARCHIVE_DISABLED, LISTING_EXCLUDE, LOG_LEVEL and LOG_DEV.
*/
package config
