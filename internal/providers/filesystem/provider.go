package filesystem

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Options configures a Provider
type Options struct {
	Root             string
	Exclude          []string
	DisabledArchives []string
	Upload           UploadConfig
	UploadOptions    []UploadOption
	Logger           *zap.Logger
}

// Provider groups every operation on one managed root
type Provider struct {
	Resolver   *Resolver
	Directory  *DirectoryOps
	Basic      *BasicOps
	Metadata   *MetadataOps
	Search     *SearchOps
	Archives   *ArchivesOps
	Operations *OperationsOps
	Uploads    *UploadCoordinator
}

// NewProvider resolves the managed root and builds every operation group.
// Close releases the upload coordinator.
func NewProvider(opts Options) (*Provider, error) {
	resolver, err := NewResolver(opts.Root)
	if err != nil {
		return nil, err
	}

	// User globs extend the defaults, they never unhide temporary files.
	exclude := slices.Clone(opts.Exclude)
	for _, pattern := range DefaultExclude {
		if !slices.Contains(exclude, pattern) {
			exclude = append(exclude, pattern)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ops := &FilesystemOps{
		Resolver: resolver,
		Exclude:  exclude,
		Logger:   logger.Named("filesystem"),
	}
	basic := &BasicOps{FilesystemOps: ops}

	uploads, err := NewUploadCoordinator(basic, opts.Upload, opts.UploadOptions...)
	if err != nil {
		return nil, fmt.Errorf("upload coordinator: %w", err)
	}

	return &Provider{
		Resolver:   resolver,
		Directory:  &DirectoryOps{FilesystemOps: ops},
		Basic:      basic,
		Metadata:   &MetadataOps{FilesystemOps: ops},
		Search:     &SearchOps{FilesystemOps: ops},
		Archives:   &ArchivesOps{FilesystemOps: ops, Registry: NewRegistry(opts.DisabledArchives...)},
		Operations: &OperationsOps{FilesystemOps: ops},
		Uploads:    uploads,
	}, nil
}

// Close stops background work and discards unfinished uploads
func (p *Provider) Close() error {
	return p.Uploads.Close()
}
