package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/codec/raster"
	"github.com/marmos91/dittophotos/pkg/content"
	contentFs "github.com/marmos91/dittophotos/pkg/content/fs"
	contentMemory "github.com/marmos91/dittophotos/pkg/content/memory"
	contentS3 "github.com/marmos91/dittophotos/pkg/content/s3"
	"github.com/marmos91/dittophotos/pkg/library"
	"github.com/marmos91/dittophotos/pkg/manifest"
	manifestBadger "github.com/marmos91/dittophotos/pkg/manifest/badger"
	manifestMemory "github.com/marmos91/dittophotos/pkg/manifest/memory"
	manifestSqlite "github.com/marmos91/dittophotos/pkg/manifest/sqlite"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/marmos91/dittophotos/pkg/metrics"
	"github.com/marmos91/dittophotos/pkg/view"
	viewMemory "github.com/marmos91/dittophotos/pkg/view/memory"
	viewMmap "github.com/marmos91/dittophotos/pkg/view/mmap"
	"github.com/mitchellh/mapstructure"
)

// CreateContentStore creates a content store based on configuration.
//
// This factory function uses the Type field to determine which store implementation
// to create, then decodes the type-specific configuration from the corresponding
// map and passes it to the store's constructor. The store is wrapped with
// storeMetrics (nil disables instrumentation).
//
// Supported types:
//   - "filesystem": Uses pkg/content/fs (local filesystem storage)
//   - "memory": Uses pkg/content/memory (ephemeral, for tests and demos)
//   - "s3": Uses pkg/content/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Content store configuration
//   - storeMetrics: Metrics sink for store operations
//
// Returns:
//   - content.ContentStore: Initialized content store
//   - error: Configuration or initialization error
func CreateContentStore(ctx context.Context, cfg *ContentConfig, storeMetrics metrics.StoreMetrics) (content.ContentStore, error) {
	var (
		store content.ContentStore
		err   error
	)

	switch cfg.Type {
	case "filesystem":
		store, err = createFilesystemContentStore(ctx, cfg.Filesystem)
	case "memory":
		store, err = contentMemory.NewMemoryContentStore(ctx, media.FormatCanonical.Extension())
	case "s3":
		store, err = createS3ContentStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return content.Instrument(store, cfg.Type, storeMetrics), nil
}

// createFilesystemContentStore creates a filesystem-based content store.
func createFilesystemContentStore(ctx context.Context, options map[string]any) (content.ContentStore, error) {
	type FilesystemContentStoreConfig struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg FilesystemContentStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentFs.NewFSContentStore(ctx, contentFs.FSContentStoreConfig{Path: storeCfg.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
	}

	logger.Debug("Filesystem content store initialized: path=%s", store.Root())
	return store, nil
}

// createS3ContentStore creates an S3-based content store.
func createS3ContentStore(ctx context.Context, options map[string]any) (content.ContentStore, error) {
	type S3ContentStoreConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeCfg S3ContentStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}

	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Set credentials if provided, otherwise use default credential chain
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoints (MinIO, Localstack) need path-style addressing
		if storeCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(storeCfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Create S3 Content Store
	// ========================================================================

	store, err := contentS3.NewS3ContentStore(ctx, contentS3.S3ContentStoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}

// CreateManifest creates a manifest store based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/manifest/memory (ephemeral)
//   - "badger": Uses pkg/manifest/badger (BadgerDB, persistent)
//   - "sqlite": Uses pkg/manifest/sqlite (SQLite via GORM, persistent)
func CreateManifest(ctx context.Context, cfg *ManifestConfig) (manifest.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "memory":
		return manifestMemory.New(), nil
	case "badger":
		return createBadgerManifest(ctx, cfg.Badger)
	case "sqlite":
		return createSqliteManifest(ctx, cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown manifest type: %q", cfg.Type)
	}
}

func createBadgerManifest(ctx context.Context, options map[string]any) (manifest.Manifest, error) {
	type BadgerManifestConfig struct {
		Path string `mapstructure:"path"`
	}

	var mCfg BadgerManifestConfig
	if err := mapstructure.Decode(options, &mCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger manifest config: %w", err)
	}
	if mCfg.Path == "" {
		return nil, fmt.Errorf("badger manifest: path is required")
	}

	m, err := manifestBadger.New(ctx, manifestBadger.Config{DBPath: mCfg.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger manifest: %w", err)
	}
	return m, nil
}

func createSqliteManifest(ctx context.Context, options map[string]any) (manifest.Manifest, error) {
	type SqliteManifestConfig struct {
		Path string `mapstructure:"path"`
	}

	var mCfg SqliteManifestConfig
	if err := mapstructure.Decode(options, &mCfg); err != nil {
		return nil, fmt.Errorf("failed to decode sqlite manifest config: %w", err)
	}
	if mCfg.Path == "" {
		return nil, fmt.Errorf("sqlite manifest: path is required")
	}

	m, err := manifestSqlite.New(ctx, manifestSqlite.Config{Path: mCfg.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite manifest: %w", err)
	}
	return m, nil
}

// CreateEncoder creates the canonical codec.
func CreateEncoder(cfg *CodecConfig) (*raster.Codec, error) {
	return raster.New(raster.Options{
		Compression: cfg.Compression,
		Level:       cfg.Level,
		JPEGQuality: cfg.JPEGQuality,
		MaxPixels:   cfg.MaxPixels,
	})
}

// CreateViewFactory creates the view handle factory for store.
//
// The mmap factory needs the store to expose file paths, which only the
// filesystem backend does.
func CreateViewFactory(cfg *ViewsConfig, store content.ContentStore) (view.Factory, error) {
	switch cfg.Type {
	case "memory":
		return viewMemory.New(store), nil
	case "mmap":
		paths, ok := store.(content.PathResolver)
		if !ok {
			return nil, fmt.Errorf("views: mmap requires a content store with local files")
		}
		return viewMmap.New(paths), nil
	default:
		return nil, fmt.Errorf("unknown views type: %q", cfg.Type)
	}
}

// CreateLibrary builds every component from cfg and opens the library.
//
// On failure every component created so far is closed.
func CreateLibrary(ctx context.Context, cfg *Config, m *MetricsResult) (*library.Library, error) {
	if m == nil {
		m = &MetricsResult{
			Library: metrics.NewNoopLibraryMetrics(),
			Store:   metrics.NewNoopStoreMetrics(),
		}
	}

	store, err := CreateContentStore(ctx, &cfg.Content, m.Store)
	if err != nil {
		return nil, err
	}

	views, err := CreateViewFactory(&cfg.Views, store)
	if err != nil {
		return nil, err
	}

	encoder, err := CreateEncoder(&cfg.Codec)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	mf, err := CreateManifest(ctx, &cfg.Manifest)
	if err != nil {
		_ = encoder.Close()
		return nil, err
	}

	lib, err := library.New(ctx, library.Config{
		Store:      store,
		Encoder:    encoder,
		Manifest:   mf,
		Views:      views,
		Metrics:    m.Library,
		Workers:    cfg.Library.Workers,
		Extensions: cfg.Library.Extensions,
	})
	if err != nil {
		return nil, errors.Join(err, mf.Close(), encoder.Close())
	}

	logger.Info("Library opened: root=%s content=%s manifest=%s views=%s",
		cfg.Library.Root, cfg.Content.Type, cfg.Manifest.Type, cfg.Views.Type)

	return lib, nil
}
