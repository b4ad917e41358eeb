package app

import (
	"fmt"
	"io"
	"log"
	"strings"

	messagecache "prism/internal/cache/message"
	"prism/internal/gateway/config"
	messagerepo "prism/internal/gateway/repository/message"
	tracerepo "prism/internal/gateway/repository/trace"
)

type gatewayStores struct {
	message messagerepo.Store
	trace   tracerepo.Store
	closers []io.Closer
}

func (s *gatewayStores) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func initStores(cfg *config.Config) (*gatewayStores, error) {
	s3Factory := newTraceS3StoreFactory(cfg)

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		return initPostgresStores(dsn, cfg, s3Factory)
	}
	return initInMemoryStores(cfg, s3Factory)
}

func newTraceS3StoreFactory(cfg *config.Config) func() (tracerepo.Store, error) {
	return func() (tracerepo.Store, error) {
		s3Cfg := tracerepo.S3Config{
			Endpoint:  cfg.Trace.Endpoint,
			Region:    cfg.Trace.Region,
			AccessKey: cfg.Trace.AccessKey,
			SecretKey: cfg.Trace.SecretKey,
			Bucket:    cfg.Trace.Bucket,
			UseSSL:    cfg.Trace.UseSSL,
		}
		s3Store, err := tracerepo.NewS3Store(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize trace s3 store: %w", err)
		}
		log.Printf("trace store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
		return s3Store, nil
	}
}

func initPostgresStores(dsn string, cfg *config.Config, s3Factory func() (tracerepo.Store, error)) (*gatewayStores, error) {
	pg, err := messagerepo.NewPostgres(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	traceStore, err := chooseTraceStore(cfg, "in-memory", s3Factory)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	log.Printf("message store: postgres")
	return &gatewayStores{
		message: messagecache.NewCachedStore(pg, messagecache.CacheConfig{MaxEntries: cfg.MessageCacheSize}),
		trace:   traceStore,
		closers: []io.Closer{pg},
	}, nil
}

func initInMemoryStores(cfg *config.Config, s3Factory func() (tracerepo.Store, error)) (*gatewayStores, error) {
	traceStore, err := chooseTraceStore(cfg, "in-memory", s3Factory)
	if err != nil {
		return nil, err
	}
	log.Printf("message store: in-memory")
	return &gatewayStores{
		message: messagerepo.NewMemoryStore(),
		trace:   traceStore,
	}, nil
}

func chooseTraceStore(
	cfg *config.Config,
	fallbackLabel string,
	s3Factory func() (tracerepo.Store, error),
) (tracerepo.Store, error) {
	if cfg.Trace.CanUseS3() {
		return s3Factory()
	}
	if cfg.Trace.Enabled {
		log.Printf("trace store: using %s fallback (s3 config incomplete)", fallbackLabel)
	}
	return tracerepo.NewMemoryStore(), nil
}
