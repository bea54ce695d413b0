package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-hackathon-store/admin"
	"github.com/goliatone/go-hackathon-store/cache"
	"github.com/goliatone/go-hackathon-store/config"
	"github.com/goliatone/go-hackathon-store/counter"
	"github.com/goliatone/go-hackathon-store/enrollment"
	"github.com/goliatone/go-hackathon-store/hackathon"
	"github.com/goliatone/go-hackathon-store/internal/dynamostore"
	"github.com/goliatone/go-hackathon-store/internal/sqlstore"
	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/repositorycache"
	"github.com/goliatone/go-hackathon-store/storage"
	"github.com/goliatone/go-hackathon-store/work"
)

// Table names, prefixed with DynamoDBConfig.TablePrefix on DynamoDB.
const (
	TableHackathons  = "hackathons"
	TableEnrollments = "enrollments"
	TableTeamWorks   = "team_works"
	TableAdmins      = "hackathon_admins"
)

// Option configures a Container.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	now          func() time.Time
	cacheService cache.CacheService
	dynamoAPI    dynamostore.API
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock replaces time.Now in the services.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCacheService uses svc instead of building one from the cache config.
func WithCacheService(svc cache.CacheService) Option {
	return func(o *options) { o.cacheService = svc }
}

// WithDynamoDBAPI uses api for the dynamodb backend instead of a client
// built from the default AWS configuration.
func WithDynamoDBAPI(api dynamostore.API) Option {
	return func(o *options) { o.dynamoAPI = api }
}

// Tables groups the backing tables of one backend.
type Tables struct {
	Hackathons  storage.Table[model.Hackathon]
	Enrollments storage.Table[model.Enrollment]
	TeamWorks   storage.Table[model.TeamWork]
	Admins      storage.Table[model.HackathonAdmin]
}

// Container wires the process components. It manages singleton instances of
// the cache service, the key serializer, the backing tables and the services
// built on top of them.
type Container struct {
	config        config.Config
	logger        *slog.Logger
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	db            *bun.DB
	tables        Tables

	enrollments *repositorycache.CachedTable[model.Enrollment]
	teamWorks   *repositorycache.CachedTable[model.TeamWork]
	admins      *repositorycache.CachedTable[model.HackathonAdmin]

	reconciler        *counter.Reconciler
	sweeper           *counter.Sweeper
	hackathonService  *hackathon.Service
	enrollmentService *enrollment.Service
	workService       *work.Service
	adminService      *admin.Service
}

// NewContainer opens the configured backend and builds every component on
// it. Tables are created when missing on SQL backends, and on DynamoDB when
// CreateTables is set.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		config:        cfg,
		logger:        o.logger,
		cacheService:  o.cacheService,
		keySerializer: cache.NewDefaultKeySerializer(),
	}

	if c.cacheService == nil {
		svc, err := cache.NewCacheService(cfg.Cache, o.logger)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "di: create cache service")
		}
		c.cacheService = svc
	}

	if err := c.openTables(ctx, o); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.enrollments = NewCachedTable(c, c.tables.Enrollments, cache.KindEnrollment)
	c.teamWorks = NewCachedTable(c, c.tables.TeamWorks, cache.KindTeamWork)
	c.admins = NewCachedTable(c, c.tables.Admins, cache.KindHackathonAdmin)

	c.sweeper = counter.NewSweeper(c.tables.Hackathons, c.tables.Enrollments, cfg.Sweep.Workers, o.logger)
	c.reconciler = counter.NewReconciler(c.tables.Hackathons, o.logger, counter.WithRepair(c.sweeper))

	c.hackathonService = hackathon.NewService(c.tables.Hackathons,
		hackathon.WithLogger(o.logger),
		hackathon.WithClock(o.now),
	)
	c.enrollmentService = enrollment.NewService(c.enrollments, c.reconciler,
		enrollment.WithLogger(o.logger),
		enrollment.WithClock(o.now),
	)
	c.workService = work.NewService(c.teamWorks,
		work.WithLogger(o.logger),
		work.WithClock(o.now),
	)
	c.adminService = admin.NewService(c.admins, o.logger, o.now)

	return c, nil
}

// NewContainerWithDefaults creates a container on the in-memory backend with
// the default configuration.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(context.Background(), config.Default())
}

func (c *Container) openTables(ctx context.Context, o options) error {
	switch c.config.Backend {
	case config.BackendMemory:
		c.tables = Tables{
			Hackathons:  storage.NewMemTable[model.Hackathon](),
			Enrollments: storage.NewMemTable[model.Enrollment](),
			TeamWorks:   storage.NewMemTable[model.TeamWork](),
			Admins:      storage.NewMemTable[model.HackathonAdmin](),
		}
		return nil

	case config.BackendSQLite, config.BackendPostgres:
		sqlCfg := c.config.SQL
		sqlCfg.Driver = c.config.SQLDriver()
		db, err := sqlstore.Open(sqlCfg)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryExternal, "di: open database")
		}
		c.db = db

		hackathons := sqlstore.New[model.Hackathon](db, o.logger)
		enrollments := sqlstore.New[model.Enrollment](db, o.logger)
		works := sqlstore.New[model.TeamWork](db, o.logger)
		admins := sqlstore.New[model.HackathonAdmin](db, o.logger)
		for _, t := range []interface{ CreateTable(context.Context) error }{hackathons, enrollments, works, admins} {
			if err := t.CreateTable(ctx); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryExternal, "di: create tables")
			}
		}
		c.tables = Tables{Hackathons: hackathons, Enrollments: enrollments, TeamWorks: works, Admins: admins}
		return nil

	case config.BackendDynamoDB:
		api := o.dynamoAPI
		if api == nil {
			client, err := newDynamoDBClient(ctx, c.config.DynamoDB)
			if err != nil {
				return err
			}
			api = client
		}

		prefix := c.config.DynamoDB.TablePrefix
		hackathons := dynamostore.New[model.Hackathon](api, prefix+TableHackathons, o.logger)
		enrollments := dynamostore.New[model.Enrollment](api, prefix+TableEnrollments, o.logger)
		works := dynamostore.New[model.TeamWork](api, prefix+TableTeamWorks, o.logger)
		admins := dynamostore.New[model.HackathonAdmin](api, prefix+TableAdmins, o.logger)
		if c.config.DynamoDB.CreateTables {
			for _, t := range []interface{ EnsureTable(context.Context) error }{hackathons, enrollments, works, admins} {
				if err := t.EnsureTable(ctx); err != nil {
					return err
				}
			}
		}
		c.tables = Tables{Hackathons: hackathons, Enrollments: enrollments, TeamWorks: works, Admins: admins}
		return nil
	}
	return goerrors.New(fmt.Sprintf("di: unsupported backend %q", c.config.Backend), goerrors.CategoryBadInput)
}

func newDynamoDBClient(ctx context.Context, cfg config.DynamoDBConfig) (*dynamodb.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "di: load aws config")
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Close releases the database handle of SQL backends.
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config {
	return c.config
}

func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Tables returns the uncached backing tables.
func (c *Container) Tables() Tables {
	return c.tables
}

// DB returns the bun handle of SQL backends, nil otherwise.
func (c *Container) DB() *bun.DB {
	return c.db
}

func (c *Container) Reconciler() *counter.Reconciler {
	return c.reconciler
}

func (c *Container) Sweeper() *counter.Sweeper {
	return c.sweeper
}

func (c *Container) Hackathons() *hackathon.Service {
	return c.hackathonService
}

func (c *Container) Enrollments() *enrollment.Service {
	return c.enrollmentService
}

func (c *Container) Works() *work.Service {
	return c.workService
}

func (c *Container) Admins() *admin.Service {
	return c.adminService
}

// NewCachedTable wraps base with the container cache, using the list TTL
// and auto refresh settings of the configuration.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCachedTable[model.Enrollment](container, table, cache.KindEnrollment)
func NewCachedTable[T storage.Entity](container *Container, base storage.Table[T], kind string) *repositorycache.CachedTable[T] {
	return repositorycache.New(base, container.cacheService, container.keySerializer, kind,
		repositorycache.WithTTL(container.config.Lists.TTL),
		repositorycache.WithAutoRefresh(container.config.Lists.AutoRefresh),
		repositorycache.WithLogger(container.logger),
	)
}
