package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/specworks/reqregistry/cmd/registry/repository"
	"github.com/specworks/reqregistry/cmd/registry/rules"
	"github.com/specworks/reqregistry/cmd/registry/service"
	"github.com/specworks/reqregistry/common/bootstrap"
	"github.com/specworks/reqregistry/common/cache"
	rediscommon "github.com/specworks/reqregistry/common/redis"
)

// Container holds all initialized services and repositories
type Container struct {
	Components *bootstrap.Components
	Redis      *rediscommon.Client
	RedisRaw   *redis.Client

	// Repositories
	WorkspaceRepo   *repository.WorkspaceRepository
	TreeRepo        *repository.TreeRepository
	RequirementRepo *repository.RequirementRepository
	ParameterRepo   *repository.ParameterRepository
	ViewRepo        *repository.ViewRepository
	ReleaseRepo     *repository.ReleaseRepository
	TestCaseRepo    *repository.TestCaseRepository
	CollectionRepo  *repository.CollectionRepository

	// Services
	AllocatorService    *service.AllocatorService
	WorkspaceService    *service.WorkspaceService
	RequirementService  *service.RequirementService
	ParameterService    *service.ParameterService
	AbstractnessService *service.AbstractnessService
	ViewService         *service.ViewService
	ReleaseService      *service.ReleaseService
	TestCaseService     *service.TestCaseService
	CollectionService   *service.CollectionService
	AuditSubscriber     *service.AuditSubscriber
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config

	redisRaw := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisClient := rediscommon.NewClient(redisRaw, components.Logger)

	// The redis cache backend cannot be built in bootstrap; it needs the
	// client created here.
	if components.Cache == nil && cfg.Cache.Enabled && cfg.Cache.Backend == "redis" {
		components.Logger.Info("initializing view cache", "backend", "redis", "default_ttl", cfg.Cache.DefaultTTL)
		components.Cache = cache.NewRedisCache(redisClient, components.Logger)
	}

	// Repositories
	workspaceRepo := repository.NewWorkspaceRepository(components.DB)
	treeRepo := repository.NewTreeRepository(components.DB)
	requirementRepo := repository.NewRequirementRepository(components.DB)
	parameterRepo := repository.NewParameterRepository(components.DB)
	viewRepo := repository.NewViewRepository(components.DB)
	releaseRepo := repository.NewReleaseRepository(components.DB)
	testCaseRepo := repository.NewTestCaseRepository(components.DB)
	collectionRepo := repository.NewCollectionRepository(components.DB)

	evaluator := rules.NewEvaluator()

	// Services (bottom-up: dependencies first)
	allocatorService := service.NewAllocatorService(redisClient, components.Logger)
	abstractnessService := service.NewAbstractnessService(parameterRepo, components.Logger)
	workspaceService := service.NewWorkspaceService(workspaceRepo, treeRepo, requirementRepo, abstractnessService, components.Logger)
	requirementService := service.NewRequirementService(
		requirementRepo,
		parameterRepo,
		allocatorService,
		components.Queue,
		components.Logger,
	)
	parameterService := service.NewParameterService(
		parameterRepo,
		components.Queue,
		components.Logger,
	)
	viewService := service.NewViewService(
		viewRepo,
		treeRepo,
		requirementRepo,
		parameterRepo,
		parameterRepo,
		evaluator,
		components.Cache,
		cfg.Cache.DefaultTTL,
		components.Logger,
	)
	releaseService := service.NewReleaseService(
		releaseRepo,
		requirementRepo,
		parameterRepo,
		allocatorService,
		components.Queue,
		redisClient,
		components.Logger,
	)
	testCaseService := service.NewTestCaseService(testCaseRepo, requirementRepo, allocatorService, components.Logger)
	collectionService := service.NewCollectionService(collectionRepo, requirementRepo, components.Logger)
	auditSubscriber := service.NewAuditSubscriber(components.Queue, components.Logger)

	return &Container{
		Components:          components,
		Redis:               redisClient,
		RedisRaw:            redisRaw,
		WorkspaceRepo:       workspaceRepo,
		TreeRepo:            treeRepo,
		RequirementRepo:     requirementRepo,
		ParameterRepo:       parameterRepo,
		ViewRepo:            viewRepo,
		ReleaseRepo:         releaseRepo,
		TestCaseRepo:        testCaseRepo,
		CollectionRepo:      collectionRepo,
		AllocatorService:    allocatorService,
		WorkspaceService:    workspaceService,
		RequirementService:  requirementService,
		ParameterService:    parameterService,
		AbstractnessService: abstractnessService,
		ViewService:         viewService,
		ReleaseService:      releaseService,
		TestCaseService:     testCaseService,
		CollectionService:   collectionService,
		AuditSubscriber:     auditSubscriber,
	}, nil
}
