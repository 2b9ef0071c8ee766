package app

import (
	"churchhealth/internal/cache"
	"churchhealth/internal/config"
	"churchhealth/internal/repository"
	"churchhealth/internal/service"
	"churchhealth/internal/survey"
	"churchhealth/internal/transport/rest"
	"churchhealth/internal/transport/ws"
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// App wires the repositories, caches and services of the assessment server
type App struct {
	QuestionRepo   repository.QuestionRepo
	AssessmentRepo repository.AssessmentRepo

	AssessmentCache cache.AssessmentCache
	QuestionCache   cache.QuestionCache

	Identity    *service.IdentityService
	Questions   *service.QuestionService
	Submissions *service.SubmissionService
	Sessions    *service.SessionService

	Hub *ws.Hub
}

// New builds the application graph. The question bank comes from
// cfg.QuestionsFile when set, otherwise from MongoDB.
func New(cfg *config.Config, db *mongo.Database, rdb *redis.Client) *App {
	a := &App{
		AssessmentRepo:  repository.NewAssessmentRepo(db),
		AssessmentCache: cache.NewAssessmentCache(rdb, cfg.CacheTTL),
		QuestionCache:   cache.NewQuestionCache(rdb),
		Hub:             ws.NewHub(),
	}

	if cfg.UsesFileQuestions() {
		log.Printf("Using question bank file %s", cfg.QuestionsFile)
		a.QuestionRepo = repository.NewFileQuestionRepo(cfg.QuestionsFile)
	} else {
		a.QuestionRepo = repository.NewQuestionRepo(db)
	}

	a.Identity = service.NewIdentityService(cfg.JWTSecret, cfg.CacheTTL)
	a.Questions = service.NewQuestionService(a.QuestionRepo, a.QuestionCache)
	a.Submissions = service.NewSubmissionService(a.AssessmentRepo)
	a.Sessions = service.NewSessionService(
		a.Questions,
		a.AssessmentCache,
		service.NewDraftService(a.AssessmentRepo),
		a.Submissions,
		service.RealClock(),
		cfg.Debounce,
	)

	// Inject broadcaster (hub implements service.Broadcaster)
	a.Sessions.SetBroadcaster(a.Hub)
	return a
}

// Init prepares storage: indexes plus the default question bank on first run
func (a *App) Init(ctx context.Context) error {
	a.AssessmentRepo.EnsureIndexes(ctx)
	return a.Questions.Bootstrap(ctx, survey.DefaultQuestions())
}

// Container exposes the services to the REST router
func (a *App) Container() *rest.Container {
	return &rest.Container{
		IdentityService:   a.Identity,
		SessionService:    a.Sessions,
		QuestionService:   a.Questions,
		SubmissionService: a.Submissions,
		WSHub:             a.Hub,
	}
}
