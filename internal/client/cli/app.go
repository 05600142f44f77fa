package cli

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"

	"github.com/slwang/voiceledger/internal/client/config"
	"github.com/slwang/voiceledger/internal/client/services"
	"github.com/slwang/voiceledger/internal/client/store"
	"github.com/slwang/voiceledger/internal/client/sync"
	"github.com/slwang/voiceledger/internal/client/transport"
	"github.com/slwang/voiceledger/internal/logging"
)

// fileRecorder satisfies services.Recorder by reading a pre-recorded audio
// file. The CLI has no microphone access; the "voice" command prompts for a
// file path instead.
type fileRecorder struct {
	path string
}

func (f *fileRecorder) Record(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

// App owns all client-side components and the interactive loop.
type App struct {
	config    *config.Config
	repos     *store.Repositories
	auth      *services.AuthService
	expenses  *services.ExpenseService
	voice     *services.VoiceService
	engine    *sync.Engine
	scheduler *sync.Scheduler
	recorder  *fileRecorder
	log       logging.Logger
	reader    *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	repos, err := store.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	remote := transport.NewHTTPTransport(cfg.ServerURL, &http.Client{})

	auth := services.NewAuthService(repos.DB, remote, logger)
	if err := auth.LoadSession(ctx); err != nil {
		return nil, err
	}

	engine := sync.NewEngine(repos.DB, remote, auth, logger)
	scheduler := sync.NewScheduler(engine, logger, cfg.DebounceInterval, cfg.SyncInterval)

	expenses := services.NewExpenseService(repos.DB, scheduler, logger)
	recorder := &fileRecorder{}
	voice := services.NewVoiceService(remote, auth, recorder, expenses, logger)

	return &App{
		config:    cfg,
		repos:     repos,
		auth:      auth,
		expenses:  expenses,
		voice:     voice,
		engine:    engine,
		scheduler: scheduler,
		recorder:  recorder,
		log:       logger,
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsAuthenticated()
}

// Run starts the background scheduler and the REPL, blocking until the user
// exits.
func (a *App) Run(ctx context.Context) {
	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()
	defer a.repos.DB.Close()

	status := func() string {
		if email := a.auth.Email(); email != "" {
			return email
		}
		return "offline"
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, status, scanner)
}
