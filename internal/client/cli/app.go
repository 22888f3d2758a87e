package cli

import (
	"bufio"
	"context"
	"net/http"
	"os"

	"github.com/tanvir-rifat007/maker-cli/internal/client/api"
	"github.com/tanvir-rifat007/maker-cli/internal/client/config"
	"github.com/tanvir-rifat007/maker-cli/internal/client/generation"
	"github.com/tanvir-rifat007/maker-cli/internal/client/history"
	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
	"github.com/tanvir-rifat007/maker-cli/internal/client/recovery"
	"github.com/tanvir-rifat007/maker-cli/internal/client/repositories/sessions"
	"github.com/tanvir-rifat007/maker-cli/internal/client/session"
	"github.com/tanvir-rifat007/maker-cli/internal/logging"
	"github.com/tanvir-rifat007/maker-cli/internal/netx"

	_ "modernc.org/sqlite"
)

// generatePath is the streaming endpoint; one connection per generation job.
const generatePath = "/api/generate"

type App struct {
	config *config.Config
	log    logging.Logger

	api   api.Client
	httpc *http.Client

	store *session.Store
	gate  *session.Gate
	gen   *generation.Client
	hist  *history.Reconciler
	flow  *recovery.Flow

	// form holds the generation parameters the next job starts from.
	// Selecting a history record hydrates it; removing the selected record
	// resets it to defaults.
	form models.GenerationRequest

	reader *bufio.Reader
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {

	ctx := context.Background()

	db, err := sessions.OpenDatabase(ctx, c.CacheDBPath)
	if err != nil {
		log.Error(ctx, "error initializing cache db", "error", err)
		return nil, err
	}
	repo := sessions.NewSQLiteRepository(db)

	apiClient, err := api.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	wsURL, err := netx.WebsocketURL(c.ServerBaseURL, generatePath)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(apiClient, log)
	httpc := apiClient.HTTP()
	dialer := generation.NewWebsocketDialer(httpc.Jar)

	return &App{
		config: c,
		log:    log,
		api:    apiClient,
		httpc:  httpc,
		store:  store,
		gate:   session.NewGate(store),
		gen:    generation.NewClient(dialer, wsURL, log),
		hist:   history.NewReconciler(apiClient, repo, log),
		flow:   recovery.NewFlow(apiClient),
		form:   models.DefaultGenerationRequest(),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.gen.Close()
	defer a.api.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.store.State() == session.StateAuthenticated
}

func (a *App) decide() session.Decision {
	return a.gate.Decide()
}
