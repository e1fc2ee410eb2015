package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/karim1349/app-psy-sophia-sub000/internal/client/api"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/bootstrap"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/config"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/devstate"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/identity"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/services"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/session"
	"github.com/karim1349/app-psy-sophia-sub000/internal/filex"
	"github.com/karim1349/app-psy-sophia-sub000/internal/logging"

	_ "modernc.org/sqlite"
)

// reconciler is the slice of the bootstrap reconciler the App drives.
type reconciler interface {
	Run(ctx context.Context) (bootstrap.Decision, error)
}

type App struct {
	config       *config.Config
	authService  services.AuthService
	childService services.ChildService
	reconciler   reconciler
	log          logging.Logger
	reader       *bufio.Reader
	db           *sql.DB

	status identity.Status
	route  bootstrap.Decision
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: logging.ParseLevel(c.LogLevel)})))

	dataDir, err := filex.EnsureDataDir(c.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := devstate.InitDatabase(ctx, filepath.Join(dataDir, "state.db"))
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	state := devstate.NewStore(db)
	deviceID, err := state.InstallID(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	refresh := api.NewRefreshFunc(c.APIBaseURL, &http.Client{Timeout: c.RequestTimeout}, logger)
	sessions := session.NewCoordinator(session.NewFileStore(dataDir), refresh, logger)
	gateway := api.NewHTTPClient(c.APIBaseURL, c.RequestTimeout, sessions, deviceID, logger)

	return &App{
		config:       c,
		authService:  services.NewAuthService(gateway, sessions, state),
		childService: services.NewChildService(gateway, state),
		reconciler:   bootstrap.NewReconciler(sessions, gateway, state, logger),
		log:          logger,
		reader:       bufio.NewReader(os.Stdin),
		db:           db,
		status:       identity.StatusUnknown,
	}, nil
}

// Run reconciles once so the prompt starts with a route, then hands
// control to the REPL. It blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	_ = a.Bootstrap(ctx)
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

// Close releases the device-state database.
func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isIdentified() bool {
	return a.status == identity.StatusGuest || a.status == identity.StatusFull
}

func (a *App) getStatus() string {
	s := ""
	if a.isIdentified() {
		s = string(a.status)
	}
	if a.route != "" {
		if s != "" {
			s = s + " "
		}
		s = s + string(a.route)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
