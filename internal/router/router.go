package router

import (
	"database/sql"
	"net/http"
	"os"

	_ "medication-adherence-tracker/docs"
	mem "medication-adherence-tracker/internal/adapters/storage/memory"
	pg "medication-adherence-tracker/internal/adapters/storage/postgres"
	"medication-adherence-tracker/internal/domain/alerts"
	"medication-adherence-tracker/internal/domain/doses"
	"medication-adherence-tracker/internal/domain/medications"
	"medication-adherence-tracker/internal/domain/prescriptions"
	"medication-adherence-tracker/internal/domain/schedules"
	"medication-adherence-tracker/internal/middleware"
	"medication-adherence-tracker/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
}

// App expone los repos y services ya cableados, además del handler HTTP.
// Los sweeps de cron (stock bajo, horizonte) se cuelgan de los mismos repos
// que la API para no abrir una segunda conexión.
type App struct {
	Medications   medications.Repository
	Prescriptions prescriptions.Repository
	Schedules     schedules.Repository
	Doses         doses.Repository
	Alerts        alerts.Repository

	DoseService *doses.Service

	Handler http.Handler
}

// NewRouter arma la app y devuelve solo el handler. Es la entrada que usan
// los tests end-to-end.
func NewRouter(opts Options) http.Handler {
	return NewApp(opts).Handler
}

func NewApp(opts Options) *App {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler())

	app := &App{}

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		app.Medications = pg.NewMedicationsRepo(db)
		app.Prescriptions = pg.NewPrescriptionsRepo(db)
		app.Schedules = pg.NewSchedulesRepo(db)
		app.Doses = pg.NewDosesRepo(db)
		app.Alerts = pg.NewAlertsRepo(db)
	} else {
		app.Medications = mem.NewMedicationsRepo()
		app.Prescriptions = mem.NewPrescriptionsRepo()
		app.Schedules = mem.NewSchedulesRepo()
		app.Doses = mem.NewDosesRepo()
		app.Alerts = mem.NewAlertsRepo()
	}

	// Services por módulo
	medsSvc := medications.NewService(app.Medications)
	presSvc := prescriptions.NewService(app.Prescriptions)
	schedSvc := schedules.NewService(app.Schedules)
	doseSvc := doses.NewService(app.Doses, app.Schedules)
	app.DoseService = doseSvc

	// Rutas por módulo
	medications.RegisterRoutes(r, medsSvc)
	prescriptions.RegisterRoutes(r, presSvc, medsSvc)
	schedules.RegisterRoutes(r, schedSvc, presSvc)
	doses.RegisterRoutes(r, doseSvc, schedSvc, presSvc)

	app.Handler = r
	return app
}
