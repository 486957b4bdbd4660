package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/asdine/storm"
	"github.com/caarlos0/env"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/CodedInternet/goshooter/comms"
	"github.com/CodedInternet/goshooter/onboard"
)

type EnvConfig struct {
	JWT_ISSUER string `env:"ROBOT_ID" envDefault:"DEV"`
	DEBUG      bool   `env:"DEBUG" envDefault:"false"`
	SRCDIR     string `env:"SRCDIR" envDefault:"."`
	DATA_DIR   string `env:"DATA_DIR" envDefault:"./tmp"`
	HTMLDIR    string `env:"HTMLDIR" envDefault:"./frontend/dist/"`
	DB         *storm.DB
	Conductor  *comms.Conductor
	Shooter    *onboard.Shooter
}

var (
	ENV *EnvConfig
)

func init() {
	ENV = new(EnvConfig)
	if err := env.Parse(ENV); err != nil {
		log.Fatalf("unable to parse environment: %v", err)
	}
}

func main() {
	simulated := flag.Bool("sim", false, "Run the shooter against the simulated motor")
	port := flag.String("port", "0.0.0.0:80", "Specify the ip:port to listen on")
	configFile := flag.String("config", "", "Shooter config file (default $SRCDIR/shooter_config.yaml)")
	withShell := flag.Bool("shell", true, "Start the development shell on stdin")
	flag.Parse()

	db, err := openDb(filepath.Join(ENV.DATA_DIR, "live.db"))
	if err != nil {
		log.Fatal(err)
	}
	ENV.DB = db
	defer ENV.DB.Close() // close database when finished

	filename := *configFile
	if filename == "" {
		filename = filepath.Join(ENV.SRCDIR, "shooter_config.yaml")
	}
	config, err := onboard.LoadShooterFile(filename)
	if err != nil {
		log.Fatal(err)
	}

	output, closeOutput, err := newMotorOutput(config, *simulated)
	if err != nil {
		log.Fatalf("unable to open motor output: %v", err)
	}

	ENV.Shooter, err = onboard.NewShooter(config.Shooter, output, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	ENV.Conductor = comms.NewConductor()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	loopDone := make(chan struct{})
	go func() {
		onboard.NewLoop(ENV.Shooter, ENV.Conductor, config.Loop.Period).Run(ctx)
		close(loopDone)
	}()
	go ENV.Conductor.UpdateClients(ctx, ENV.Shooter)

	if *withShell {
		// Start an instance of the shell so it can be controlled from the CLI
		go newShell(ENV.Shooter).Start()
	}

	srv := &http.Server{Addr: *port, Handler: newRouter()}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	log.Println("Listening on port", *port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Print(err)
		cancel()
	}

	<-loopDone
	if err := closeOutput(); err != nil {
		log.Printf("closing motor output: %v", err)
	}
}

func newRouter() chi.Router {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	//---
	// Build the API routes
	//---
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", Login)

		r.Group(func(r chi.Router) {
			// Seek, verify and validate JWT tokens
			r.Use(ValidateJWT)

			r.Get("/refresh_token", JWTRefresh)

			r.Route("/shooter", func(r chi.Router) {
				r.Get("/", GetShooterState)
				r.Post("/mode", ToggleShooterMode)
				r.Post("/reconfigure", ReconfigureShooter)
			})
		})
	})

	// Add websocket routes
	r.Route("/ws", func(r chi.Router) {
		if !ENV.DEBUG {
			r.Use(ValidateJWT)
		} else {
			log.Println("Running in debug mode. Station authentication disabled.")
		}

		r.Get("/station", StationHandler)
	})

	// add static base routes
	FileServer(r, "/", http.Dir(ENV.HTMLDIR))

	return r
}

func openDb(dbFile string) (db *storm.DB, err error) {
	dir := filepath.Dir(dbFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err = os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err = storm.Open(dbFile)
	if err != nil {
		return
	}

	// call inits for each type
	if err := db.Init(&Operator{}); err != nil {
		return nil, err
	}

	return
}

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	fs := http.StripPrefix(path, http.FileServer(root))

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", 301).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.ServeHTTP(w, r)
	}))
}
