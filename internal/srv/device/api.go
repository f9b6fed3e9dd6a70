package device

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/inkpanel/apimodel"
	"github.com/jypelle/inkpanel/internal/srv/config"
	"github.com/jypelle/inkpanel/internal/srv/event"
	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/jypelle/inkpanel/internal/tool"
	"github.com/sirupsen/logrus"
)

// ApiBackend is what the api exposes of the running panel.
type ApiBackend interface {
	PanelState() apimodel.PanelState
	Stats() apimodel.Stats
	// Send queues ev for the render task; false when it was dropped.
	Send(ev event.Event) bool
	Screenshot() image.Image
	// SetButton, SetAxes and SetControllerConnected drive the simulated
	// controller.
	SetButton(name string, pressed bool) error
	SetAxes(axes Axes) error
	SetControllerConnected(connected bool) error
}

type Api struct {
	backend ApiBackend

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config *config.ServerConfig
}

func NewApi(config *config.ServerConfig, backend ApiBackend) *Api {
	api := Api{
		config:  config,
		backend: backend,
	}

	api.router = mux.NewRouter().StrictSlash(false)

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key
				apiKey := r.Header.Get("x-api-key")
				if apiKey != config.ServerParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/state",
		func(w http.ResponseWriter, r *http.Request) {
			JsonAction(w, backend.PanelState())
		}).Methods("GET")
	api.apiRouter.HandleFunc("/stats",
		func(w http.ResponseWriter, r *http.Request) {
			JsonAction(w, backend.Stats())
		}).Methods("GET")
	api.apiRouter.HandleFunc("/screenshot",
		func(w http.ResponseWriter, r *http.Request) {
			img := backend.Screenshot()
			if img == nil {
				ErrorStatusAction(w, r, http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			if err := png.Encode(w, img); err != nil {
				logrus.Warnf("Unable to encode screenshot: %v", err)
			}
		}).Methods("GET")
	api.apiRouter.HandleFunc("/event/{name}",
		func(w http.ResponseWriter, r *http.Request) {
			ev, ok := EventFromName(mux.Vars(r)["name"], r.URL.Query().Get("intensity"))
			if !ok {
				apimodel.UnknownEventErrorMessage.Send(w)
				return
			}
			api.send(w, r, ev)
		}).Methods("POST")
	api.apiRouter.HandleFunc("/screen/{screen}",
		func(w http.ResponseWriter, r *http.Request) {
			screen, ok := model.ParseScreen(mux.Vars(r)["screen"])
			if !ok {
				apimodel.UnknownScreenErrorMessage.Send(w)
				return
			}
			api.send(w, r, event.ScreenChange(screen))
		}).Methods("POST")
	api.apiRouter.HandleFunc("/refresh",
		func(w http.ResponseWriter, r *http.Request) {
			api.send(w, r, event.New(event.FORCE_FULL_REFRESH_EVENT))
		}).Methods("POST")
	api.apiRouter.HandleFunc("/button/{name}/{action:press|release}",
		func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			if err := backend.SetButton(vars["name"], vars["action"] == "press"); err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusBadRequest)
				return
			}
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("POST")
	api.apiRouter.HandleFunc("/axes",
		func(w http.ResponseWriter, r *http.Request) {
			axes, err := AxesFromQuery(r.URL.Query())
			if err == nil {
				err = backend.SetAxes(axes)
			}
			if err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusBadRequest)
				return
			}
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("POST")
	api.apiRouter.HandleFunc("/controller/{action:connect|disconnect}",
		func(w http.ResponseWriter, r *http.Request) {
			if err := backend.SetControllerConnected(mux.Vars(r)["action"] == "connect"); err != nil {
				GlobalErrorAction(w, err.Error(), http.StatusBadRequest)
				return
			}
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "x-api-key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.SslPort, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

// Handler returns the routed handler, without TLS.
func (d *Api) Handler() http.Handler {
	return d.server.Handler
}

func (d *Api) Start() error {
	logrus.Infof("Start api device")

	generated, err := d.tlsFiles().EnsureSelfSigned("jypelle", "Inkpanel Server")
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if generated {
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		files := d.tlsFiles()
		err := d.server.ListenAndServeTLS(files.CertFile, files.KeyFile)
		if err != nil && err != http.ErrServerClosed {
			logrus.Error(err)
		}
	}()
	return nil
}

func (d *Api) Stop() {
	logrus.Infof("Stop api device")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d.server.Shutdown(ctx)
}

func (d *Api) send(w http.ResponseWriter, r *http.Request, ev event.Event) {
	if !d.backend.Send(ev) {
		apimodel.QueueFullErrorMessage.Send(w)
		return
	}
	ErrorStatusAction(w, r, http.StatusOK)
}

func (d *Api) tlsFiles() tool.TlsFiles {
	return tool.TlsFiles{
		KeyFile:  filepath.Join(d.config.ConfigDir, "key.pem"),
		CertFile: filepath.Join(d.config.ConfigDir, "cert.pem"),
	}
}

// EventFromName builds the event named like event.Type.String. intensity is
// only read for trigger events.
func EventFromName(name string, intensity string) (event.Event, bool) {
	t, ok := event.ParseType(name)
	if !ok || t == event.NONE_EVENT || t == event.SCREEN_CHANGE_EVENT {
		return event.Event{}, false
	}
	switch t {
	case event.NAV_UP_EVENT:
		return event.Nav(0, -1), true
	case event.NAV_DOWN_EVENT:
		return event.Nav(0, 1), true
	case event.NAV_LEFT_EVENT:
		return event.Nav(-1, 0), true
	case event.NAV_RIGHT_EVENT:
		return event.Nav(1, 0), true
	case event.TRIGGER_LEFT_EVENT, event.TRIGGER_RIGHT_EVENT:
		v, err := strconv.ParseUint(intensity, 10, 8)
		if err != nil {
			return event.Event{}, false
		}
		return event.Trigger(t, uint8(v)), true
	}
	return event.New(t), true
}

// AxesFromQuery reads lx, ly (stick, int16) and lt, rt (triggers, uint16).
// Missing values are at rest.
func AxesFromQuery(q url.Values) (Axes, error) {
	var axes Axes
	for _, stick := range []struct {
		key string
		dst *int16
	}{{"lx", &axes.LeftX}, {"ly", &axes.LeftY}} {
		if v := q.Get(stick.key); v != "" {
			n, err := strconv.ParseInt(v, 10, 16)
			if err != nil {
				return Axes{}, fmt.Errorf("invalid %s: %q", stick.key, v)
			}
			*stick.dst = int16(n)
		}
	}
	for _, trigger := range []struct {
		key string
		dst *uint16
	}{{"lt", &axes.LeftTrigger}, {"rt", &axes.RightTrigger}} {
		if v := q.Get(trigger.key); v != "" {
			n, err := strconv.ParseUint(v, 10, 16)
			if err != nil {
				return Axes{}, fmt.Errorf("invalid %s: %q", trigger.key, v)
			}
			*trigger.dst = uint16(n)
		}
	}
	return axes, nil
}

func JsonAction(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("Unable to encode response: %v", err)
	}
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	apimodel.NewErrorMessage(status, title).Send(w)
}
