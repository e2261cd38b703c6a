package handler

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Dan9191/bank-rest/internal/config"
	"github.com/Dan9191/bank-rest/internal/middleware"
	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/Dan9191/bank-rest/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc      *service.Service
	log      *logrus.Logger
	validate *validator.Validate
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log, validate: newValidator()}
}

// Router wires every endpoint. Card and user routes require a bearer
// token; admin routes additionally require the ADMIN role.
func (h *Handler) Router(cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(h.log))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "resource not found")
	})

	// Public routes
	r.HandleFunc("/registration", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	// Protected routes
	api := r.PathPrefix("/").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg))
	admin := func(f http.HandlerFunc) http.Handler {
		return middleware.RequireRole(models.RoleAdmin)(f)
	}

	api.HandleFunc("/users/me", h.Me).Methods(http.MethodGet)
	api.Handle("/admin/users", admin(h.ListUsers)).Methods(http.MethodGet)

	api.Handle("/cards", admin(h.ListAllCards)).Methods(http.MethodGet)
	api.HandleFunc("/cards", h.CreateCard).Methods(http.MethodPost)
	api.HandleFunc("/cards/my", h.ListMyCards).Methods(http.MethodGet)
	api.HandleFunc("/cards/my/status/{status}", h.ListMyCardsByStatus).Methods(http.MethodGet)
	api.HandleFunc("/cards/transfer", h.Transfer).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id:[0-9]+}", h.GetMyCard).Methods(http.MethodGet)
	api.Handle("/cards/{id:[0-9]+}", admin(h.UpdateCard)).Methods(http.MethodPut)
	api.Handle("/cards/{id:[0-9]+}", admin(h.DeleteCard)).Methods(http.MethodDelete)
	api.HandleFunc("/cards/{id:[0-9]+}/block", h.BlockCard).Methods(http.MethodPost)
	api.Handle("/cards/{id:[0-9]+}/activate", admin(h.ActivateCard)).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id:[0-9]+}/transfers", h.ListTransfers).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id:[0-9]+}/statement", h.Statement).Methods(http.MethodGet)
	api.Handle("/admin/cards/{id:[0-9]+}", admin(h.GetAnyCard)).Methods(http.MethodGet)

	return r
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// amounts are compared numerically by gt/gte tags
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// decode reads a JSON body into dst and validates it
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeValidation(w, err)
		return false
	}
	return true
}

func principal(w http.ResponseWriter, r *http.Request) (middleware.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
	}
	return p, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid card id")
		return 0, false
	}
	return id, true
}

func pageRequest(w http.ResponseWriter, r *http.Request) (models.PageRequest, bool) {
	var req models.PageRequest
	q := r.URL.Query()
	for name, dst := range map[string]*int{"page": &req.Page, "size": &req.Size} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "invalid "+name+" parameter")
			return req, false
		}
		*dst = n
	}
	return req.Normalize(), true
}
