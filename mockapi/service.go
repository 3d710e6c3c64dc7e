// Package mockapi is an in-process lookalike of the demo JSON service that the contract tests run
// against. It serves the same routes over a small built-in data set and never persists a change:
// a create, update or delete returns what the real service would, and the next request sees the
// original data again.
package mockapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/launchdarkly/crud-contract-tests/framework"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Mode selects how closely the service validates its input.
type Mode int

const (
	// Loose reproduces the demo service's known looseness: it accepts invalid payloads, reports
	// deletion of ids that do not exist, and includes passwords in user records.
	Loose Mode = iota

	// Strict validates payloads, returns 404 for every operation on a missing id, and never
	// exposes passwords.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "loose"
}

// ParseMode parses "loose" or "strict".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "loose":
		return Loose, nil
	case "strict":
		return Strict, nil
	default:
		return Loose, fmt.Errorf("unknown mock API mode %q", s)
	}
}

const defaultListLimit = 30

// Service is an http.Handler for the mock API. It is safe for concurrent use, since it never
// modifies its data after creation.
type Service struct {
	mode        Mode
	data        SeedData
	handler     http.Handler
	debugLogger framework.Logger
	now         func() time.Time
}

// NewService creates a Service over the default seed data.
func NewService(mode Mode, debugLogger framework.Logger) *Service {
	s, _ := NewServiceWithData(mode, DefaultSeedData(), debugLogger)
	return s
}

// NewServiceWithData creates a Service over the specified data. Every item must have an
// integer "id".
func NewServiceWithData(mode Mode, data SeedData, debugLogger framework.Logger) (*Service, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	s := &Service{
		mode:        mode,
		data:        data,
		debugLogger: debugLogger,
		now:         time.Now,
	}

	router := mux.NewRouter()
	router.HandleFunc("/test", s.serveStatus).Methods("GET", "HEAD")
	router.HandleFunc("/{kind}", s.serveList).Methods("GET")
	router.HandleFunc("/{kind}/add", s.serveCreate).Methods("POST")
	router.HandleFunc("/{kind}/user/{id}", s.serveListByUser).Methods("GET")
	router.HandleFunc("/{kind}/{id}", s.serveGet).Methods("GET")
	router.HandleFunc("/{kind}/{id}", s.serveUpdate).Methods("PUT", "PATCH")
	router.HandleFunc("/{kind}/{id}", s.serveDelete).Methods("DELETE")
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path))
	})
	s.handler = router

	return s, nil
}

// Mode returns the service's validation mode.
func (s *Service) Mode() Mode { return s.mode }

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.debugLogger.Printf("mock API (%s) got %s %s", s.mode, r.Method, r.URL)
	s.handler.ServeHTTP(w, r)
}

func (s *Service) serveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().
		Set("status", ldvalue.String("ok")).
		Set("method", ldvalue.String(r.Method)).
		Build())
}

func (s *Service) serveList(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindFromRequest(w, r)
	if !ok {
		return
	}
	items := s.data[kind]
	limit, skip := defaultListLimit, 0
	var err error
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid limit")
			return
		}
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil || skip < 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid skip")
			return
		}
	}
	page := items[min(skip, len(items)):]
	if limit > 0 && limit < len(page) {
		page = page[:limit]
	}
	writeJSON(w, http.StatusOK, s.listBody(kind, page, len(items), skip, limit))
}

func (s *Service) serveListByUser(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindFromRequest(w, r)
	if !ok {
		return
	}
	userID, ok := idFromRequest(w, r)
	if !ok {
		return
	}
	var page []ldvalue.Value
	for _, item := range s.data[kind] {
		if item.GetByKey("userId").IntValue() == userID {
			page = append(page, item)
		}
	}
	writeJSON(w, http.StatusOK, s.listBody(kind, page, len(page), 0, len(page)))
}

func (s *Service) listBody(kind string, page []ldvalue.Value, total, skip, limit int) ldvalue.Value {
	arr := ldvalue.ArrayBuild()
	for _, item := range page {
		arr.Add(s.present(kind, item))
	}
	return ldvalue.ObjectBuild().
		Set(kind, arr.Build()).
		Set("total", ldvalue.Int(total)).
		Set("skip", ldvalue.Int(skip)).
		Set("limit", ldvalue.Int(limit)).
		Build()
}

func (s *Service) serveGet(w http.ResponseWriter, r *http.Request) {
	kind, item, _, ok := s.itemFromRequest(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.present(kind, item))
}

func (s *Service) serveCreate(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindFromRequest(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if s.mode == Strict {
		if problem := s.validateCreate(kind, body); problem != "" {
			writeMessage(w, http.StatusBadRequest, problem)
			return
		}
	}
	created := ldvalue.ObjectBuild().Set("id", ldvalue.Int(s.data.maxID(kind)+1))
	for key, value := range body.AsValueMap().AsMap() {
		if key != "id" {
			created.Set(key, value)
		}
	}
	writeJSON(w, http.StatusCreated, created.Build())
}

func (s *Service) serveUpdate(w http.ResponseWriter, r *http.Request) {
	kind, item, _, ok := s.itemFromRequest(w, r, true)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if s.mode == Strict {
		if problem := validateTypes(item, body); problem != "" {
			writeMessage(w, http.StatusBadRequest, problem)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.present(kind, merge(item, body)))
}

func (s *Service) serveDelete(w http.ResponseWriter, r *http.Request) {
	kind, item, id, ok := s.itemFromRequest(w, r, s.mode == Strict)
	if !ok {
		return
	}
	if item.IsNull() {
		// the real service reports success for ids it never had
		item = ldvalue.ObjectBuild().Set("id", ldvalue.Int(id)).Build()
	}
	deleted := ldvalue.ObjectBuild()
	for key, value := range s.present(kind, item).AsValueMap().AsMap() {
		deleted.Set(key, value)
	}
	deleted.Set("isDeleted", ldvalue.Bool(true))
	deleted.Set("deletedOn", ldvalue.String(s.now().UTC().Format(time.RFC3339)))
	writeJSON(w, http.StatusOK, deleted.Build())
}

// present removes fields that must not be exposed, depending on the mode.
func (s *Service) present(kind string, item ldvalue.Value) ldvalue.Value {
	if s.mode == Loose || kind != "users" {
		return item
	}
	b := ldvalue.ObjectBuild()
	for key, value := range item.AsValueMap().AsMap() {
		if key != "password" {
			b.Set(key, value)
		}
	}
	return b.Build()
}

func (s *Service) kindFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	kind := mux.Vars(r)["kind"]
	if _, ok := s.data[kind]; !ok {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path))
		return "", false
	}
	return kind, true
}

// itemFromRequest resolves the {kind} and {id} of a request. If the item does not exist, it
// writes a 404 if mustExist is true, and otherwise returns a null item.
func (s *Service) itemFromRequest(
	w http.ResponseWriter,
	r *http.Request,
	mustExist bool,
) (kind string, item ldvalue.Value, id int, ok bool) {
	if kind, ok = s.kindFromRequest(w, r); !ok {
		return
	}
	if id, ok = idFromRequest(w, r); !ok {
		return
	}
	item, found := s.data.find(kind, id)
	if !found && mustExist {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("%s with id '%d' not found", singular(kind), id))
		return kind, item, id, false
	}
	return kind, item, id, true
}

func idFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid id '%s'", raw))
		return 0, false
	}
	return id, true
}

func readBody(w http.ResponseWriter, r *http.Request) (ldvalue.Value, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Unreadable body")
		return ldvalue.Null(), false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return ldvalue.ObjectBuild().Build(), true
	}
	body := ldvalue.Parse(data)
	if body.Type() != ldvalue.ObjectType {
		writeMessage(w, http.StatusBadRequest, "Body must be a JSON object")
		return ldvalue.Null(), false
	}
	return body, true
}

func merge(item, changes ldvalue.Value) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for key, value := range item.AsValueMap().AsMap() {
		b.Set(key, value)
	}
	for key, value := range changes.AsValueMap().AsMap() {
		if key == "id" {
			continue
		}
		if existing := item.GetByKey(key); existing.Type() == ldvalue.ObjectType && value.Type() == ldvalue.ObjectType {
			value = merge(existing, value)
		}
		b.Set(key, value)
	}
	return b.Build()
}

func singular(kind string) string {
	if kind == "" {
		return kind
	}
	return strings.ToUpper(kind[:1]) + strings.TrimSuffix(kind[1:], "s")
}

func writeJSON(w http.ResponseWriter, status int, value ldvalue.Value) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(value.JSONString()))
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ldvalue.ObjectBuild().Set("message", ldvalue.String(message)).Build())
}
