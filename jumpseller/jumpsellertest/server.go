// Package jumpsellertest provides an in-memory Jumpseller API for tests.
package jumpsellertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"pricesync/config"
	"pricesync/models"
)

const (
	Login = "store-login"
	Token = "store-token"
)

// Server serves the subset of the API the service uses: search, fetch,
// product update and field update, all under /v1.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	products   map[int64]models.RemoteProduct
	calls      []string
	search     func(query string) (status int, body any)
	failPrice  map[int64]bool
	dropFields bool
}

func NewServer() *Server {
	s := &Server{
		products:  map[int64]models.RemoteProduct{},
		failPrice: map[int64]bool{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Config returns client settings pointing at this server.
func (s *Server) Config() config.Jumpseller {
	return config.Jumpseller{
		BaseURL: s.URL + "/v1",
		Login:   Login,
		Token:   Token,
		Timeout: 5 * time.Second,
	}
}

func (s *Server) Add(p models.RemoteProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Server) Product(id int64) models.RemoteProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

// OverrideSearch replaces the search handler's response.
func (s *Server) OverrideSearch(fn func(query string) (status int, body any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = fn
}

// FailPrice makes price updates for product id answer 500.
func (s *Server) FailPrice(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPrice[id] = true
}

// DropFieldWrites makes field updates succeed without storing anything.
func (s *Server) DropFieldWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropFields = true
}

// Calls returns "METHOD path" for every request received so far.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls = append(s.calls, r.Method+" "+r.URL.Path)
	s.mu.Unlock()

	if login, token, ok := r.BasicAuth(); !ok || login != Login || token != Token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1")
	parts := strings.Split(strings.Trim(strings.TrimSuffix(path, ".json"), "/"), "/")

	switch {
	case r.Method == http.MethodGet && path == "/products/search.json":
		s.searchProducts(w, r.URL.Query().Get("query"))
	case len(parts) == 2 && parts[0] == "products":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			writeJSON(w, http.StatusNotFound, nil)
			return
		}
		if r.Method == http.MethodGet {
			s.get(w, id)
			return
		}
		s.updatePrice(w, r, id)
	case len(parts) == 4 && parts[0] == "products" && parts[2] == "fields" && r.Method == http.MethodPut:
		id, err1 := strconv.ParseInt(parts[1], 10, 64)
		fieldID, err2 := strconv.ParseInt(parts[3], 10, 64)
		if err1 != nil || err2 != nil {
			writeJSON(w, http.StatusNotFound, nil)
			return
		}
		s.updateField(w, r, id, fieldID)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

func (s *Server) searchProducts(w http.ResponseWriter, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.search != nil {
		status, body := s.search(query)
		writeJSON(w, status, body)
		return
	}

	q := strings.ToLower(query)
	var ids []int64
	for id, p := range s.products {
		if strings.Contains(strings.ToLower(p.SKU), q) || strings.Contains(strings.ToLower(p.Name), q) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"product": render(s.products[id])})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": render(p)})
}

func (s *Server) updatePrice(w http.ResponseWriter, r *http.Request, id int64) {
	var body struct {
		Product struct {
			Price json.Number `json:"price"`
		} `json:"product"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	if s.failPrice[id] {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
		return
	}
	p.Price = body.Product.Price.String()
	s.products[id] = p
	writeJSON(w, http.StatusOK, map[string]any{"product": render(p)})
}

func (s *Server) updateField(w http.ResponseWriter, r *http.Request, id, fieldID int64) {
	var body struct {
		Field struct {
			Value string `json:"value"`
		} `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	for i, f := range p.Fields {
		if f.ID != fieldID {
			continue
		}
		if !s.dropFields {
			fields := append([]models.CustomField(nil), p.Fields...)
			fields[i].Value = body.Field.Value
			p.Fields = fields
			s.products[id] = p
		}
		writeJSON(w, http.StatusOK, map[string]any{"field": fieldJSON(p.Fields[i])})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "field not found"})
}

func render(p models.RemoteProduct) map[string]any {
	fields := make([]any, 0, len(p.Fields))
	for _, f := range p.Fields {
		fields = append(fields, fieldJSON(f))
	}
	out := map[string]any{
		"id":     p.ID,
		"name":   p.Name,
		"sku":    p.SKU,
		"fields": fields,
	}
	if p.Price != "" {
		out["price"] = json.Number(p.Price)
	}
	return out
}

func fieldJSON(f models.CustomField) map[string]any {
	return map[string]any{
		"id":              f.ID,
		"custom_field_id": f.CustomFieldID,
		"label":           f.Label,
		"value":           f.Value,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
