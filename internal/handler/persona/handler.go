package persona

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-salon/backend/internal/model/persona"
	"github.com/zhouzirui/z-salon/backend/pkg/utils"
)

// Handler persona服务的HTTP处理器
type Handler struct {
	personas persona.Store
}

// New 创建persona处理器
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/personas", func(r chi.Router) {
		r.Get("/", h.handleListPersonas)
		r.Get("/categories", h.handleListCategories)
		r.Get("/search", h.handleSearch)
		r.Get("/category/{category}", h.handleListByCategory)
		r.Get("/{personaID}", h.handleGetPersona)
	})
}

// handleListPersonas lists every persona, optionally narrowed by ?category= and ?q=.
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	items := h.personas.List()

	if raw := query.Get("category"); raw != "" {
		category, err := persona.ParseCategory(raw)
		if err != nil {
			utils.RespondValidation(w, "invalid category", map[string]string{"category": err.Error()})
			return
		}
		items = h.personas.ListByCategory(category)
	}
	if q := strings.TrimSpace(query.Get("q")); q != "" {
		items = intersect(items, h.personas.Search(q))
	}

	utils.RespondJSON(w, http.StatusOK, items)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, persona.Categories())
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.Search(r.URL.Query().Get("q")))
}

func (h *Handler) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := persona.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		utils.RespondValidation(w, "invalid category", map[string]string{"category": err.Error()})
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.personas.ListByCategory(category))
}

func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "personaID"))
	if err != nil {
		utils.RespondValidation(w, "invalid persona id", map[string]string{"personaId": "must be an integer"})
		return
	}

	p, ok := h.personas.FindByID(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func intersect(a, b []persona.Persona) []persona.Persona {
	keep := make(map[int]struct{}, len(b))
	for _, p := range b {
		keep[p.ID] = struct{}{}
	}
	out := make([]persona.Persona, 0, len(a))
	for _, p := range a {
		if _, ok := keep[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}
