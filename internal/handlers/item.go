package handlers

import (
	"Marketplace/internal/apperr"
	"Marketplace/internal/auth"
	"Marketplace/internal/config"
	"Marketplace/internal/middleware"
	"Marketplace/internal/model"
	"Marketplace/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ItemHandler обрабатывает создание и чтение объявлений.
type ItemHandler struct {
	ItemService *service.ItemService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

// NewItemHandler создаёт хендлер items
func NewItemHandler(itemService *service.ItemService, logger *zap.SugaredLogger, cfg *config.Config) *ItemHandler {
	return &ItemHandler{ItemService: itemService, Logger: logger, Config: cfg}
}

// ImageEntry — изображение в запросе создания.
type ImageEntry struct {
	Base64       string `json:"base64"`
	OriginalName string `json:"originalname"`
	MimeType     string `json:"mimetype"`
}

// CreateItemRequest — тело POST /items.
type CreateItemRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       *float64     `json:"price"`
	Category    string       `json:"category"`
	Images      []ImageEntry `json:"images"`
}

type ImageDTO struct {
	URL              string `json:"url"`
	OriginalFilename string `json:"originalFilename"`
	MimeType         string `json:"mimeType"`
	SizeBytes        int64  `json:"sizeBytes"`
}

type ItemDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	OwnerID     string     `json:"owner_id"`
	Images      []ImageDTO `json:"images"`
	ImageURL    string     `json:"image_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func toItemDTO(it *model.Item) ItemDTO {
	images := make([]ImageDTO, 0, len(it.Images))
	for _, img := range it.Images {
		images = append(images, ImageDTO{
			URL:              img.URL,
			OriginalFilename: img.OriginalFilename,
			MimeType:         img.MimeType,
			SizeBytes:        img.SizeBytes,
		})
	}
	return ItemDTO{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		Price:       it.Price,
		Category:    it.Category,
		Status:      it.Status,
		OwnerID:     it.OwnerID,
		Images:      images,
		ImageURL:    it.ImageURL(),
		CreatedAt:   it.CreatedAt,
	}
}

// Create создание объявления с изображениями
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	// Лимит общего тела запроса: base64 раздувает данные на треть
	maxBody := h.Config.ImageMaxBytes()*int64(max(h.Config.ImageMaxCount, 1))*4/3 + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Create: invalid request body", "subject_id", p.SubjectID, "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, r, apperr.Validation("body", "request body too large"))
			return
		}
		middleware.WriteError(w, r, apperr.Validation("body", "invalid JSON"))
		return
	}

	in := service.CreateItemInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Images:      make([]service.ImagePayload, 0, len(req.Images)),
	}
	for _, e := range req.Images {
		in.Images = append(in.Images, service.ImagePayload{Data: e.Base64, OriginalFilename: e.OriginalName, MimeType: e.MimeType})
	}

	it, err := h.ItemService.CreateItem(r.Context(), p, in)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	w.Header().Set("Location", "/items/"+it.ID)
	middleware.WriteJSON(w, http.StatusCreated, toItemDTO(it))
}

// List список объявлений с фильтрами
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lq := service.ListQuery{
		OwnerID:  q.Get("owner_id"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
	}
	var err error
	if lq.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if lq.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	items, err := h.ItemService.ListItems(r.Context(), lq)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	out := make([]ItemDTO, 0, len(items))
	for i := range items {
		out = append(out, toItemDTO(&items[i]))
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// Get одно объявление по id
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.ItemService.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toItemDTO(it))
}

// UpdateStatus смена статуса объявления (только admin)
func (h *ItemHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, apperr.Validation("body", "invalid JSON"))
		return
	}
	it, err := h.ItemService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toItemDTO(it))
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation(name, name+" must be an integer")
	}
	return n, nil
}
