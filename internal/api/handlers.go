package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tradewind/internal/domain"
	"tradewind/internal/exec"
)

// ---------------------------------------------------------------------------
// Request / response types
// ---------------------------------------------------------------------------

// SubmitOrderRequest is the body of POST /api/v1/orders. Durations are Go
// duration strings ("5m", "90s").
type SubmitOrderRequest struct {
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Type         string  `json:"type"`
	Qty          float64 `json:"qty"`
	LimitPrice   float64 `json:"limit_price,omitempty"`
	TWAPSlices   int     `json:"twap_slices,omitempty"`
	TWAPDuration string  `json:"twap_duration,omitempty"`
	VisibleQty   float64 `json:"visible_qty,omitempty"`
}

// OrderResponse is a single order with, for parents, its children.
type OrderResponse struct {
	Order    domain.Order   `json:"order"`
	Children []domain.Order `json:"children,omitempty"`
}

// OrdersResponse lists orders.
type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// PositionsResponse lists current positions.
type PositionsResponse struct {
	Positions []domain.Position `json:"positions"`
}

// RefDataRequest is the body of POST /api/v1/risk/refdata. Only the fields
// present are applied.
type RefDataRequest struct {
	ADV           map[string]float64 `json:"adv,omitempty"`
	TotalNAV      *float64           `json:"total_nav,omitempty"`
	PnL           *float64           `json:"pnl,omitempty"`
	StartOfDayNAV *float64           `json:"start_of_day_nav,omitempty"`
}

// PricesRequest is the body of POST /api/v1/prices.
type PricesRequest struct {
	Prices map[string]float64 `json:"prices"`
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/orders", s.handleSubmitOrder)
	mux.HandleFunc("GET /api/v1/orders", s.handleListOrders)
	mux.HandleFunc("GET /api/v1/orders/{id}", s.handleGetOrder)
	mux.HandleFunc("DELETE /api/v1/orders/{id}", s.handleCancelOrder)
	mux.HandleFunc("GET /api/v1/positions", s.handlePositions)
	mux.HandleFunc("GET /api/v1/risk/stats", s.handleRiskStats)
	mux.HandleFunc("POST /api/v1/risk/refdata", s.handleRefData)
	mux.HandleFunc("POST /api/v1/prices", s.handlePrices)
	mux.HandleFunc("GET /api/v1/stream", s.hub.ServeHTTP)
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	order, err := buildOrder(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	if err := s.coord.Submit(order); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "submit failed: %v", err)
		return
	}

	got, _ := s.coord.Order(order.ID)
	writeJSON(w, http.StatusCreated, OrderResponse{Order: got})
}

// buildOrder validates a submit request and constructs the parent order.
func buildOrder(req SubmitOrderRequest) (*domain.Order, error) {
	if req.Symbol == "" {
		return nil, errors.New("symbol is required")
	}
	if req.Qty <= 0 {
		return nil, errors.New("qty must be positive")
	}

	side := domain.OrderSide(req.Side)
	if side != domain.OrderSideBuy && side != domain.OrderSideSell {
		return nil, errors.New("side must be buy or sell")
	}

	typ := domain.OrderType(req.Type)
	switch typ {
	case domain.OrderTypeMarket, domain.OrderTypeLimit, domain.OrderTypeTWAP, domain.OrderTypeIceberg:
	default:
		return nil, errors.New("type must be market, limit, twap, or iceberg")
	}

	order := domain.NewOrder(req.Symbol, side, typ, req.Qty)
	order.LimitPrice = req.LimitPrice
	order.TWAPSlices = req.TWAPSlices
	order.VisibleQty = req.VisibleQty

	if req.TWAPDuration != "" {
		d, err := time.ParseDuration(req.TWAPDuration)
		if err != nil {
			return nil, errors.New("twap_duration must be a duration string (e.g. \"5m\")")
		}
		order.TWAPDuration = d
	}
	return order, nil
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))

	orders := s.coord.Orders()
	if status != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if o.Status == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, OrdersResponse{Orders: orders})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	order, ok := s.coord.Order(id)
	if !ok {
		writeError(w, http.StatusNotFound, "order %s not found", id)
		return
	}
	writeJSON(w, http.StatusOK, OrderResponse{
		Order:    order,
		Children: s.coord.Children(id),
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.coord.Cancel(id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, exec.ErrUnknownOrder):
		writeError(w, http.StatusNotFound, "order %s not found", id)
	case errors.Is(err, exec.ErrOrderTerminal), errors.Is(err, exec.ErrNotParent):
		writeError(w, http.StatusConflict, "%v", err)
	default:
		writeError(w, http.StatusInternalServerError, "cancel failed: %v", err)
	}
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions := s.positions.All()
	if positions == nil {
		positions = []domain.Position{}
	}
	writeJSON(w, http.StatusOK, PositionsResponse{Positions: positions})
}

func (s *Server) handleRiskStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.riskEng.Stats())
}

func (s *Server) handleRefData(w http.ResponseWriter, r *http.Request) {
	var req RefDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	rctx := s.riskEng.Context()
	for symbol, adv := range req.ADV {
		rctx.SetADV(symbol, adv)
	}
	if req.TotalNAV != nil {
		rctx.SetTotalNAV(*req.TotalNAV)
	}
	if req.PnL != nil {
		rctx.SetPnL(*req.PnL)
	}
	if req.StartOfDayNAV != nil {
		rctx.SetStartOfDayNAV(*req.StartOfDayNAV)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		writeError(w, http.StatusServiceUnavailable, "price feed not configured")
		return
	}

	var req PricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	for symbol, price := range req.Prices {
		s.prices.SetPrice(symbol, price)
	}
	w.WriteHeader(http.StatusNoContent)
}
