package arb

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// checkRequest is the body of POST /api/arb-check. PreferredBook and
// UsualStake are optional; when both are set and an opportunity exists, the
// response carries an adjusted plan as well.
type checkRequest struct {
	Book1         Book    `json:"book1"`
	Book2         Book    `json:"book2"`
	Investment    float64 `json:"investment"`
	PreferredBook string  `json:"preferredBook,omitempty"`
	UsualStake    float64 `json:"usualStake,omitempty"`
}

type checkResponse struct {
	Evaluation
	Plan *Plan `json:"plan,omitempty"`
}

// Handler serves the arbitrage check endpoint.
type Handler struct {
	log          *slog.Logger
	maxBodyBytes int64
}

// NewHandler constructs an arb Handler.
func NewHandler(log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, maxBodyBytes: 1 << 20}
}

// Register wires the arb routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/arb-check", h.handleCheck)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req checkRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body. Expected JSON.")
		return
	}

	ev, err := Evaluate(req.Book1, req.Book2, req.Investment)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := checkResponse{Evaluation: ev}
	if ev.Found && req.PreferredBook != "" && req.UsualStake > 0 {
		plan, err := AdjustStakes(ev, req.PreferredBook, req.UsualStake)
		if err != nil {
			if errors.Is(err, ErrUnknownBook) || errors.Is(err, ErrInvalidStake) {
				h.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			h.log.Error("arb.adjust.fail", "err", err)
		} else {
			res.Plan = &plan
		}
	}

	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("arb.encode.fail", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
