package httpservice

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fairdraw/fairdraw/internal/core/application"
	"github.com/fairdraw/fairdraw/internal/core/domain"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handler struct {
	svc application.Service
}

func newHandler(svc application.Service) *handler {
	return &handler{svc}
}

func (h *handler) router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Methods(http.MethodPost).Path("/rounds").HandlerFunc(h.startRound)
	v1.Methods(http.MethodPost).Path("/tickets").HandlerFunc(h.registerTicket)
	v1.Methods(http.MethodGet).Path("/rounds/current").HandlerFunc(h.getCurrentRound)
	v1.Methods(http.MethodGet).Path("/rounds/{id}").HandlerFunc(h.getRound)
	v1.Methods(http.MethodGet).Path("/rounds/{id}/winner").HandlerFunc(h.getWinner)

	router.Methods(http.MethodGet).Path("/metrics").Handler(promhttp.Handler())
	return router
}

func (h *handler) startRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.svc.StartRound(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.roundView(r, round))
}

func (h *handler) registerTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TicketId string `json:"ticketId"`
		Amount   uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ticket, err := h.svc.RegisterTicket(r.Context(), req.TicketId, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticketView{
		TicketId: ticket.TicketId,
		RoundId:  ticket.RoundId,
		Amount:   ticket.Amount,
	})
}

func (h *handler) getCurrentRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.svc.GetCurrentRound(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.roundView(r, round))
}

func (h *handler) getRound(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid round id", http.StatusBadRequest)
		return
	}
	round, err := h.svc.GetRoundWithId(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.roundView(r, round))
}

func (h *handler) getWinner(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid round id", http.StatusBadRequest)
		return
	}
	record, err := h.svc.GetWinnerRecord(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, winnerView{
		RoundId:   record.RoundId,
		Winner:    record.Winner,
		Prize:     record.Prize,
		Fee:       record.Fee,
		BlockHash: record.BlockHash,
	})
}

// roundView reveals the plaintext seed once the round is done, so that
// anyone can verify the draw against the published commitments.
func (h *handler) roundView(r *http.Request, round *domain.Round) roundView {
	view := roundView{
		Id:          round.Id,
		State:       round.State.String(),
		StartedAt:   round.StartingTimestamp,
		EndedAt:     round.EndingTimestamp,
		SeedHash:    round.SeedHash,
		MerkleRoot:  round.MerkleRoot,
		FutureBlock: round.FutureBlock,
		Winner:      round.Winner,
		Prize:       round.Prize,
		Fee:         round.Fee,
		BlockHash:   round.BlockHash,
	}
	if round.IsDone() {
		if commitment, err := h.svc.GetSeedCommitment(r.Context(), round.Id); err == nil {
			view.Seed = hex.EncodeToString(commitment.Seed)
		}
	}
	return view
}

type roundView struct {
	Id          uint64 `json:"id"`
	State       string `json:"state"`
	StartedAt   int64  `json:"startedAt"`
	EndedAt     int64  `json:"endedAt,omitempty"`
	SeedHash    string `json:"seedHash,omitempty"`
	MerkleRoot  string `json:"merkleRoot,omitempty"`
	FutureBlock int64  `json:"futureBlock,omitempty"`
	Winner      string `json:"winner,omitempty"`
	Prize       uint64 `json:"prize,omitempty"`
	Fee         uint64 `json:"fee,omitempty"`
	BlockHash   string `json:"blockHash,omitempty"`
	Seed        string `json:"seed,omitempty"`
}

type ticketView struct {
	TicketId string `json:"ticketId"`
	RoundId  uint64 `json:"roundId"`
	Amount   uint64 `json:"amount"`
}

type winnerView struct {
	RoundId   uint64 `json:"roundId"`
	Winner    string `json:"winner"`
	Prize     uint64 `json:"prize"`
	Fee       uint64 `json:"fee"`
	BlockHash string `json:"blockHash"`
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// nolint:all
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRoundNotFound),
		errors.Is(err, domain.ErrNoActiveRound),
		strings.Contains(err.Error(), "not found"):
		code = http.StatusNotFound
	case strings.Contains(err.Error(), "already"),
		strings.Contains(err.Error(), "not in a valid state"),
		strings.Contains(err.Error(), "is full"):
		code = http.StatusConflict
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
