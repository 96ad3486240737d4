// Package rest exposes the local endpoints of the ticket proof relay over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/onflow/proof-relay/model/proof"
	"github.com/onflow/proof-relay/module"
	"github.com/onflow/proof-relay/module/metrics"
	"github.com/onflow/proof-relay/module/mpsc"
)

// MaxRequestSize bounds the body of a submitted proof.
const MaxRequestSize = 1 << 20 // 1 MiB

// DefaultMaxHeldProofs bounds the proofs held back for other authorities
// until an unfiltered or matching request retrieves them.
const DefaultMaxHeldProofs = 4096

const authorityIDParam = "authority_id"

// APIHandler serves the proof submission and retrieval endpoints.
type APIHandler struct {
	log      zerolog.Logger
	metrics  module.ProofRelayMetrics
	outbound *mpsc.Sender[*proof.Message]

	// mu serializes retrievals, inbound has a single consumer
	mu      sync.Mutex
	inbound *mpsc.Receiver[*proof.Message]
	held    []*proof.Message
	maxHeld int
}

// NewAPIHandler returns a handler submitting proofs to the relay through
// outbound and handing out the proofs the relay delivered on inbound.
func NewAPIHandler(log zerolog.Logger, collector module.ProofRelayMetrics, outbound *mpsc.Sender[*proof.Message], inbound *mpsc.Receiver[*proof.Message]) *APIHandler {
	return &APIHandler{
		log:      log.With().Str("component", "sassafras_rest").Logger(),
		metrics:  collector,
		outbound: outbound,
		inbound:  inbound,
		maxHeld:  DefaultMaxHeldProofs,
	}
}

// NewRouter returns the router of the proof API.
func NewRouter(h *APIHandler, middleware ...mux.MiddlewareFunc) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(middleware...)
	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Methods(http.MethodPost).Path("/proofs").Name("submitProof").HandlerFunc(h.ProofsPost)
	v1.Methods(http.MethodGet).Path("/proofs").Name("getProofs").HandlerFunc(h.ProofsGet)
	return router
}

// ProofsPost queues a proof for gossiping.
func (h *APIHandler) ProofsPost(w http.ResponseWriter, r *http.Request) {
	errorLogger := h.log.With().Str("request_url", r.URL.String()).Logger()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	var body Proof
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestSize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "request body must be a proof object", errorLogger)
		return
	}

	m, err := toMessage(body)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error(), errorLogger)
		return
	}

	err = h.outbound.TrySend(m)
	switch {
	case errors.Is(err, mpsc.ErrClosed):
		h.errorResponse(w, http.StatusServiceUnavailable, "proof relay is shut down", errorLogger)
		return
	case errors.Is(err, mpsc.ErrFull):
		h.errorResponse(w, http.StatusServiceUnavailable, "outbound proof queue is full", errorLogger)
		return
	case err != nil:
		errorLogger.Error().Err(err).Msg("failed to queue proof")
		h.errorResponse(w, http.StatusInternalServerError, "failed to queue proof", errorLogger)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ProofsGet drains the proofs received so far. When the authority_id query
// parameter is set, only proofs addressed to that authority are returned and
// the others are held for later requests.
func (h *APIHandler) ProofsGet(w http.ResponseWriter, r *http.Request) {
	errorLogger := h.log.With().Str("request_url", r.URL.String()).Logger()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	var filter *proof.AuthorityID
	if raw := r.URL.Query().Get(authorityIDParam); raw != "" {
		id, err := proof.HexStringToAuthorityID(raw)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "invalid authority_id", errorLogger)
			return
		}
		filter = &id
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	available := h.held
	h.held = nil
	closed := false
	for {
		m, err := h.inbound.TryRecv()
		if err != nil {
			closed = errors.Is(err, mpsc.ErrClosed)
			break
		}
		available = append(available, m)
	}
	if closed && len(available) == 0 {
		h.errorResponse(w, http.StatusServiceUnavailable, "proof relay is shut down", errorLogger)
		return
	}

	proofs := make([]Proof, 0, len(available))
	for _, m := range available {
		if filter != nil && m.AuthorityID != *filter {
			h.hold(m)
			continue
		}
		proofs = append(proofs, toProof(m))
	}

	h.jsonResponse(w, proofs, errorLogger)
}

// hold keeps a proof for a later request, dropping the oldest held proof when
// the limit is reached. Callers must hold h.mu.
func (h *APIHandler) hold(m *proof.Message) {
	if h.maxHeld <= 0 {
		h.metrics.InboundProofDropped(metrics.DropReasonNotAddressed)
		return
	}
	if len(h.held) >= h.maxHeld {
		h.held = h.held[1:]
		h.metrics.InboundProofDropped(metrics.DropReasonNotAddressed)
	}
	h.held = append(h.held, m)
}

func (h *APIHandler) jsonResponse(w http.ResponseWriter, responsePayload interface{}, errorLogger zerolog.Logger) {
	encoded, err := json.Marshal(responsePayload)
	if err != nil {
		errorLogger.Error().Err(err).Msg("failed to encode response")
		h.errorResponse(w, http.StatusInternalServerError, "error generating response", errorLogger)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, err = w.Write(encoded)
	if err != nil {
		errorLogger.Error().Err(err).Msg("failed to write response")
	}
}

// errorResponse sends an HTTP error response to the client with the given return code and a model error with the given
// response message in the response body
func (h *APIHandler) errorResponse(w http.ResponseWriter, returnCode int, responseMessage string, logger zerolog.Logger) {
	w.WriteHeader(returnCode)
	modelError := ModelError{
		Code:    int32(returnCode),
		Message: responseMessage,
	}
	encodedError, err := json.Marshal(modelError)
	if err != nil {
		logger.Error().Str("response_message", responseMessage).Msg("failed to json encode error message")
		return
	}
	_, err = w.Write(encodedError)
	if err != nil {
		logger.Error().Err(err).Msg("failed to send error response")
	}
}
