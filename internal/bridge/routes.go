package bridge

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"handsfree/internal/nlu"
	"handsfree/internal/store"
)

func (b *Bridge) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/ws", b.serveWS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", b.getState).Methods(http.MethodGet)
	api.HandleFunc("/utterances", b.postUtterance).Methods(http.MethodPost)
	api.HandleFunc("/contacts", b.getContacts).Methods(http.MethodGet)
	api.HandleFunc("/contacts.vcf", b.exportContacts).Methods(http.MethodGet)
	api.HandleFunc("/contacts.vcf", b.importContacts).Methods(http.MethodPost)
	api.HandleFunc("/confirmations", b.getConfirmations).Methods(http.MethodGet)
	api.HandleFunc("/transcript", b.getTranscript).Methods(http.MethodGet)
	api.HandleFunc("/commands", b.getCommands).Methods(http.MethodGet)

	return r
}

func (b *Bridge) getState(w http.ResponseWriter, r *http.Request) {
	snap, err := b.core.Snapshot(r.Context())
	if err != nil {
		httpError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, snap)
}

type utteranceRequest struct {
	Text string `json:"text"`
}

// postUtterance feeds typed text to the assistant as if it had been spoken.
func (b *Bridge) postUtterance(w http.ResponseWriter, r *http.Request) {
	var req utteranceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httpError(w, http.StatusBadRequest, fmt.Errorf("text is required"))
		return
	}
	if err := b.core.Submit(r.Context(), req.Text); err != nil {
		httpError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (b *Bridge) getContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := b.store.Contacts(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, contacts)
}

func (b *Bridge) exportContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := b.store.Contacts(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="contacts.vcf"`)
	if err := store.ExportVCard(w, contacts); err != nil {
		log.Error("Failed to export contacts", "err", err)
	}
}

type importResponse struct {
	Imported int `json:"imported"`
}

func (b *Bridge) importContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := store.ImportVCard(r.Body)
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	n, err := store.Seed(r.Context(), b.store, contacts)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	log.Info("Imported contacts", "count", n)
	writeJSON(w, importResponse{Imported: n})
}

func (b *Bridge) getConfirmations(w http.ResponseWriter, r *http.Request) {
	confs, err := b.store.Confirmations(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, confs)
}

func (b *Bridge) getTranscript(w http.ResponseWriter, r *http.Request) {
	entries, err := b.store.Transcript(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, entries)
}

func (b *Bridge) getCommands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, nlu.Reference())
}

type errorResponse struct {
	Error string `json:"error"`
}

func httpError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "err", err)
	}
}
