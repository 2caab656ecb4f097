// Package api provides REST API endpoints for parsed bid packets.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"bidpacket_parser/internal/assemble"
	"bidpacket_parser/internal/bidpacket"
	"bidpacket_parser/internal/feed"
	"bidpacket_parser/internal/storage"
	"bidpacket_parser/internal/summary"
)

// maxDocumentBytes caps uploaded bid packet documents.
const maxDocumentBytes = 32 << 20

// PacketServer provides REST API access to parsed bid packets.
type PacketServer struct {
	store       *storage.SQLiteDB
	db          *storage.DB     // Optional PostgreSQL/ClickHouse sync on ingest.
	pub         *feed.Publisher // Optional NATS publishing on ingest.
	port        int
	authEnabled bool
	apiKeys     map[string]bool // Simple API key auth (when enabled).
}

// Config holds configuration for the packet API server.
type Config struct {
	Port        int
	AuthEnabled bool
	APIKeys     []string // List of valid API keys.
}

// NewPacketServer creates a new packet API server backed by a SQLite store.
func NewPacketServer(store *storage.SQLiteDB, cfg Config) *PacketServer {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return &PacketServer{
		store:       store,
		port:        cfg.Port,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
	}
}

// AttachSync enables summary sync to PostgreSQL and ClickHouse on ingest.
func (s *PacketServer) AttachSync(db *storage.DB) {
	s.db = db
}

// AttachPublisher enables NATS publishing of parsed packets on ingest.
func (s *PacketServer) AttachPublisher(pub *feed.Publisher) {
	s.pub = pub
}

// Handler returns the complete HTTP handler with logging, CORS and routes.
func (s *PacketServer) Handler() http.Handler {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Route("/api/v1", func(r chi.Router) {
		s.addRoutes(r)
	})

	return r
}

// Run starts the HTTP server.
func (s *PacketServer) Run() error {
	addr := ":" + strconv.Itoa(s.port)
	log.Info().Str("addr", addr).Bool("auth", s.authEnabled).Msg("packet API starting")

	return http.ListenAndServe(addr, s.Handler())
}

// Router returns the API routes without logging or CORS middleware,
// for embedding in other servers and for tests.
func (s *PacketServer) Router() chi.Router {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		s.addRoutes(r)
	})
	return r
}

func (s *PacketServer) addRoutes(r chi.Router) {
	// Health check (no auth required).
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		// Optional authentication.
		if s.authEnabled {
			r.Use(s.authMiddleware)
		}

		r.Post("/packets", s.handleIngest)
		r.Get("/packets", s.handleListPackets)
		r.Get("/packets/{id}", s.handleGetPacket)
		r.Get("/packets/{id}/sequences", s.handlePacketSequences)
		r.Get("/sequences/search", s.handleSearchSequences)
		r.Get("/summaries", s.handleListSummaries)
		r.Get("/stats", s.handleStats)
	})
}

// authMiddleware validates API key authentication.
func (s *PacketServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		// Fall back to query parameter (for simple testing).
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IngestRequest is the JSON request body for packet ingestion.
type IngestRequest struct {
	Text       string `json:"text"`
	SourceName string `json:"source_name,omitempty"`
}

// IngestResponse carries the stored packet's ID and the assembled document.
type IngestResponse struct {
	ID            int64             `json:"id"`
	Base          string            `json:"base"`
	Fleet         string            `json:"fleet"`
	Month         string            `json:"month"`
	Year          int               `json:"year"`
	SequenceCount int               `json:"sequence_count"`
	Packet        *bidpacket.Packet `json:"packet"`
}

// PacketSummary is the list representation of a stored packet.
type PacketSummary struct {
	ID             int64  `json:"id"`
	Base           string `json:"base"`
	Fleet          string `json:"fleet"`
	Month          string `json:"month"`
	Year           int    `json:"year"`
	BidPeriodStart string `json:"bid_period_start,omitempty"`
	BidPeriodEnd   string `json:"bid_period_end,omitempty"`
	SourceDocument string `json:"source_document,omitempty"`
	SequenceCount  int    `json:"sequence_count"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// SequenceResponse is the row representation of a stored sequence.
type SequenceResponse struct {
	PacketID       int64           `json:"packet_id"`
	SequenceNumber string          `json:"sequence_number"`
	Position       string          `json:"position,omitempty"`
	LengthDays     int             `json:"length_days"`
	Credit         string          `json:"credit,omitempty"`
	TotalDuty      string          `json:"total_duty,omitempty"`
	TotalBlock     string          `json:"total_block,omitempty"`
	Instances      int             `json:"instances_in_month,omitempty"`
	Sequence       json.RawMessage `json:"sequence,omitempty"`
}

// StatsResponse is the JSON response for the stats endpoint.
type StatsResponse struct {
	TotalPackets   int            `json:"total_packets"`
	TotalSequences int            `json:"total_sequences"`
	ByBase         map[string]int `json:"by_base"`
	ByFleet        map[string]int `json:"by_fleet"`
	ByMonth        map[string]int `json:"by_month"`
	ByPosition     map[string]int `json:"by_position"`
	MissingTotals  map[string]int `json:"missing_totals"`
	Bases          []string       `json:"bases"`
	Fleets         []string       `json:"fleets"`
}

func packetToSummary(p *storage.StoredPacket) PacketSummary {
	return PacketSummary{
		ID:             p.ID,
		Base:           p.Base,
		Fleet:          p.Fleet,
		Month:          p.Month,
		Year:           p.Year,
		BidPeriodStart: p.BidPeriodStart,
		BidPeriodEnd:   p.BidPeriodEnd,
		SourceDocument: p.SourceDocument,
		SequenceCount:  p.SequenceCount,
		CreatedAt:      p.CreatedAt,
	}
}

func sequenceToResponse(seq *storage.StoredSequence) SequenceResponse {
	return SequenceResponse{
		PacketID:       seq.PacketID,
		SequenceNumber: seq.SequenceNumber,
		Position:       seq.Position,
		LengthDays:     seq.LengthDays,
		Credit:         seq.Credit,
		TotalDuty:      seq.TotalDuty,
		TotalBlock:     seq.TotalBlock,
		Instances:      seq.Instances,
		Sequence:       json.RawMessage(seq.SequenceJSON),
	}
}

func (s *PacketServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *PacketServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	pkt, err := s.parseIngest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.InsertPacket(pkt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.db != nil {
		if err := summary.Sync(r.Context(), s.db, pkt); err != nil {
			log.Warn().Err(err).Int64("packet_id", id).Msg("summary sync failed")
		}
	}
	if s.pub != nil {
		if err := s.pub.PublishPacket(pkt); err != nil {
			log.Warn().Err(err).Int64("packet_id", id).Msg("publish failed")
		}
	}

	writeJSON(w, http.StatusCreated, IngestResponse{
		ID:            id,
		Base:          pkt.Metadata.Base,
		Fleet:         pkt.Metadata.Fleet,
		Month:         pkt.Metadata.Month,
		Year:          pkt.Metadata.Year,
		SequenceCount: len(pkt.Sequences),
		Packet:        pkt,
	})
}

// parseIngest handles JSON bodies with pre-extracted text, multipart file
// uploads, plain text uploads, and raw document uploads that need text
// extraction.
func (s *PacketServer) parseIngest(r *http.Request) (*bidpacket.Packet, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/json") {
		var req IngestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if strings.TrimSpace(req.Text) == "" {
			return nil, fmt.Errorf("text is required")
		}
		return assemble.FromText(req.Text, req.SourceName), nil
	}

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("file field is required")
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("empty document")
		}

		if strings.HasPrefix(header.Header.Get("Content-Type"), "text/plain") {
			return assemble.FromText(string(data), header.Filename), nil
		}
		pkt, err := assemble.Parse(r.Context(), data, header.Filename)
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
		return pkt, nil
	}

	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	name := r.URL.Query().Get("name")

	// Plain text is already extracted. Anything else goes through
	// document extraction.
	if strings.HasPrefix(contentType, "text/plain") {
		return assemble.FromText(string(data), name), nil
	}

	pkt, err := assemble.Parse(r.Context(), data, name)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return pkt, nil
}

func (s *PacketServer) handleListPackets(w http.ResponseWriter, r *http.Request) {
	params := storage.PacketQueryParams{
		Base:      strings.ToUpper(r.URL.Query().Get("base")),
		Fleet:     strings.ToUpper(r.URL.Query().Get("fleet")),
		Month:     strings.ToUpper(r.URL.Query().Get("month")),
		Year:      queryInt(r, "year"),
		Limit:     queryInt(r, "limit"),
		Offset:    queryInt(r, "offset"),
		OrderBy:   r.URL.Query().Get("order_by"),
		OrderDesc: r.URL.Query().Get("order") == "desc",
	}

	packets, err := s.store.QueryPackets(params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]PacketSummary, 0, len(packets))
	for i := range packets {
		results = append(results, packetToSummary(&packets[i]))
	}

	writeJSON(w, http.StatusOK, results)
}

func (s *PacketServer) handleGetPacket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid packet ID")
		return
	}

	pkt, err := s.store.GetPacket(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pkt == nil {
		writeError(w, http.StatusNotFound, "packet not found")
		return
	}

	// The stored document is already the assembled packet JSON.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(pkt.PacketJSON))
}

func (s *PacketServer) handlePacketSequences(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid packet ID")
		return
	}

	pkt, err := s.store.GetPacket(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pkt == nil {
		writeError(w, http.StatusNotFound, "packet not found")
		return
	}

	sequences, err := s.store.SequencesForPacket(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]SequenceResponse, 0, len(sequences))
	for i := range sequences {
		results = append(results, sequenceToResponse(&sequences[i]))
	}

	writeJSON(w, http.StatusOK, results)
}

func (s *PacketServer) handleSearchSequences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	hits, err := s.store.SearchSequences(q, queryInt(r, "limit"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]SequenceResponse, 0, len(hits))
	for i := range hits {
		results = append(results, sequenceToResponse(&hits[i]))
	}

	writeJSON(w, http.StatusOK, results)
}

// handleListSummaries serves the per-sequence summary state for one bid
// period from PostgreSQL when sync is configured.
func (s *PacketServer) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "summary store not configured")
		return
	}

	base := strings.ToUpper(r.URL.Query().Get("base"))
	fleet := strings.ToUpper(r.URL.Query().Get("fleet"))
	month := strings.ToUpper(r.URL.Query().Get("month"))
	year := queryInt(r, "year")
	if base == "" || fleet == "" || month == "" || year == 0 {
		writeError(w, http.StatusBadRequest, "base, fleet, month and year are required")
		return
	}

	summaries, err := s.db.PG.ListSequenceSummaries(r.Context(), base, fleet, year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

func (s *PacketServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	bases, err := s.store.Distinct("base")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	fleets, err := s.store.Distinct("fleet")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalPackets:   stats.TotalPackets,
		TotalSequences: stats.TotalSequences,
		ByBase:         stats.ByBase,
		ByFleet:        stats.ByFleet,
		ByMonth:        stats.ByMonth,
		ByPosition:     stats.ByPosition,
		MissingTotals:  stats.MissingTotals,
		Bases:          bases,
		Fleets:         fleets,
	})
}

// Helper functions.

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
