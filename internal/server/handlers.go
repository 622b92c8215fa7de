package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/analysis"
	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/config"
	"github.com/dgnsrekt/gexbot-analytics/internal/move"
)

type Server struct {
	analyzer *analysis.Analyzer
	config   *config.ServerConfig
	logger   *zap.Logger
	started  time.Time
}

func NewServer(analyzer *analysis.Analyzer, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		analyzer: analyzer,
		config:   cfg,
		logger:   logger,
		started:  time.Now(),
	}
}

type healthResponse struct {
	Status         string  `json:"status"`
	SignConvention string  `json:"sign_convention"`
	Multiplier     float64 `json:"contract_multiplier"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
	UptimeSec      int64   `json:"uptime_sec"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	e := s.analyzer.Engine()
	s.respond(w, healthResponse{
		Status:         "ok",
		SignConvention: e.Convention().Name(),
		Multiplier:     e.Multiplier(),
		RiskFreeRate:   e.RiskFreeRate(),
		UptimeSec:      int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	report, err := s.analyzer.Run(r.Context(), req)
	if err != nil {
		s.writeAnalysisError(w, req, err)
		return
	}

	s.logger.Debug("analyze request",
		zap.String("id", report.ID),
		zap.String("symbol", req.Symbol),
		zap.Int("contracts", len(req.Contracts)),
	)
	s.respond(w, report)
}

// respond writes a 200 JSON body, logging values that fail to encode.
func (s *Server) respond(w http.ResponseWriter, v any) {
	if err := writeJSON(w, http.StatusOK, v); err != nil {
		s.logger.Error("failed to write response", zap.String("type", fmt.Sprintf("%T", v)), zap.Error(err))
	}
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, req analysis.Request, err error) {
	var (
		noContracts *chain.NoContractsError
		rejected    *analysis.RejectedError
	)
	switch {
	case errors.Is(err, analysis.ErrInvalidSpot), errors.As(err, &noContracts):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &rejected):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), rejected.Issues)
	default:
		s.logger.Error("analysis failed", zap.String("symbol", req.Symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed", nil)
	}
}

type gammaRequest struct {
	Spot     float64              `json:"spot"`
	Contract chain.OptionContract `json:"contract"`
}

func (s *Server) Gamma(w http.ResponseWriter, r *http.Request) {
	var req gammaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	b, err := s.analyzer.Engine().Breakdown(req.Contract, req.Spot)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	s.respond(w, b)
}

func (s *Server) ExpectedMove(w http.ResponseWriter, r *http.Request) {
	var spot, iv, dte float64
	query := r.URL.Query()
	for _, p := range []struct {
		name string
		dest *float64
	}{{"spot", &spot}, {"iv", &iv}, {"dte", &dte}} {
		if err := runtime.BindQueryParameter("form", true, true, p.name, query, p.dest); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		if !(*p.dest > 0) || math.IsInf(*p.dest, 1) {
			writeError(w, http.StatusBadRequest, p.name+" must be positive and finite", nil)
			return
		}
	}

	s.respond(w, move.Calculate(spot, iv, dte))
}
