package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/sms"
)

const apiPrefix = "/api/v1"

// Server exposes the modem over a REST API
type Server struct {
	Logger         *slog.Logger
	Device         *Device
	Metrics        *Metrics
	AllowedOrigins []string
}

// Handler returns the API routes and /metrics behind the CORS policy
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix(apiPrefix).Subrouter()

	api.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	api.HandleFunc("/signal", s.handleSignal).Methods(http.MethodGet)
	api.HandleFunc("/sms", s.handleSendSMS).Methods(http.MethodPost)
	api.HandleFunc("/sms/next", s.handleNextSMS).Methods(http.MethodGet)
	api.HandleFunc("/location", s.handleLocation).Methods(http.MethodGet)
	api.HandleFunc("/time", s.handleTime).Methods(http.MethodGet)

	r.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to write response", "error", err)
	}
}

// modemError answers with the status matching the error code of err
func (s *Server) modemError(w http.ResponseWriter, op string, err error) {
	status := http.StatusBadGateway
	switch module.CodeOf(err) {
	case module.Timeout:
		status = http.StatusGatewayTimeout
	case module.GnssNotFixed:
		status = http.StatusServiceUnavailable
	}
	s.Logger.Error("Modem operation failed", "operation", op, "code", module.CodeOf(err).String(), "error", err)
	s.sendError(w, err.Error(), status)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.Device.Info()
	if err != nil {
		s.modemError(w, "info", err)
		return
	}
	s.sendJSON(w, info, http.StatusOK)
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	dbm, err := s.Device.Signal()
	if err != nil {
		s.modemError(w, "signal", err)
		return
	}

	type SignalResponse struct {
		DBm   int  `json:"dbm"`
		Known bool `json:"known"`
	}
	s.sendJSON(w, SignalResponse{DBm: dbm, Known: dbm != module.UnknownDBm}, http.StatusOK)
}

// handleSendSMS sends {"to", "message"}; "pdu": true selects PDU mode
func (s *Server) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	type SMSRequest struct {
		To      string `json:"to"`
		Message string `json:"message"`
		PDU     bool   `json:"pdu"`
	}

	var req SMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.To == "" || req.Message == "" {
		s.sendError(w, "both 'to' and 'message' fields are required", http.StatusBadRequest)
		return
	}

	if err := s.Device.SendSMS(req.To, req.Message, req.PDU); err != nil {
		s.modemError(w, "sms_send", err)
		return
	}

	s.Logger.Info("SMS sent successfully", "to", req.To, "message_length", len(req.Message))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleNextSMS(w http.ResponseWriter, r *http.Request) {
	msg, err := s.Device.NextMessage()
	if err != nil {
		s.modemError(w, "sms_receive", err)
		return
	}
	if msg.Index == sms.NoMessage {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.sendJSON(w, newInboundSMS(msg), http.StatusOK)
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	fix, err := s.Device.Location()
	if err != nil {
		s.modemError(w, "location", err)
		return
	}

	type LocationResponse struct {
		Latitude  float64    `json:"latitude"`
		Longitude float64    `json:"longitude"`
		Altitude  float64    `json:"altitude"`
		Time      *time.Time `json:"time,omitempty"`
	}
	resp := LocationResponse{Latitude: fix.Latitude, Longitude: fix.Longitude, Altitude: fix.Altitude}
	if !fix.Time.IsZero() {
		resp.Time = &fix.Time
	}
	s.sendJSON(w, resp, http.StatusOK)
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	t, err := s.Device.Time()
	if err != nil {
		s.modemError(w, "time", err)
		return
	}

	type TimeResponse struct {
		Time time.Time `json:"time"`
	}
	s.sendJSON(w, TimeResponse{Time: t}, http.StatusOK)
}

// InboundSMS is the JSON form of a received message
type InboundSMS struct {
	Index     int       `json:"index"`
	From      string    `json:"from"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func newInboundSMS(msg sms.Message) InboundSMS {
	return InboundSMS{
		Index:     msg.Index,
		From:      msg.Originator,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	}
}
