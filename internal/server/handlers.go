package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/output"
	"github.com/doubleninth99/mysql-sync/internal/profile"
)

var (
	errBadRequest       = errors.New("bad request")
	errPasswordRequired = fmt.Errorf("%w: password is required when host, port or user differ from the stored profile", errBadRequest)
)

// compareEndpoint names one side of a comparison, either by stored profile ID
// or with inline connection settings.
type compareEndpoint struct {
	ConnectionID string           `json:"connectionId"`
	Connection   *profile.Profile `json:"connection"`
	Database     string           `json:"database"`
}

type compareRequest struct {
	Source compareEndpoint `json:"source"`
	Target compareEndpoint `json:"target"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listConnections(w http.ResponseWriter, _ *http.Request) {
	profiles, err := s.profiles.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]profile.Profile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Redacted())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) saveConnection(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if err := decode(r, &p); err != nil {
		s.writeError(w, err)
		return
	}

	// An edit from the UI carries no password; keep the stored one as long as
	// it still goes to the same server.
	if p.ID != "" && p.Password == "" {
		if stored, err := s.profiles.Get(p.ID); err == nil {
			if !sameServer(p, stored) {
				s.writeError(w, errPasswordRequired)
				return
			}
			p.Password = stored.Password
		}
	}

	saved, err := s.profiles.Save(p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved.Redacted())
}

func (s *Server) deleteConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.Delete(mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) testConnection(w http.ResponseWriter, r *http.Request) {
	p, err := s.decodeProfile(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	if err := s.backend.TestConnection(ctx, p); err != nil {
		s.logger.Warn("connection test failed", "host", p.Host, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) listDatabases(w http.ResponseWriter, r *http.Request) {
	p, err := s.decodeProfile(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	databases, err := s.backend.ListDatabases(ctx, p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if databases == nil {
		databases = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"databases": databases})
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	var source, target *core.Schema
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		source, err = s.loadEndpoint(gctx, "source", req.Source)
		return err
	})
	g.Go(func() error {
		var err error
		target, err = s.loadEndpoint(gctx, "target", req.Target)
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeError(w, err)
		return
	}

	d, err := diff.Compare(source, target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	script := s.generator.Generate(d)
	s.logger.Info("schemas compared",
		"tables", d.Tables.Len(),
		"statements", len(script.Statements),
		"warnings", len(script.Warnings),
	)
	writeJSON(w, http.StatusOK, output.NewCompareResponse(d, script))
}

func (s *Server) loadEndpoint(ctx context.Context, side string, e compareEndpoint) (*core.Schema, error) {
	var (
		p   profile.Profile
		err error
	)
	switch {
	case e.Connection != nil:
		p, err = s.resolve(*e.Connection)
	case e.ConnectionID != "":
		p, err = s.profiles.Get(e.ConnectionID)
	default:
		err = fmt.Errorf("%w: %s needs connectionId or connection", errBadRequest, side)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", side, err)
	}

	schema, err := s.backend.LoadSchema(ctx, p, e.Database)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", side, err)
	}
	return schema, nil
}

// decodeProfile reads a profile body. A body holding only an ID refers to a
// stored profile.
func (s *Server) decodeProfile(r *http.Request) (profile.Profile, error) {
	var p profile.Profile
	if err := decode(r, &p); err != nil {
		return p, err
	}
	return s.resolve(p)
}

func (s *Server) resolve(p profile.Profile) (profile.Profile, error) {
	if p.ID == "" {
		if p.Host == "" {
			return p, fmt.Errorf("%w: host is required", errBadRequest)
		}
		return p, nil
	}
	stored, err := s.profiles.Get(p.ID)
	if err != nil {
		return p, err
	}
	if p.Host == "" {
		return stored, nil
	}
	if p.Password == "" {
		if !sameServer(p, stored) {
			return p, errPasswordRequired
		}
		p.Password = stored.Password
	}
	return p, nil
}

// sameServer reports whether p targets the host, port and user of stored. A
// stored password is only ever sent back to that server.
func sameServer(p, stored profile.Profile) bool {
	return strings.EqualFold(strings.TrimSpace(p.Host), strings.TrimSpace(stored.Host)) &&
		portOrDefault(p.Port) == portOrDefault(stored.Port) &&
		p.User == stored.User
}

func portOrDefault(port int) int {
	if port == 0 {
		return profile.DefaultPort
	}
	return port
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func statusFor(err error) int {
	var invalid *core.InvalidSchemaError
	switch {
	case errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest), errors.Is(err, profile.ErrInvalidProfile), errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
