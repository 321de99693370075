package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/rpc"
	"sync"

	"browsercouch/map_reduce/mrapps"
	"browsercouch/store"
)

//
// ViewServer computes named views over a DB and answers key lookups
// against the last computed version of each.
//
type ViewServer struct {
	db       *store.DB
	builders map[string]mrapps.Builder
	cfg      mrapps.Config
	logger   *log.Logger

	mu    sync.RWMutex
	views map[string]mrapps.Table
}

func NewViewServer(db *store.DB, builders map[string]mrapps.Builder, cfg mrapps.Config, logger *log.Logger) *ViewServer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ViewServer{
		db:       db,
		builders: builders,
		cfg:      cfg,
		logger:   logger,
		views:    map[string]mrapps.Table{},
	}
}

// Rebuild recomputes a view from scratch and replaces the cached one.
func (s *ViewServer) Rebuild(request *RebuildRequest, response *RebuildResponse) error {
	build, ok := s.builders[request.View]
	if !ok {
		return fmt.Errorf("unknown view %q", request.View)
	}
	table, err := build(context.Background(), s.db, s.cfg)
	if err != nil {
		s.logger.Printf("rebuild %s: %v", request.View, err)
		return fmt.Errorf("rebuild %s: %w", request.View, err)
	}
	s.mu.Lock()
	s.views[request.View] = table
	s.mu.Unlock()

	s.logger.Printf("rebuilt %s: %d rows", request.View, table.Len())
	response.Rows = table.Len()
	return nil
}

func (s *ViewServer) Query(request *QueryRequest, response *QueryResponse) error {
	s.mu.RLock()
	table, ok := s.views[request.View]
	s.mu.RUnlock()
	if !ok {
		if _, known := s.builders[request.View]; known {
			return fmt.Errorf("view %q not built", request.View)
		}
		return fmt.Errorf("unknown view %q", request.View)
	}

	limit := request.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	pos := table.FindRow(request.Key)
	rows, err := table.MarshalRange(pos, pos+limit)
	if err != nil {
		return err
	}
	response.Pos = pos
	response.Total = table.Len()
	response.Rows = rows
	return nil
}

//
// Serve answers rpc-over-http requests on l until ctx is done.
//
func Serve(ctx context.Context, l net.Listener, s *ViewServer) error {
	srv := rpc.NewServer()
	if err := srv.RegisterName("ViewServer", s); err != nil {
		return err
	}
	hs := &http.Server{Handler: srv}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			hs.Close()
		case <-stop:
		}
	}()
	err := hs.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
