// Package transport serves a vector corpus over Arrow Flight so an external
// simulation harness can pull stimulus and expectations as Arrow records.
package transport

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/23skdu/longbow-vfadd/internal/corpus"
	"github.com/23skdu/longbow-vfadd/internal/logger"
	"github.com/23skdu/longbow-vfadd/internal/metrics"
	"github.com/23skdu/longbow-vfadd/internal/vector"
)

// TicketAll selects the whole corpus. Any other ticket is a mode name.
const TicketAll = "all"

// Server is a read-only Flight service over a fixed set of vectors.
type Server struct {
	flight.BaseFlightServer

	mem     memory.Allocator
	vectors []*vector.Vector
	srv     flight.Server
}

func NewServer(vectors []*vector.Vector) *Server {
	return &Server{mem: memory.NewGoAllocator(), vectors: vectors}
}

// Start listens on addr ("localhost:0" picks a free port) and serves in the
// background until Shutdown.
func (s *Server) Start(addr string) error {
	s.srv = flight.NewServerWithMiddleware(nil)
	if err := s.srv.Init(addr); err != nil {
		return fmt.Errorf("flight listen %s: %w", addr, err)
	}
	s.srv.RegisterFlightService(s)

	go func() {
		if err := s.srv.Serve(); err != nil {
			logger.Log.Error("Flight server stopped", err)
		}
	}()
	logger.Log.Info("Flight server listening", "addr", s.srv.Addr().String(), "vectors", len(s.vectors))
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.srv == nil {
		return nil
	}
	return s.srv.Addr()
}

func (s *Server) Shutdown() {
	if s.srv != nil {
		s.srv.Shutdown()
	}
}

func (s *Server) selection(ticket string) ([]*vector.Vector, error) {
	if strings.EqualFold(ticket, TicketAll) {
		return s.vectors, nil
	}
	m, err := vector.ParseMode(ticket)
	if err != nil {
		return nil, status.Errorf(codes.NotFound, "unknown ticket %q", ticket)
	}
	return corpus.Select(s.vectors, m), nil
}

func (s *Server) DoGet(tkt *flight.Ticket, fs flight.FlightService_DoGetServer) error {
	name := string(tkt.GetTicket())
	vs, err := s.selection(name)
	if err != nil {
		return err
	}

	w := flight.NewRecordWriter(fs, ipc.WithSchema(corpus.Schema), ipc.WithAllocator(s.mem))
	defer w.Close()

	if len(vs) > 0 {
		rec := corpus.Record(s.mem, vs)
		defer rec.Release()
		if err := w.Write(rec); err != nil {
			return status.Errorf(codes.Internal, "write %s: %v", name, err)
		}
		metrics.RecordFlightRecord(name)
	}
	logger.Log.Debug("Served ticket", "ticket", name, "vectors", len(vs))
	return nil
}

func (s *Server) info(name string, n int) *flight.FlightInfo {
	return &flight.FlightInfo{
		Schema: flight.SerializeSchema(corpus.Schema, s.mem),
		FlightDescriptor: &flight.FlightDescriptor{
			Type: flight.DescriptorPATH,
			Path: []string{name},
		},
		Endpoint: []*flight.FlightEndpoint{{
			Ticket: &flight.Ticket{Ticket: []byte(name)},
		}},
		TotalRecords: int64(n),
		TotalBytes:   -1,
	}
}

// ListFlights advertises one flight per mode present, then "all".
func (s *Server) ListFlights(_ *flight.Criteria, fs flight.FlightService_ListFlightsServer) error {
	for _, m := range vector.Modes {
		n := len(corpus.Select(s.vectors, m))
		if n == 0 {
			continue
		}
		if err := fs.Send(s.info(m.String(), n)); err != nil {
			return err
		}
	}
	return fs.Send(s.info(TicketAll, len(s.vectors)))
}

func (s *Server) GetFlightInfo(_ context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	if desc.GetType() != flight.DescriptorPATH || len(desc.GetPath()) != 1 {
		return nil, status.Error(codes.InvalidArgument, "descriptor must be a single path element")
	}
	name := desc.GetPath()[0]
	vs, err := s.selection(name)
	if err != nil {
		return nil, err
	}
	return s.info(name, len(vs)), nil
}
