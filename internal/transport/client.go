package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/23skdu/longbow-vfadd/internal/corpus"
)

// Client pulls corpus rows from a Server.
type Client struct {
	fc flight.Client
}

// Flight describes one advertised ticket.
type Flight struct {
	Ticket  string
	Records int64
}

func Dial(addr string) (*Client, error) {
	fc, err := flight.NewClientWithMiddleware(addr, nil, nil, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create Flight client: %w", err)
	}
	return &Client{fc: fc}, nil
}

func (c *Client) Close() error {
	return c.fc.Close()
}

// Fetch streams one ticket and decodes every record it carries.
func (c *Client) Fetch(ctx context.Context, ticket string) ([]corpus.Row, error) {
	stream, err := c.fc.DoGet(ctx, &flight.Ticket{Ticket: []byte(ticket)})
	if err != nil {
		return nil, fmt.Errorf("DoGet %s: %w", ticket, err)
	}
	rdr, err := flight.NewRecordReader(stream)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ticket, err)
	}
	defer rdr.Release()

	var rows []corpus.Row
	for rdr.Next() {
		batch, err := corpus.Rows(rdr.Record())
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", ticket, err)
	}
	return rows, nil
}

// List returns the tickets the server advertises.
func (c *Client) List(ctx context.Context) ([]Flight, error) {
	stream, err := c.fc.ListFlights(ctx, &flight.Criteria{})
	if err != nil {
		return nil, fmt.Errorf("ListFlights: %w", err)
	}
	var out []Flight
	for {
		info, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ListFlights: %w", err)
		}
		out = append(out, Flight{Ticket: string(info.GetEndpoint()[0].GetTicket().GetTicket()), Records: info.GetTotalRecords()})
	}
}
