package arrivals

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/chrisdamba/dinesim/internal/models"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidRecord = errors.New("invalid arrival record")

// Validate checks one record against the session limits. Party size 0 is
// allowed.
func Validate(a models.Arrival, maxCustomers int) error {
	switch {
	case a.CustomerID < 0:
		return fmt.Errorf("%w: negative customer id %d", ErrInvalidRecord, a.CustomerID)
	case a.CustomerID >= maxCustomers:
		return fmt.Errorf("%w: customer id %d exceeds the limit of %d customers", ErrInvalidRecord, a.CustomerID, maxCustomers)
	case a.ArrivalTime < 0:
		return fmt.Errorf("%w: customer %d has negative arrival time %d", ErrInvalidRecord, a.CustomerID, a.ArrivalTime)
	case a.PartySize < 0:
		return fmt.Errorf("%w: customer %d has negative party size %d", ErrInvalidRecord, a.CustomerID, a.PartySize)
	}
	return nil
}

// Reader parses whitespace separated "id time partySize" triples. The feed
// ends at the sentinel id or at the first triple that does not parse.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	done    bool
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	return &Reader{scanner: scanner}
}

// Open reads arrivals from the file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening arrivals file: %w", err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

func (r *Reader) Next() (models.Arrival, error) {
	if r.done {
		return models.Arrival{}, io.EOF
	}
	var fields [3]int64
	for i := range fields {
		if !r.scanner.Scan() {
			r.done = true
			if err := r.scanner.Err(); err != nil {
				return models.Arrival{}, err
			}
			return models.Arrival{}, io.EOF
		}
		v, err := strconv.ParseInt(r.scanner.Text(), 10, 64)
		if err != nil {
			log.Debugf("arrival feed stops at malformed field %q", r.scanner.Text())
			r.done = true
			return models.Arrival{}, io.EOF
		}
		fields[i] = v
	}
	if fields[0] == models.ArrivalSentinel {
		r.done = true
		return models.Arrival{}, io.EOF
	}
	return models.Arrival{
		CustomerID:  int(fields[0]),
		ArrivalTime: fields[1],
		PartySize:   fields[2],
	}, nil
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// SliceSource feeds a fixed list of arrivals.
type SliceSource struct {
	list []models.Arrival
	next int
}

func FromSlice(list []models.Arrival) *SliceSource {
	return &SliceSource{list: list}
}

func (s *SliceSource) Next() (models.Arrival, error) {
	if s.next >= len(s.list) {
		return models.Arrival{}, io.EOF
	}
	a := s.list[s.next]
	s.next++
	return a, nil
}

// Write stores list in the arrival file format, terminated by the sentinel.
func Write(w io.Writer, list []models.Arrival) error {
	bw := bufio.NewWriter(w)
	for _, a := range list {
		if _, err := fmt.Fprintln(bw, a.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(bw, "%d 0 0\n", models.ArrivalSentinel); err != nil {
		return err
	}
	return bw.Flush()
}
