package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MeKo-Tech/lapwatch/internal/report"
	"github.com/MeKo-Tech/lapwatch/internal/stopwatch"
)

// operation names a stopwatch command shared by the HTTP and WebSocket APIs.
type operation string

const (
	opCreate operation = "create"
	opStart  operation = "start"
	opStop   operation = "stop"
	opLap    operation = "lap"
	opReset  operation = "reset"
	opGet    operation = "get"
	opList   operation = "list"
)

// Error types reported in API responses.
const (
	errTypeInvalidArgument = "invalid_argument"
	errTypeDuplicateID     = "duplicate_id"
	errTypeIllegalState    = "illegal_state"
	errTypeNotFound        = "not_found"
	errTypeInvalidRequest  = "invalid_request"
	errTypeInternal        = "internal_error"
)

// classifyError maps stopwatch errors to an HTTP status and error type.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, stopwatch.ErrDuplicateID):
		return http.StatusConflict, errTypeDuplicateID
	case errors.Is(err, stopwatch.ErrInvalidArgument):
		return http.StatusBadRequest, errTypeInvalidArgument
	case errors.Is(err, stopwatch.ErrIllegalState):
		return http.StatusConflict, errTypeIllegalState
	case errors.Is(err, stopwatch.ErrNotFound):
		return http.StatusNotFound, errTypeNotFound
	default:
		return http.StatusInternalServerError, errTypeInternal
	}
}

func recordOperation(op operation, err error) {
	result := "success"
	if err != nil {
		_, result = classifyError(err)
	}
	stopwatchOperationsTotal.WithLabelValues(string(op), result).Inc()
}

// create registers a new stopwatch.
func (s *Server) create(id string) (report.Entry, error) {
	sw, err := s.registry.Create(id)
	recordOperation(opCreate, err)
	if err != nil {
		return report.Entry{}, err
	}
	registeredStopwatches.Set(float64(s.registry.Len()))
	return report.FromSnapshot(sw.Snapshot()), nil
}

func (s *Server) get(id string) (report.Entry, error) {
	sw, err := s.registry.Get(id)
	recordOperation(opGet, err)
	if err != nil {
		return report.Entry{}, err
	}
	return report.FromSnapshot(sw.Snapshot()), nil
}

func (s *Server) list() []report.Entry {
	all := s.registry.List()
	entries := make([]report.Entry, len(all))
	for i, sw := range all {
		entries[i] = report.FromSnapshot(sw.Snapshot())
	}
	recordOperation(opList, nil)
	return entries
}

// perform runs a start, stop, lap or reset and returns the resulting state.
func (s *Server) perform(op operation, id string) (report.Entry, error) {
	sw, err := s.registry.Get(id)
	if err == nil {
		err = apply(sw, op)
	}
	recordOperation(op, err)
	if err != nil {
		return report.Entry{}, err
	}

	snap := sw.Snapshot()
	if (op == opLap || op == opStop) && len(snap.Laps) > 0 {
		// Under concurrent laps this may observe another caller's lap.
		lapDuration.Observe(snap.Laps[len(snap.Laps)-1].Seconds())
	}
	return report.FromSnapshot(snap), nil
}

func apply(sw *stopwatch.Stopwatch, op operation) error {
	switch op {
	case opStart:
		return sw.Start()
	case opStop:
		return sw.Stop()
	case opLap:
		return sw.Lap()
	case opReset:
		sw.Reset()
		return nil
	default:
		return fmt.Errorf("unsupported operation: %s", op)
	}
}
