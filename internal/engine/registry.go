package engine

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Precedence decides which recognizer wins when several match the same buffer.
type Precedence string

const (
	// PrecedenceFirst keeps the first match in registry order. Registries are built
	// in priority order, most specific formats first.
	PrecedenceFirst Precedence = "first"

	// PrecedenceLast keeps the last match in registry order.
	PrecedenceLast Precedence = "last"
)

// ParsePrecedence parses a precedence name. An empty name selects PrecedenceFirst.
func ParsePrecedence(s string) (Precedence, error) {
	switch Precedence(s) {
	case "", PrecedenceFirst:
		return PrecedenceFirst, nil
	case PrecedenceLast:
		return PrecedenceLast, nil
	default:
		return "", fmt.Errorf("unsupported precedence %q (available: [%s %s])", s, PrecedenceFirst, PrecedenceLast)
	}
}

// UnsupportedTypeError is returned when a format code is not registered.
type UnsupportedTypeError struct {
	Code      string
	Available []string
}

func (e *UnsupportedTypeError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unsupported format %q: no formats registered", e.Code)
	}
	return fmt.Sprintf("unsupported format %q (available: %v)", e.Code, e.Available)
}

// Registry is an ordered list of recognizers.
type Registry struct {
	mu          sync.RWMutex
	recognizers []Recognizer
	logger      *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger: logger,
	}
}

// Register appends a recognizer. Codes must be unique.
func (r *Registry) Register(recognizer Recognizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := recognizer.Code()
	if slices.ContainsFunc(r.recognizers, func(existing Recognizer) bool { return existing.Code() == code }) {
		return fmt.Errorf("format %s already registered", code)
	}

	r.recognizers = append(r.recognizers, recognizer)
	return nil
}

// Lookup returns the recognizer registered under code.
func (r *Registry) Lookup(code string) (Recognizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recognizer, ok := lo.Find(r.recognizers, func(rec Recognizer) bool { return rec.Code() == code })
	if !ok {
		return nil, &UnsupportedTypeError{Code: code, Available: r.codes()}
	}
	return recognizer, nil
}

// Recognizers returns the registered recognizers in registry order.
func (r *Registry) Recognizers() []Recognizer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.recognizers)
}

// Codes returns the registered format codes in registry order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.codes()
}

func (r *Registry) codes() []string {
	return lo.Map(r.recognizers, func(rec Recognizer, _ int) string { return rec.Code() })
}

// Identify tries every recognizer in registry order and opens the winning match.
// A recognizer whose Identify succeeds but whose Open fails is treated as a miss.
func (r *Registry) Identify(data []byte, precedence Precedence) (FileType, error) {
	r.mu.RLock()
	recognizers := slices.Clone(r.recognizers)
	r.mu.RUnlock()

	var found FileType
	for _, recognizer := range recognizers {
		if !recognizer.Identify(data) {
			continue
		}

		ft, err := recognizer.Open(data)
		if err != nil {
			r.logger.Debug("recognizer matched but failed to open",
				zap.String("code", recognizer.Code()),
				zap.Error(err),
			)
			continue
		}

		found = ft
		if precedence != PrecedenceLast {
			break
		}
	}

	if found == nil {
		return nil, ErrUnknownFormat
	}

	return found, nil
}
