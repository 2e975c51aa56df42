package robottask

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Outcome classifies the result of fetching one source.
type Outcome int

const (
	Success Outcome = iota
	TransportError
	NetworkError
	EmptyDataError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case TransportError:
		return "transport_error"
	case NetworkError:
		return "network_error"
	case EmptyDataError:
		return "empty_data"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Sentinels matched with errors.Is.
var (
	ErrTransport = errors.New("transport error")
	ErrNetwork   = errors.New("network error")
	ErrEmptyData = errors.New("empty data")
)

// FetchError is a classified failure for one source.
type FetchError struct {
	Outcome Outcome
	Source  string
	Status  int
	Err     error
}

func (e *FetchError) Error() string {
	switch e.Outcome {
	case NetworkError:
		return fmt.Sprintf("API error: %d", e.Status)
	case EmptyDataError:
		if e.Err != nil {
			return fmt.Sprintf("Malformed %s data: %v", displayName(e.Source), e.Err)
		}
		return fmt.Sprintf("No %s data available.", displayName(e.Source))
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return ErrTransport.Error()
	}
}

func (e *FetchError) Unwrap() []error {
	var sentinel error
	switch e.Outcome {
	case TransportError:
		sentinel = ErrTransport
	case NetworkError:
		sentinel = ErrNetwork
	case EmptyDataError:
		sentinel = ErrEmptyData
	}
	errs := make([]error, 0, 2)
	if sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Classify returns the outcome carried by err: Success for nil, the
// FetchError's outcome when err is one, TransportError otherwise.
func Classify(err error) Outcome {
	if err == nil {
		return Success
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Outcome
	}
	return TransportError
}

// displayName capitalizes a source id: "solana" -> "Solana".
func displayName(id string) string {
	r, size := utf8.DecodeRuneInString(id)
	if r == utf8.RuneError {
		return id
	}
	return string(unicode.ToUpper(r)) + id[size:]
}
