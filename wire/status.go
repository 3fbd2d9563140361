package wire

import (
	"fmt"
)

// Status is the closed set of outcome codes returned to clients.
type Status int

const (
	StatusOk Status = iota
	StatusError
	StatusDatabaseNotFound
	StatusKeyNotExists
	StatusKeyAlreadyExists
	StatusSyntaxError
	StatusInvalidQuery
	StatusInvalidBody
	StatusInvalidAuth
	StatusNotAuthorized
	StatusReserved
	StatusAlreadyExists
	StatusNotFound
)

var statusNames = [...]string{
	StatusOk:               "Ok",
	StatusError:            "Error",
	StatusDatabaseNotFound: "DatabaseNotFound",
	StatusKeyNotExists:     "KeyNotExists",
	StatusKeyAlreadyExists: "KeyAlreadyExists",
	StatusSyntaxError:      "SyntaxError",
	StatusInvalidQuery:     "InvalidQuery",
	StatusInvalidBody:      "InvalidBody",
	StatusInvalidAuth:      "InvalidAuth",
	StatusNotAuthorized:    "NotAuthorized",
	StatusReserved:         "Reserved",
	StatusAlreadyExists:    "AlreadyExists",
	StatusNotFound:         "NotFound",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus is the inverse of String.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status: %s", name)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
