package wire

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Header carries the outcome of a request.
type Header struct {
	IsError  bool     `json:"is_error"`
	Messages []string `json:"messages"`
	Status   Status   `json:"status"`
}

// Response is what the server sends back for every request line.
type Response struct {
	Body   any    `json:"body"`
	Header Header `json:"header"`
}

// Error is a failed request before it is rendered as a Response.
type Error struct {
	Message      string  `json:"message"`
	QueryMessage *string `json:"query_message,omitempty"`
	Status       Status  `json:"status"`
}

func (e *Error) Error() string {
	return e.Status.String() + ": " + e.Message
}

// NewError builds an Error without a query message.
func NewError(status Status, message string) *Error {
	return &Error{Message: message, Status: status}
}

// OK returns a successful response carrying body, which may be nil.
func OK(body any) Response {
	return Response{
		Body: body,
		Header: Header{
			Status: StatusOk,
		},
	}
}

// Response renders the error for the wire. The query message, when set,
// follows the message.
func (e *Error) Response() Response {
	messages := []string{e.Message}
	if e.QueryMessage != nil {
		messages = append(messages, *e.QueryMessage)
	}
	return Response{
		Header: Header{
			IsError:  true,
			Messages: messages,
			Status:   e.Status,
		},
	}
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeResponse parses a single JSON response line. Numbers in the
// payload decode as json.Number.
func DecodeResponse(data []byte) (Response, error) {
	var resp Response
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	err := dec.Decode(&resp)
	return resp, err
}
