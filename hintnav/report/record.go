// Package report holds the records a hint session hands to its host: the
// serialized element that became active and the activation event built
// around it. It has no dependency on the engine so sinks and HTTP/MCP
// callers can decode records without pulling in the frame machinery.
package report

import (
	"encoding/json"
	"strconv"
)

// Record describes the element behind the active hint. The JSON shape is
// the one the host bridge has always decoded.
type Record struct {
	NodeName string `json:"nodeName"`
	Text     string `json:"text,omitempty"`
	ID       string `json:"id"`
	URL      string `json:"url,omitempty"`
}

// Label returns the hint label carried in ID, or 0 when it is not a number.
func (r Record) Label() int {
	n, err := strconv.Atoi(r.ID)
	if err != nil {
		return 0
	}
	return n
}

// Activation is one "object activated" notification as delivered to sinks.
type Activation struct {
	ID        string `json:"id"`
	PageURL   string `json:"page_url"`
	Window    string `json:"window"`
	Record    Record `json:"record"`
	Timestamp int64  `json:"timestamp"` // epoch ms
}

// Marshal encodes a record to its wire form.
func Marshal(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal decodes a record sent by a frame. Missing text or url decode to "".
func Unmarshal(data []byte) (Record, error) {
	var r Record
	err := json.Unmarshal(data, &r)
	return r, err
}
