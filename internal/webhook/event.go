// AngelaMos | 2026
// event.go

package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const eventChargeSuccess = "charge.success"

type envelope struct {
	Event string     `json:"event"`
	Data  chargeData `json:"data"`
}

type chargeData struct {
	ID            json.RawMessage `json:"id"`
	Reference     string          `json:"reference"`
	Metadata      json.RawMessage `json:"metadata"`
	Authorization struct {
		AuthorizationCode string `json:"authorization_code"`
	} `json:"authorization"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
}

type metadata struct {
	Type          string `json:"type"`
	TenantID      string `json:"tenant_id"`
	PlanCode      string `json:"plan_code"`
	CustomerEmail string `json:"customer_email"`
}

// decodeEnvelope parses a delivery. Only a malformed top level is an error;
// loosely typed inner fields are tolerated.
func decodeEnvelope(raw []byte) (*envelope, error) {
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	out := &envelope{Event: env.Event}
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		// a data block of an unexpected shape leaves the fields empty
		_ = json.Unmarshal(env.Data, &out.Data)
	}
	return out, nil
}

// key is the idempotency key: the gateway event id, else the reference,
// else the event name joined with the reference.
func (e *envelope) key() string {
	if id := scalar(e.Data.ID); id != "" {
		return id
	}
	if e.Data.Reference != "" {
		return e.Data.Reference
	}
	return fmt.Sprintf("%s:%s", e.Event, e.Data.Reference)
}

// metadata accepts both an object and an object encoded as a JSON string.
func (e *envelope) metadata() metadata {
	var md metadata
	raw := e.Data.Metadata
	if len(raw) == 0 {
		return md
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = []byte(encoded)
	}
	_ = json.Unmarshal(raw, &md)
	return md
}

func scalar(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}
