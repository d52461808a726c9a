// Package tagpayload implements the checkpoint tag data unit and its wire
// codec. A payload is written to a proximity tag at provisioning time and
// decoded at scan time; the checksum lets the boundary reject hand-edited
// or corrupted tags before they reach the navigation engine.
package tagpayload

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// ChecksumLength is the hex prefix length kept from the full digest.
	ChecksumLength = 16
	// MaxEncodedBytes is the byte budget an encoded payload must fit.
	MaxEncodedBytes = 8192
)

var (
	ErrDecode           = errors.New("tag payload decode failed")
	ErrChecksumMismatch = errors.New("tag payload checksum mismatch")
	ErrBudgetExceeded   = errors.New("tag payload exceeds byte budget")
)

// Payload identifies one checkpoint. Checksum is derived from the other
// fields and is not independently settable in valid instances.
type Payload struct {
	LocationID     string                 `json:"locationId"`
	Checksum       string                 `json:"checksum"`
	Timestamp      int64                  `json:"timestamp"` // ms since epoch
	AdditionalData map[string]interface{} `json:"additionalData,omitempty"`

	// Insertion order of AdditionalData keys, oldest first. Used by
	// FitBudget to decide which entries to drop. Decoded payloads fall
	// back to sorted key order.
	addedOrder []string
}

// New creates a payload for locationID stamped with the current time.
// The checksum is derived immediately, so the result is always valid.
func New(locationID string, additional map[string]interface{}) *Payload {
	p := &Payload{
		LocationID:     locationID,
		Timestamp:      time.Now().UnixMilli(),
		AdditionalData: make(map[string]interface{}, len(additional)),
	}
	for k, v := range additional {
		p.AdditionalData[k] = v
	}
	p.addedOrder = sortedKeys(p.AdditionalData)
	p.RefreshChecksum()
	return p
}

// SetAdditional adds or replaces one auxiliary entry and re-derives the
// checksum.
func (p *Payload) SetAdditional(key string, value interface{}) {
	if p.AdditionalData == nil {
		p.AdditionalData = make(map[string]interface{})
	}
	if _, exists := p.AdditionalData[key]; !exists {
		p.addedOrder = append(p.addedOrder, key)
	}
	p.AdditionalData[key] = value
	p.RefreshChecksum()
}

// RefreshChecksum re-derives the checksum from the current field values.
func (p *Payload) RefreshChecksum() {
	p.Checksum = p.computeChecksum()
}

// Valid reports whether the stored checksum matches one recomputed over
// the payload's fields. Any mutation without RefreshChecksum makes it false.
func (p *Payload) Valid() bool {
	return p.Checksum == p.computeChecksum()
}

func (p *Payload) computeChecksum() string {
	var b strings.Builder
	b.WriteString(p.LocationID)
	b.WriteString("|")
	fmt.Fprintf(&b, "%d", p.Timestamp)
	b.WriteString("|")
	b.WriteString(canonicalData(p.AdditionalData))
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:ChecksumLength]
}

// canonicalData serializes the auxiliary map deterministically: keys
// sorted, values JSON-encoded.
func canonicalData(data map[string]interface{}) string {
	if len(data) == 0 {
		return ""
	}
	keys := sortedKeys(data)
	var b strings.Builder
	for _, k := range keys {
		v, err := json.Marshal(data[k])
		if err != nil {
			v = []byte(fmt.Sprintf("%v", data[k]))
		}
		b.WriteString(k)
		b.WriteString("=")
		b.Write(v)
		b.WriteString(";")
	}
	return b.String()
}

// Encode serializes the payload as canonical UTF-8 JSON. It fails when the
// encoding does not fit the byte budget; callers can use FitBudget first.
func Encode(p *Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("tagpayload.Encode: marshal failed: %w", err)
	}
	if len(data) > MaxEncodedBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrBudgetExceeded, len(data), MaxEncodedBytes)
	}
	return data, nil
}

// Decode parses an encoded payload, failing loudly on malformed input or
// missing required fields. The result carries whatever checksum the bytes
// held; callers must still check Valid before trusting it.
func Decode(data []byte) (*Payload, error) {
	var wire struct {
		LocationID     *string                `json:"locationId"`
		Checksum       *string                `json:"checksum"`
		Timestamp      *int64                 `json:"timestamp"`
		AdditionalData map[string]interface{} `json:"additionalData"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if wire.LocationID == nil || *wire.LocationID == "" {
		return nil, fmt.Errorf("%w: missing locationId", ErrDecode)
	}
	if wire.Checksum == nil {
		return nil, fmt.Errorf("%w: missing checksum", ErrDecode)
	}
	if wire.Timestamp == nil {
		return nil, fmt.Errorf("%w: missing timestamp", ErrDecode)
	}

	p := &Payload{
		LocationID:     *wire.LocationID,
		Checksum:       *wire.Checksum,
		Timestamp:      *wire.Timestamp,
		AdditionalData: wire.AdditionalData,
	}
	if p.AdditionalData == nil {
		p.AdditionalData = make(map[string]interface{})
	}
	p.addedOrder = sortedKeys(p.AdditionalData)
	return p, nil
}

// FitBudget drops least-recently-added auxiliary entries until the encoded
// payload fits MaxEncodedBytes. It fails if the payload is still over
// budget with no auxiliary data left.
func (p *Payload) FitBudget() error {
	for {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("tagpayload.FitBudget: marshal failed: %w", err)
		}
		if len(data) <= MaxEncodedBytes {
			return nil
		}
		if len(p.addedOrder) == 0 {
			return fmt.Errorf("%w: %d bytes with no auxiliary data left", ErrBudgetExceeded, len(data))
		}
		oldest := p.addedOrder[0]
		p.addedOrder = p.addedOrder[1:]
		delete(p.AdditionalData, oldest)
		p.RefreshChecksum()
	}
}

func sortedKeys(m map[string]interface{}) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
