package feed

import (
	"encoding/json"
	"testing"

	"bidpacket_parser/internal/bidpacket"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		fleet string
		want  string
	}{
		{"typical", "BOS", "737", "bids.parsed.BOS.737"},
		{"lowercase input", "bos", "737", "bids.parsed.BOS.737"},
		{"unknown metadata", "UNKNOWN", "UNKNOWN", "bids.parsed.UNKNOWN.UNKNOWN"},
		{"empty metadata", "", "", "bids.parsed.UNKNOWN.UNKNOWN"},
		{"wildcard characters", "B*S", "7.7", "bids.parsed.B_S.7_7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt := &bidpacket.Packet{
				Metadata: bidpacket.Metadata{Base: tt.base, Fleet: tt.fleet},
			}
			got := Subject(pkt)
			if got != tt.want {
				t.Errorf("Subject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnvelopeShape(t *testing.T) {
	pkt := &bidpacket.Packet{
		Metadata: bidpacket.Metadata{
			Base:  "BOS",
			Fleet: "737",
			Month: "DEC",
			Year:  2025,
		},
		Sequences: []bidpacket.Sequence{},
	}

	env := Envelope{
		Source:      Source{Name: "test", Application: "bidpacket_parser"},
		PublishedAt: "2025-12-01T00:00:00Z",
		Packet:      pkt,
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	for _, key := range []string{"source", "published_at", "packet"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("envelope missing %q field", key)
		}
	}

	var roundTrip Envelope
	if err := json.Unmarshal(data, &roundTrip); err != nil {
		t.Fatalf("unmarshal round trip: %v", err)
	}
	if roundTrip.Packet == nil || roundTrip.Packet.Metadata.Base != "BOS" {
		t.Errorf("packet did not survive the round trip: %+v", roundTrip.Packet)
	}
}
