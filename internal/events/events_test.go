package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/evetabi/settlement/internal/identity"
)

var errAppendFailed = errors.New("append failed")

func TestSinkEmitAppendsEncodedEnvelope(t *testing.T) {
	var appended [][]byte
	sink := &Sink{
		Append: func(marketID identity.ID, seq uint64, payload []byte) error {
			appended = append(appended, payload)
			return nil
		},
	}

	marketID := identity.MarketID([]byte("e1"))
	now := time.Unix(1_700_000_000, 0).UTC()

	if err := sink.Emit(marketID, 0, KindOpened, now, OpenedPayload{LabelA: "Yes", LabelB: "No"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(appended) != 1 {
		t.Fatalf("got %d appended events, want 1", len(appended))
	}

	var env Envelope
	if err := json.Unmarshal(appended[0], &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Kind != KindOpened || env.Sequence != 0 {
		t.Errorf("envelope = %+v, want Kind=Opened Sequence=0", env)
	}
}

func TestSinkEmitPropagatesAppendError(t *testing.T) {
	wantErr := errAppendFailed
	sink := &Sink{
		Append: func(identity.ID, uint64, []byte) error { return wantErr },
	}
	err := sink.Emit(identity.MarketID([]byte("e1")), 0, KindCancelled, time.Now().UTC(), CancelledPayload{})
	if err == nil {
		t.Fatal("expected error from failing Append, got nil")
	}
}
