package wire

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestOpenRoundTrip(t *testing.T) {
	end := time.Unix(1893456000, 0).UTC()
	in := OpenInstruction{
		ExternalID: []byte("e1"),
		Title:      "Will it rain",
		LabelA:     "Yes",
		LabelB:     "No",
		EndTime:    end,
	}
	payload := EncodeOpen(in)

	tag, err := PeekTag(payload)
	if err != nil {
		t.Fatalf("PeekTag: %v", err)
	}
	if tag != TagOpen {
		t.Fatalf("tag = %d, want %d", tag, TagOpen)
	}

	out, err := DecodeOpen(payload)
	if err != nil {
		t.Fatalf("DecodeOpen: %v", err)
	}
	if string(out.ExternalID) != "e1" || out.Title != in.Title || out.LabelA != in.LabelA || out.LabelB != in.LabelB {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if !out.EndTime.Equal(end) {
		t.Fatalf("end_time = %v, want %v", out.EndTime, end)
	}
}

func TestStakeRoundTrip(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	in := StakeInstruction{Amount: 1_000_000_000, Outcome: 1, ClientTS: ts, ClientIndex: 7}
	payload := EncodeStake(in)

	out, err := DecodeStake(payload)
	if err != nil {
		t.Fatalf("DecodeStake: %v", err)
	}
	if out.Amount != in.Amount || out.Outcome != in.Outcome || out.ClientIndex != in.ClientIndex {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if !out.ClientTS.Equal(ts) {
		t.Fatalf("client_ts = %v, want %v", out.ClientTS, ts)
	}
}

func TestSettleRoundTrip(t *testing.T) {
	payload := EncodeSettle(SettleInstruction{Winner: 1})
	out, err := DecodeSettle(payload)
	if err != nil {
		t.Fatalf("DecodeSettle: %v", err)
	}
	if out.Winner != 1 {
		t.Fatalf("winner = %d, want 1", out.Winner)
	}
}

func TestBodylessRoundTrip(t *testing.T) {
	for _, tag := range []Tag{TagClaimPayout, TagCancel, TagClaimRefund} {
		payload := EncodeBodyless(tag)
		if err := DecodeBodyless(payload, tag); err != nil {
			t.Errorf("tag %d: DecodeBodyless: %v", tag, err)
		}
	}
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	payload := EncodeStake(StakeInstruction{Amount: 1, Outcome: 0, ClientIndex: 0})
	truncated := payload[:len(payload)-3]
	if _, err := DecodeStake(truncated); err != ErrTruncated {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	payload := EncodeSettle(SettleInstruction{Winner: 0})
	padded := append(payload, 0xff)
	if _, err := DecodeSettle(padded); err != ErrTrailingBytes {
		t.Fatalf("err = %v, want ErrTrailingBytes", err)
	}
}

func TestDecodeRejectsWrongTag(t *testing.T) {
	payload := EncodeSettle(SettleInstruction{Winner: 0})
	if _, err := DecodeStake(payload); err == nil {
		t.Fatal("expected an error decoding a settle payload as stake")
	}
}

func TestDecodeBodylessRejectsTrailingBytes(t *testing.T) {
	payload := append(EncodeBodyless(TagCancel), 0x01)
	if err := DecodeBodyless(payload, TagCancel); err != ErrTrailingBytes {
		t.Fatalf("err = %v, want ErrTrailingBytes", err)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	in := Request{
		ExternalID:  []byte("e1"),
		Caller:      uuid.New(),
		Owner:       uuid.New(),
		Treasury:    uuid.New(),
		TicketIndex: 3,
		Body:        EncodeBodyless(TagClaimPayout),
	}
	frame := EncodeRequest(in)

	out, err := DecodeRequest(frame)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if string(out.ExternalID) != "e1" {
		t.Errorf("external_id = %q, want e1", out.ExternalID)
	}
	if out.Caller != in.Caller || out.Owner != in.Owner || out.Treasury != in.Treasury {
		t.Fatalf("account fields mismatch: %+v", out)
	}
	if out.TicketIndex != 3 {
		t.Errorf("ticket_index = %d, want 3", out.TicketIndex)
	}
	if err := DecodeBodyless(out.Body, TagClaimPayout); err != nil {
		t.Errorf("embedded body did not round trip: %v", err)
	}
}

func TestDecodeRequestRejectsTruncatedPayload(t *testing.T) {
	frame := EncodeRequest(Request{ExternalID: []byte("e1"), Body: EncodeBodyless(TagCancel)})
	if _, err := DecodeRequest(frame[:len(frame)-1]); err != ErrTruncated {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}
