// Package wire implements the settlement engine's binary instruction
// encoding: a single-byte discriminator followed by length-prefixed fields,
// in the style of a fixed binary record format rather than a self-describing
// one. There is no schema negotiation — the tag table is closed and callers
// on both ends are compiled against the same version.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tag identifies which instruction a payload encodes.
type Tag uint8

const (
	TagOpen         Tag = 0
	TagStake        Tag = 1
	TagSettle       Tag = 2
	TagClaimPayout  Tag = 3
	TagCancel       Tag = 4
	TagClaimRefund  Tag = 5
)

// ErrTruncated is returned when a payload ends before a length-prefixed or
// fixed-width field can be fully read.
var ErrTruncated = errors.New("wire: truncated payload")

// ErrTrailingBytes is returned when a payload has unconsumed bytes after its
// last defined field.
var ErrTrailingBytes = errors.New("wire: trailing bytes after last field")

// ErrUnknownTag is returned when a discriminator byte does not name a known
// instruction.
var ErrUnknownTag = errors.New("wire: unknown instruction tag")

// OpenInstruction is the decoded body of a tag-0 instruction.
type OpenInstruction struct {
	ExternalID []byte
	Title      string
	LabelA     string
	LabelB     string
	EndTime    time.Time
}

// StakeInstruction is the decoded body of a tag-1 instruction.
type StakeInstruction struct {
	Amount      uint64
	Outcome     uint8
	ClientTS    time.Time
	ClientIndex uint64
}

// SettleInstruction is the decoded body of a tag-2 instruction.
type SettleInstruction struct {
	Winner uint8
}

// Request frames one instruction body together with the account references
// §6 says the engine needs alongside it "out of band": the market the
// instruction targets, the caller principal, and — only where the
// instruction requires them — an owner, a treasury, and a ticket index to
// re-derive the ticket id from. Transport-level framing (length-prefixing a
// Request on the wire a process reads from) is left to the caller; Request
// itself only deals with one instruction at a time.
type Request struct {
	ExternalID  []byte
	Caller      uuid.UUID
	Owner       uuid.UUID
	Treasury    uuid.UUID
	TicketIndex uint64
	Body        []byte
}

// ──────────────────────────────────────────────────────────────────────────────
// encoder — a small append-only byte-buffer writer
// ──────────────────────────────────────────────────────────────────────────────

type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8)   { e.buf = append(e.buf, v) }
func (e *encoder) u64(v uint64) { e.buf = binary.BigEndian.AppendUint64(e.buf, v) }
func (e *encoder) i64(v int64)  { e.u64(uint64(v)) }

func (e *encoder) bytes(v []byte) {
	if len(v) > 0xffff {
		panic("wire: field exceeds maximum encodable length")
	}
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(len(v)))
	e.buf = append(e.buf, v...)
}

func (e *encoder) str(v string)     { e.bytes([]byte(v)) }
func (e *encoder) uuid(v uuid.UUID) { e.buf = append(e.buf, v[:]...) }

// ──────────────────────────────────────────────────────────────────────────────
// decoder — a cursor over a received payload
// ──────────────────────────────────────────────────────────────────────────────

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) u8() (uint8, error) {
	if d.pos+1 > len(d.buf) {
		return 0, ErrTruncated
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) u64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}

func (d *decoder) i64() (int64, error) {
	v, err := d.u64()
	return int64(v), err
}

func (d *decoder) bytes() ([]byte, error) {
	if d.pos+2 > len(d.buf) {
		return nil, ErrTruncated
	}
	n := int(binary.BigEndian.Uint16(d.buf[d.pos : d.pos+2]))
	d.pos += 2
	if d.pos+n > len(d.buf) {
		return nil, ErrTruncated
	}
	v := d.buf[d.pos : d.pos+n]
	d.pos += n
	return v, nil
}

func (d *decoder) str() (string, error) {
	b, err := d.bytes()
	return string(b), err
}

func (d *decoder) uuid() (uuid.UUID, error) {
	if d.pos+16 > len(d.buf) {
		return uuid.UUID{}, ErrTruncated
	}
	var v uuid.UUID
	copy(v[:], d.buf[d.pos:d.pos+16])
	d.pos += 16
	return v, nil
}

func (d *decoder) finish() error {
	if d.pos != len(d.buf) {
		return ErrTrailingBytes
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Encode
// ──────────────────────────────────────────────────────────────────────────────

// EncodeOpen serializes a tag-0 instruction.
func EncodeOpen(in OpenInstruction) []byte {
	e := &encoder{buf: []byte{byte(TagOpen)}}
	e.bytes(in.ExternalID)
	e.str(in.Title)
	e.str(in.LabelA)
	e.str(in.LabelB)
	e.i64(in.EndTime.Unix())
	return e.buf
}

// EncodeStake serializes a tag-1 instruction.
func EncodeStake(in StakeInstruction) []byte {
	e := &encoder{buf: []byte{byte(TagStake)}}
	e.u64(in.Amount)
	e.u8(in.Outcome)
	e.i64(in.ClientTS.Unix())
	e.u64(in.ClientIndex)
	return e.buf
}

// EncodeSettle serializes a tag-2 instruction.
func EncodeSettle(in SettleInstruction) []byte {
	e := &encoder{buf: []byte{byte(TagSettle)}}
	e.u8(in.Winner)
	return e.buf
}

// EncodeBodyless serializes any of the tag-3/4/5 instructions, none of which
// carry a payload beyond the discriminator.
func EncodeBodyless(tag Tag) []byte {
	return []byte{byte(tag)}
}

// EncodeRequest serializes a Request, including its instruction body.
func EncodeRequest(r Request) []byte {
	e := &encoder{}
	e.bytes(r.ExternalID)
	e.uuid(r.Caller)
	e.uuid(r.Owner)
	e.uuid(r.Treasury)
	e.u64(r.TicketIndex)
	e.bytes(r.Body)
	return e.buf
}

// DecodeRequest parses a Request frame. It does not interpret Body — callers
// use PeekTag and the matching DecodeXxx on r.Body once DecodeRequest
// returns.
func DecodeRequest(payload []byte) (Request, error) {
	d := &decoder{buf: payload}
	externalID, err := d.bytes()
	if err != nil {
		return Request{}, err
	}
	caller, err := d.uuid()
	if err != nil {
		return Request{}, err
	}
	owner, err := d.uuid()
	if err != nil {
		return Request{}, err
	}
	treasury, err := d.uuid()
	if err != nil {
		return Request{}, err
	}
	ticketIndex, err := d.u64()
	if err != nil {
		return Request{}, err
	}
	body, err := d.bytes()
	if err != nil {
		return Request{}, err
	}
	if err := d.finish(); err != nil {
		return Request{}, err
	}
	return Request{
		ExternalID:  externalID,
		Caller:      caller,
		Owner:       owner,
		Treasury:    treasury,
		TicketIndex: ticketIndex,
		Body:        append([]byte(nil), body...),
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Decode
// ──────────────────────────────────────────────────────────────────────────────

// PeekTag reads the discriminator byte without consuming the rest of the
// payload.
func PeekTag(payload []byte) (Tag, error) {
	if len(payload) < 1 {
		return 0, ErrTruncated
	}
	return Tag(payload[0]), nil
}

// DecodeOpen decodes a tag-0 payload, discriminator included.
func DecodeOpen(payload []byte) (OpenInstruction, error) {
	d := &decoder{buf: payload, pos: 1}
	if len(payload) < 1 || Tag(payload[0]) != TagOpen {
		return OpenInstruction{}, fmt.Errorf("wire: DecodeOpen: %w", ErrUnknownTag)
	}
	externalID, err := d.bytes()
	if err != nil {
		return OpenInstruction{}, err
	}
	title, err := d.str()
	if err != nil {
		return OpenInstruction{}, err
	}
	labelA, err := d.str()
	if err != nil {
		return OpenInstruction{}, err
	}
	labelB, err := d.str()
	if err != nil {
		return OpenInstruction{}, err
	}
	endTime, err := d.i64()
	if err != nil {
		return OpenInstruction{}, err
	}
	if err := d.finish(); err != nil {
		return OpenInstruction{}, err
	}
	return OpenInstruction{
		ExternalID: externalID,
		Title:      title,
		LabelA:     labelA,
		LabelB:     labelB,
		EndTime:    time.Unix(endTime, 0).UTC(),
	}, nil
}

// DecodeStake decodes a tag-1 payload, discriminator included.
func DecodeStake(payload []byte) (StakeInstruction, error) {
	d := &decoder{buf: payload, pos: 1}
	if len(payload) < 1 || Tag(payload[0]) != TagStake {
		return StakeInstruction{}, fmt.Errorf("wire: DecodeStake: %w", ErrUnknownTag)
	}
	amount, err := d.u64()
	if err != nil {
		return StakeInstruction{}, err
	}
	outcome, err := d.u8()
	if err != nil {
		return StakeInstruction{}, err
	}
	clientTS, err := d.i64()
	if err != nil {
		return StakeInstruction{}, err
	}
	clientIndex, err := d.u64()
	if err != nil {
		return StakeInstruction{}, err
	}
	if err := d.finish(); err != nil {
		return StakeInstruction{}, err
	}
	return StakeInstruction{
		Amount:      amount,
		Outcome:     outcome,
		ClientTS:    time.Unix(clientTS, 0).UTC(),
		ClientIndex: clientIndex,
	}, nil
}

// DecodeSettle decodes a tag-2 payload, discriminator included.
func DecodeSettle(payload []byte) (SettleInstruction, error) {
	d := &decoder{buf: payload, pos: 1}
	if len(payload) < 1 || Tag(payload[0]) != TagSettle {
		return SettleInstruction{}, fmt.Errorf("wire: DecodeSettle: %w", ErrUnknownTag)
	}
	winner, err := d.u8()
	if err != nil {
		return SettleInstruction{}, err
	}
	if err := d.finish(); err != nil {
		return SettleInstruction{}, err
	}
	return SettleInstruction{Winner: winner}, nil
}

// DecodeBodyless validates that payload is exactly a one-byte instruction
// matching want, rejecting anything with a trailing body.
func DecodeBodyless(payload []byte, want Tag) error {
	if len(payload) < 1 {
		return ErrTruncated
	}
	if Tag(payload[0]) != want {
		return ErrUnknownTag
	}
	if len(payload) > 1 {
		return ErrTrailingBytes
	}
	return nil
}
