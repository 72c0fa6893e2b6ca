package main

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/evetabi/settlement/internal/domain"
	"github.com/evetabi/settlement/internal/engine"
	"github.com/evetabi/settlement/internal/identity"
	"github.com/evetabi/settlement/internal/wire"
	"go.uber.org/zap"
)

// maxFrameLen bounds a single request frame so a corrupt or hostile length
// prefix can't make readFrame allocate without limit.
const maxFrameLen = 1 << 20

// dispatchLoop reads length-prefixed wire.Request frames from r until r is
// exhausted or a frame cannot be read, decodes each instruction body by its discriminator
// and runs it against eng. It never returns an error for a rejected
// instruction — those are logged and the loop continues, matching §4.7's
// "an instruction either commits or is rejected" semantics: a bad
// instruction never stops the stream.
func dispatchLoop(r io.Reader, eng *engine.Engine, log *zap.Logger) error {
	for {
		frame, err := readFrame(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("dispatch: read frame: %w", err)
		}

		req, err := wire.DecodeRequest(frame)
		if err != nil {
			log.Warn("malformed request frame", zap.Error(err))
			continue
		}

		if err := dispatchOne(eng, req); err != nil {
			log.Warn("instruction rejected",
				zap.Binary("external_id", req.ExternalID),
				zap.Error(err),
			)
		}
	}
}

// readFrame reads one 4-byte big-endian length prefix followed by that many
// bytes.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameLen {
		return nil, fmt.Errorf("frame length %d exceeds maximum %d", n, maxFrameLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// dispatchOne decodes req.Body by its discriminator and runs the matching
// instruction against eng.
func dispatchOne(eng *engine.Engine, req wire.Request) error {
	tag, err := wire.PeekTag(req.Body)
	if err != nil {
		return err
	}

	switch tag {
	case wire.TagOpen:
		in, err := wire.DecodeOpen(req.Body)
		if err != nil {
			return err
		}
		_, err = eng.Open(in.ExternalID, req.Caller, in.Title, in.LabelA, in.LabelB, in.EndTime)
		return err

	case wire.TagStake:
		in, err := wire.DecodeStake(req.Body)
		if err != nil {
			return err
		}
		_, err = eng.Stake(req.ExternalID, req.Caller, in.Amount, domain.Outcome(in.Outcome), in.ClientIndex)
		return err

	case wire.TagSettle:
		in, err := wire.DecodeSettle(req.Body)
		if err != nil {
			return err
		}
		_, err = eng.Settle(req.ExternalID, req.Caller, domain.Outcome(in.Winner))
		return err

	case wire.TagCancel:
		if err := wire.DecodeBodyless(req.Body, wire.TagCancel); err != nil {
			return err
		}
		_, err := eng.Cancel(req.ExternalID, req.Caller)
		return err

	case wire.TagClaimPayout:
		if err := wire.DecodeBodyless(req.Body, wire.TagClaimPayout); err != nil {
			return err
		}
		marketID := identity.MarketID(req.ExternalID)
		ticketID := identity.TicketID(marketID, req.Owner, req.TicketIndex)
		_, err := eng.ClaimPayout(req.ExternalID, ticketID, req.Caller, req.Treasury)
		return err

	case wire.TagClaimRefund:
		if err := wire.DecodeBodyless(req.Body, wire.TagClaimRefund); err != nil {
			return err
		}
		marketID := identity.MarketID(req.ExternalID)
		ticketID := identity.TicketID(marketID, req.Owner, req.TicketIndex)
		_, _, err := eng.ClaimRefund(req.ExternalID, ticketID, req.Caller)
		return err

	default:
		return wire.ErrUnknownTag
	}
}
