package fragment

import (
	"io"
	"log"
)

// SendResult summarizes one frame's worth of datagrams.
type SendResult struct {
	Chunks int
	Failed int
	Bytes  int
}

// Send writes one datagram per chunk of payload to w, which is expected to
// be a connected packet socket. A failed write is logged and counted; the
// remaining chunks are still sent.
func Send(w io.Writer, frameID uint32, payload []byte, chunkSize int) (SendResult, error) {
	chunks, err := Split(frameID, payload, chunkSize)
	if err != nil {
		return SendResult{}, err
	}

	var res SendResult
	for _, c := range chunks {
		res.Chunks++
		n, err := w.Write(c.marshal())
		if err != nil {
			res.Failed++
			log.Printf("[fragment] send frame %d chunk %d/%d: %v", frameID, c.Index, c.Total, err)
			continue
		}
		res.Bytes += n
	}
	return res, nil
}
