package historical

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/quantfabric/replay/pkg/common"
)

// WriteTicks serializes ticks into the fixed-record binary layout read by
// OpenTickFile. Ticks must already be in ascending timestamp order.
func WriteTicks(w io.Writer, ticks []common.Tick) error {
	buffered := bufio.NewWriter(w)

	var last int64
	for i, tick := range ticks {
		ts := tick.TimeStamp.UnixNano()
		if ts < last {
			return fmt.Errorf("tick %d out of order", i)
		}
		last = ts

		bid, _ := tick.Bid.Float64()
		ask, _ := tick.Ask.Float64()
		bidVolume, _ := tick.BidVolume.Float64()
		askVolume, _ := tick.AskVolume.Float64()

		rec := record{
			TimeStamp: ts,
			Bid:       bid,
			Ask:       ask,
			BidVolume: bidVolume,
			AskVolume: askVolume,
		}
		if err := binary.Write(buffered, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("unable to write tick %d: %w", i, err)
		}
	}
	return buffered.Flush()
}
