// tickdump converts CSV tick exports into the binary tick files the replay
// feed memory-maps. Expected CSV columns: timestamp, bid, ask, bid volume,
// ask volume, with a header row.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/quantfabric/replay/pkg/common"
	"github.com/quantfabric/replay/pkg/feed/historical"
	"github.com/quantfabric/replay/pkg/utility/fixed"
)

const timeLayout = "2006-01-02 15:04:05.999999999Z07:00"

func main() {
	csvPath := flag.String("csv", "", "input csv file")
	binPath := flag.String("out", "", "output binary tick file")
	symbol := flag.String("symbol", "", "instrument symbol")
	flag.Parse()

	if *csvPath == "" || *binPath == "" || *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}

	ticks, err := readTicks(*csvPath, *symbol)
	if err != nil {
		slog.Error("unable to read csv", "error", err)
		os.Exit(1)
	}

	out, err := os.Create(*binPath)
	if err != nil {
		slog.Error("unable to create output file", "error", err)
		os.Exit(1)
	}
	defer func(out *os.File) {
		_ = out.Close()
	}(out)

	if err := historical.WriteTicks(out, ticks); err != nil {
		slog.Error("unable to write ticks", "error", err)
		os.Exit(1)
	}
	slog.Info("done", "ticks", len(ticks), "out", *binPath)
}

func readTicks(path, symbol string) ([]common.Tick, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return nil, errors.New("missing header row")
	}

	var ticks []common.Tick
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 5 {
			return nil, fmt.Errorf("row %d: expected 5 columns, got %d", row, len(record))
		}

		ts, err := time.Parse(timeLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		bid, err := parsePrice(record[1], row)
		if err != nil {
			return nil, err
		}
		ask, err := parsePrice(record[2], row)
		if err != nil {
			return nil, err
		}
		bidVolume, err := parsePrice(record[3], row)
		if err != nil {
			return nil, err
		}
		askVolume, err := parsePrice(record[4], row)
		if err != nil {
			return nil, err
		}

		ticks = append(ticks, common.Tick{
			Symbol:    symbol,
			TimeStamp: ts,
			Bid:       bid,
			Ask:       ask,
			BidVolume: bidVolume,
			AskVolume: askVolume,
		})
	}
	return ticks, nil
}

func parsePrice(field string, row int) (fixed.Point, error) {
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return fixed.Zero, fmt.Errorf("row %d: %w", row, err)
	}
	return fixed.FromFloat64(value), nil
}
