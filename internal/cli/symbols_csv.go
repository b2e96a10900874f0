package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/domain/entity"
)

// ReadSymbolsCSV はcode,name,market形式のCSVを読み込みます。
// 先頭行が "code" で始まる場合はヘッダーとして読み飛ばします。
func ReadSymbolsCSV(r io.Reader) ([]entity.Symbol, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var out []entity.Symbol
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read symbols csv: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")), "code") {
			continue
		}
		out = append(out, entity.Symbol{
			Code:    strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")),
			Name:    strings.TrimSpace(rec[1]),
			Market:  strings.TrimSpace(rec[2]),
			SortKey: len(out),
		})
	}
	return out, nil
}
