package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pable/go-poker-stats/internal/model"
)

// CSVHeader is the fixed column order of the delimited export.
var CSVHeader = []string{
	"name", "id", "hands", "vpip", "pfr", "three_bet", "fold_to_3bet", "four_bet",
	"fold_to_4bet", "c_bet", "fold_to_cbet", "wtsd", "wtsd_won", "wwsf", "wwsr", "af",
}

// WriteCSV writes the summary as comma-separated text: the header, then one
// line per row. Name and id are always quoted; encoding/csv only quotes when
// it must, which would make the column types depend on the data.
func WriteCSV(w io.Writer, rows []model.SummaryRow) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(CSVHeader, ",") + "\n")
	for _, r := range rows {
		fields := []string{
			quote(r.Name),
			quote(string(r.ID)),
			strconv.Itoa(r.Hands),
			num(r.VPIP, 1),
			num(r.PFR, 1),
			num(r.ThreeBet, 1),
			num(r.FoldToThreeBet, 1),
			num(r.FourBet, 1),
			num(r.FoldToFourBet, 1),
			num(r.CBet, 1),
			num(r.FoldToCBet, 1),
			num(r.WTSD, 1),
			num(r.WSD, 1),
			num(r.WWSF, 1),
			num(r.WWSR, 1),
			num(r.AF, 2),
		}
		bw.WriteString(strings.Join(fields, ",") + "\n")
	}
	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func num(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}
