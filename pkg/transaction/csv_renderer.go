package transaction

import (
	"bytes"
	"encoding/csv"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// LedgerRenderer renders a list of transactions into an export format.
type LedgerRenderer interface {
	RenderLedger(transactions []Transaction) (string, error)
}

type CsvLedgerRendererImpl struct {
}

func NewCsvLedgerRenderer() *CsvLedgerRendererImpl {
	return &CsvLedgerRendererImpl{}
}

func (t *CsvLedgerRendererImpl) RenderLedger(transactions []Transaction) (string, error) {
	data := make([][]string, 0, len(transactions)+2)
	data = append(data, []string{"Reference", "Date", "CSS", "Type", "Amount", "Description"})

	total := decimal.Zero
	for _, tx := range transactions {
		data = append(data, []string{
			tx.Reference,
			tx.Date.Format("02/01/2006"),
			tx.CSSCode,
			string(tx.Type),
			tx.Amount.StringFixed(2),
			tx.Description,
		})
		total = total.Add(tx.Amount)
	}
	data = append(data, []string{"Total", "", "", "", total.StringFixed(2), ""})

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}
