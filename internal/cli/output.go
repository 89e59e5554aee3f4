package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/Lelo88/inventory-api-golang/internal/items"
)

// record es el item tal como lo muestra el CLI.
type record struct {
	ID             int64   `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	Price          float64 `json:"price" yaml:"price"`
	Quantity       int     `json:"quantity" yaml:"quantity"`
	FormattedPrice string  `json:"formatted_price" yaml:"formatted_price"`
}

func newRecord(item items.Item) record {
	return record{
		ID:             item.ID,
		Name:           item.Name,
		Price:          item.Price,
		Quantity:       item.Quantity,
		FormattedPrice: item.FormattedPrice(),
	}
}

func newRecords(list []items.Item) []record {
	out := make([]record, 0, len(list))
	for _, item := range list {
		out = append(out, newRecord(item))
	}
	return out
}

// render escribe value en el formato pedido. "table" solo acepta []record.
func render(w io.Writer, format string, value any) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	case "table", "":
		records, ok := value.([]record)
		if !ok {
			return fmt.Errorf("table output needs a list of items")
		}
		table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(table, "ID\tNAME\tPRICE\tQUANTITY")
		for _, r := range records {
			fmt.Fprintf(table, "%d\t%s\t%s\t%d\n", r.ID, r.Name, r.FormattedPrice, r.Quantity)
		}
		return table.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
