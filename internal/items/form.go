package items

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ValidateInput indica si el borrador puede guardarse.
// Solo exige presencia: nombre, precio y cantidad no vacíos después de trim.
// No parsea números; "abc" es un precio válido a esta altura.
func ValidateInput(details Details) bool {
	return strings.TrimSpace(details.Name) != "" &&
		strings.TrimSpace(details.Price) != "" &&
		strings.TrimSpace(details.Quantity) != ""
}

// ToItem convierte el borrador en un Item. Nunca falla:
// un precio no parseable queda en 0.0 y una cantidad no parseable queda en 0.
func (details Details) ToItem() Item {
	return Item{
		ID:       details.ID,
		Name:     details.Name,
		Price:    parsePrice(details.Price),
		Quantity: parseQuantity(details.Quantity),
	}
}

// ToDetails convierte un Item en borrador para el flujo de edición.
func (item Item) ToDetails() Details {
	return Details{
		ID:       item.ID,
		Name:     item.Name,
		Price:    formatPrice(item.Price),
		Quantity: strconv.Itoa(item.Quantity),
	}
}

// ToUIState envuelve ToDetails con el flag de validez indicado.
func (item Item) ToUIState(isEntryValid bool) UIState {
	return UIState{Details: item.ToDetails(), IsEntryValid: isEntryValid}
}

// FormattedPrice devuelve el precio como moneda, ej: "$1,234.50".
func (item Item) FormattedPrice() string {
	printer := message.NewPrinter(language.AmericanEnglish)
	if item.Price < 0 {
		return printer.Sprintf("-$%.2f", -item.Price)
	}
	return printer.Sprintf("$%.2f", item.Price)
}

// parsePrice acepta espacios alrededor y un sufijo de tipo opcional ("10f", "2.5D").
func parsePrice(value string) float64 {
	text := strings.TrimSpace(value)
	if n := len(text); n > 1 && strings.ContainsRune("fFdD", rune(text[n-1])) {
		text = text[:n-1]
	}
	price, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0.0
	}
	return price
}

// Cantidad en 32 bits: fuera de rango cae a 0 igual que un valor no numérico.
// Sin trim: " 8 " no es un entero.
func parseQuantity(value string) int {
	quantity, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0
	}
	return int(quantity)
}

// formatPrice usa la forma decimal canónica, siempre con parte fraccionaria: 10 -> "10.0".
func formatPrice(price float64) string {
	text := strconv.FormatFloat(price, 'f', -1, 64)
	if !strings.ContainsAny(text, ".") {
		text += ".0"
	}
	return text
}
