package items

// Item representa un registro persistido del inventario.
// El ID lo asigna el store al insertar; 0 significa "todavía no persistido".
type Item struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Details es el borrador del formulario de un item.
// Los campos reflejan lo que tipeó el usuario, tal cual, incluso vacío o no numérico.
type Details struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// UIState es el par (borrador, validez) que se expone a la capa de presentación.
type UIState struct {
	Details      Details `json:"item_details"`
	IsEntryValid bool    `json:"is_entry_valid"`
}

// itemView agrega el precio formateado a la representación JSON del item.
type itemView struct {
	Item
	FormattedPrice string `json:"formatted_price"`
}

func newItemView(item Item) itemView {
	return itemView{Item: item, FormattedPrice: item.FormattedPrice()}
}
