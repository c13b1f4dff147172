package domain

import "encoding/json"

// RichText envuelve el valor de texto de un mensaje. El core solo lo
// extrae via String(); no inspecciona su estructura interna.
type RichText struct {
	raw string
}

// NewRichText construye un RichText a partir de texto plano.
func NewRichText(s string) RichText {
	return RichText{raw: s}
}

func (t RichText) String() string {
	return t.raw
}

// IsEmpty indica si el valor no tiene contenido.
func (t RichText) IsEmpty() bool {
	return t.raw == ""
}

func (t RichText) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.raw)
}

func (t *RichText) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.raw)
}
