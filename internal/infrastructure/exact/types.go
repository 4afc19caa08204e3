package exact

import "encoding/json"

// Division is one administration the connected user may invoice in.
type Division struct {
	Code        string
	Description string
}

// VatCode is one VAT code available in the selected division.
type VatCode struct {
	Code        string
	Description string
}

// Exact Online wraps every REST response in an OData envelope: single entities
// under "d", collections under "d.results".

type odataSingle[T any] struct {
	D T `json:"d"`
}

type odataList[T any] struct {
	D struct {
		Results []T `json:"results"`
	} `json:"d"`
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    json.Number `json:"expires_in"`
}

type divisionRecord struct {
	Code        json.Number `json:"Code"`
	Description string      `json:"Description"`
}

type vatCodeRecord struct {
	Code        string `json:"Code"`
	Description string `json:"Description"`
}

type itemRecord struct {
	ID   string `json:"ID"`
	Code string `json:"Code"`
}

type itemCreatePayload struct {
	Code        string `json:"Code"`
	Description string `json:"Description"`
	IsSalesItem bool   `json:"IsSalesItem"`
}

type salesInvoiceLinePayload struct {
	Item        string  `json:"Item"`
	Description string  `json:"Description"`
	Quantity    float64 `json:"Quantity"`
	UnitPrice   float64 `json:"UnitPrice"`
	VATCode     string  `json:"VATCode"`
}

type salesInvoicePayload struct {
	OrderedBy         string                    `json:"OrderedBy"`
	Description       string                    `json:"Description"`
	SalesInvoiceLines []salesInvoiceLinePayload `json:"SalesInvoiceLines"`
}

type salesInvoiceRecord struct {
	InvoiceID     string      `json:"InvoiceID"`
	InvoiceNumber json.Number `json:"InvoiceNumber"`
}

type printedInvoicePayload struct {
	InvoiceID           string `json:"InvoiceID"`
	SendEmailToCustomer bool   `json:"SendEmailToCustomer"`
}

type receivableRecord struct {
	InvoiceID     string      `json:"InvoiceId"`
	InvoiceNumber json.Number `json:"InvoiceNumber"`
	Amount        float64     `json:"Amount"`
	InvoiceDate   string      `json:"InvoiceDate"` // /Date(<epoch-ms>)/
}
