// Package model holds the wire types of the contacts HTTP API for use by clients.
package model

// Contact is the data structure for a person that we know.
// All fields with the exception of the Id field are optional.
type Contact struct {
	Id      string   `json:"id"`
	Name    *string  `json:"name,omitempty"`
	Surname *string  `json:"surname,omitempty"`
	Age     *float64 `json:"age,omitempty"`
	Role    *string  `json:"role,omitempty"`
}

// Envelope wraps every JSON response of the service. Data holds a single
// Contact or a list of them, depending on the endpoint.
type Envelope struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
