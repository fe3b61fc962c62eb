package service

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/dirk.krummacker/contacts-microservice/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/model"
	wire "gitlab.com/dirk.krummacker/contacts-microservice/pkg/model"
)

// identity is the body of the liveness endpoint.
const identity = "Contacts microservice / v0.1"

// notFoundMessage is the plain text body of every 404 response.
const notFoundMessage = "contact not found"

// handler binds HTTP requests to the contact service.
type handler struct {
	contacts *ContactService
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
// With requestLogging off, gin's access log is left out.
func SetupHttpRouter(contacts *ContactService, m *metrics.Metrics, requestLogging bool) *gin.Engine {
	var router *gin.Engine
	if requestLogging {
		router = gin.Default()
	} else {
		router = gin.New()
		router.Use(gin.Recovery())
	}
	router.Use(allowCrossOrigin(), observeRequests(m))

	h := &handler{contacts: contacts}
	router.GET("/", identify)
	router.GET("/contacts", h.findContacts)
	router.GET("/contacts/lookup/:id", h.findContactByID)
	router.GET("/contacts/search", h.searchContacts)
	router.POST("/contacts", h.createContact)
	router.PUT("/contacts/edit/:id", h.updateContactByID)
	router.DELETE("/contacts/remove/:id", h.deleteContactByID)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	return router
}

// allowCrossOrigin lets browsers on any origin call the API. Preflight
// requests are answered directly.
func allowCrossOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
		header.Set("Access-Control-Allow-Headers", "Content-Type")
		header.Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// observeRequests records count and latency of every request by route.
func observeRequests(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// respondError maps a failed operation to its HTTP response.
func respondError(c *gin.Context, err error) {
	if KindOf(err) == KindNotFound {
		c.String(http.StatusNotFound, notFoundMessage)
		return
	}
	body := wire.Envelope{OK: false, Error: err.Error()}
	if e, ok := err.(*Error); ok {
		body.Message = e.Message
		body.Error = e.Err.Error()
	}
	c.IndentedJSON(http.StatusBadRequest, body)
}

// bindContactInput decodes the JSON body of a create or update request. An
// empty body counts as an empty object.
func bindContactInput(c *gin.Context) (model.ContactInput, error) {
	var input model.ContactInput
	if c.Request.Body == nil {
		return input, nil
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		if errors.Is(err, io.EOF) {
			return model.ContactInput{}, nil
		}
		return model.ContactInput{}, err
	}
	return input, nil
}

// identify responds with the name and version of the service.
//
// Example REST API call:
//
//	> curl http://localhost:8088/
func identify(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, identity)
}

// findContacts responds with the list of all contacts.
//
// Example REST API call:
//
//	> curl http://localhost:8088/contacts
func (h *handler) findContacts(c *gin.Context) {
	contacts, err := h.contacts.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, wire.Envelope{OK: true, Data: contacts})
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8088/contacts/lookup/7d0c3f4e-2a55-4a8e-9a4c-2f1f1b1c0d11
func (h *handler) findContactByID(c *gin.Context) {
	contact, err := h.contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, wire.Envelope{OK: true, Data: contact})
}

// searchQuery holds the URL parameters of a search. Age stays a string so
// that an empty parameter can be told apart from zero.
type searchQuery struct {
	Name    string `form:"name"`
	Surname string `form:"surname"`
	Role    string `form:"role"`
	Age     string `form:"age"`
}

// searchContacts responds with the contacts matching the URL parameters.
//
// The URL parameters 'name' and 'surname' match anywhere in the first name or last name of the
// contact, regardless of case. The URL parameters 'role' and 'age' must match exactly. Empty
// parameters are ignored, so a search without any parameter returns all contacts.
//
// REST API calls:
//
//	> curl "http://localhost:8088/contacts/search?name=mar"
//	> curl "http://localhost:8088/contacts/search?surname=RUI&role=dev"
//	> curl "http://localhost:8088/contacts/search?age=30"
func (h *handler) searchContacts(c *gin.Context) {
	var query searchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, invalidInput(msgSearch, err))
		return
	}
	filter := model.SearchFilter{
		Name:    query.Name,
		Surname: query.Surname,
		Role:    query.Role,
	}
	if query.Age != "" {
		age, err := strconv.ParseFloat(query.Age, 64)
		if err != nil {
			respondError(c, invalidInput(msgSearch, err))
			return
		}
		filter.Age = &age
	}
	contacts, err := h.contacts.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, wire.Envelope{OK: true, Data: contacts})
}

// createContact inserts the contact specified in the request's JSON. It responds with the full
// contact data including the newly generated id.
//
// Example REST API call:
//
//	> curl http://localhost:8088/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"name": "Ana", "surname": "Ruiz", "age": 28, "role": "dev"}'
func (h *handler) createContact(c *gin.Context) {
	input, err := bindContactInput(c)
	if err != nil {
		respondError(c, invalidInput(msgCreate, err))
		return
	}
	contact, err := h.contacts.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, wire.Envelope{OK: true, Data: contact})
}

// updateContactByID updates the contact whose ID value matches the id parameter of the request
// URL with the values specified in the JSON (and only those), and finally responds with the new
// version of the contact.
//
// Example REST API call:
//
//	> curl http://localhost:8088/contacts/edit/7d0c3f4e-2a55-4a8e-9a4c-2f1f1b1c0d11 --request "PUT" --include --header "Content-Type: application/json" --data '{"age": 29}'
func (h *handler) updateContactByID(c *gin.Context) {
	input, err := bindContactInput(c)
	if err != nil {
		respondError(c, invalidInput(msgUpdate, err))
		return
	}
	contact, err := h.contacts.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, wire.Envelope{OK: true, Data: contact})
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of the request
// URL.
//
// Example REST API call:
//
//	> curl http://localhost:8088/contacts/remove/7d0c3f4e-2a55-4a8e-9a4c-2f1f1b1c0d11 --request "DELETE"
func (h *handler) deleteContactByID(c *gin.Context) {
	if err := h.contacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, wire.Envelope{OK: true, Message: "contact deleted"})
}
