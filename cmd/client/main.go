package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"gitlab.com/dirk.krummacker/contacts-microservice/pkg/model"
)

// contactEnvelope is the response to a POST request.
type contactEnvelope struct {
	OK   bool          `json:"ok"`
	Data model.Contact `json:"data"`
}

// Usage example on the command line:
// > go run main.go -url=http://localhost:8088
func main() {
	baseURL := flag.String("url", "http://localhost:8088", "the base URL of the contacts service")
	flag.Parse()

	fmt.Println()
	fmt.Println("  Elements      POST       PUT       GET    SEARCH    DELETE ")
	fmt.Println("-------------------------------------------------------------")
	sizes := []int{1000, 5000, 10000, 50000, 100000}
	jsonBody := []byte(`{
		"name": "Marcus",
		"surname": "Antonius",
		"age": 53,
		"role": "triumvir"
	}`)
	for _, loops := range sizes {
		fmt.Printf("%10d", loops)
		var ids []string
		{
			// POST requests
			var duration int64
			for i := 0; i < loops; i++ {
				id, d := sendPostRequest(*baseURL, bytes.NewReader(jsonBody))
				ids = append(ids, id)
				duration += d
			}
			fmt.Printf("%10d", duration/int64(loops*1000))
		}
		{
			// PUT requests
			f := func(id string) int64 {
				return sendRequestForID(*baseURL+"/contacts/edit/"+id, http.MethodPut, bytes.NewReader([]byte(`{"age": 54}`)))
			}
			callInLoop(ids, f)
		}
		{
			// GET requests
			f := func(id string) int64 {
				return sendRequestForID(*baseURL+"/contacts/lookup/"+id, http.MethodGet, nil)
			}
			callInLoop(ids, f)
		}
		{
			// Search requests, one per hundred contacts
			searches := loops / 100
			var duration int64
			for i := 0; i < searches; i++ {
				_, d := sendRequest(http.MethodGet, *baseURL+"/contacts/search?name=marc&age=54", nil)
				duration += d
			}
			fmt.Printf("%10d", duration/int64(searches*1000))
		}
		{
			// DELETE requests
			f := func(id string) int64 {
				return sendRequestForID(*baseURL+"/contacts/remove/"+id, http.MethodDelete, nil)
			}
			callInLoop(ids, f)
		}
		fmt.Println()
	}
}

// callInLoop calls f for every id in random order and prints the mean duration in microseconds.
func callInLoop(ids []string, f func(id string) int64) {
	shuffled := make([]string, len(ids))
	copy(shuffled, ids)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration int64
	for _, id := range shuffled {
		d := f(id)
		duration += d
	}
	fmt.Printf("%10d", duration/int64(len(ids)*1000))
}

func sendPostRequest(baseURL string, bodyReader io.Reader) (string, int64) {
	resBody, duration := sendRequest(http.MethodPost, baseURL+"/contacts", bodyReader)
	var envelope contactEnvelope
	err := json.Unmarshal(resBody, &envelope)
	if err != nil || !envelope.OK {
		fmt.Println("could not create contact", err, string(resBody))
		panic(fmt.Sprintf("unexpected response: %s", resBody))
	}
	return envelope.Data.Id, duration
}

func sendRequestForID(requestURL string, method string, bodyReader io.Reader) int64 {
	_, duration := sendRequest(method, requestURL, bodyReader)
	return duration
}

func sendRequest(method string, requestURL string, bodyReader io.Reader) ([]byte, int64) {
	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	before := time.Now().UnixNano()
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		panic(err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		panic(err)
	}
	after := time.Now().UnixNano()
	return resBody, after - before
}
