// Package forms validates submitted forms before anything is sent to the API. A form with errors
// never produces a request.
package forms

import (
	"fmt"
	"strings"

	om "github.com/wk8/go-ordered-map/v2"
)

// Errors maps field names to the first problem found, in the order the fields were checked
type Errors struct {
	fields *om.OrderedMap[string, string]
}

func NewErrors() Errors {
	return Errors{fields: om.New[string, string]()}
}

// Add keeps the first message per field
func (e Errors) Add(field, message string) {
	if _, ok := e.fields.Get(field); ok {
		return
	}
	e.fields.Set(field, message)
}

func (e Errors) Get(field string) string {
	if e.fields == nil {
		return ""
	}
	message, _ := e.fields.Get(field)
	return message
}

func (e Errors) Has(field string) bool {
	return e.Get(field) != ""
}

func (e Errors) Any() bool {
	return e.fields != nil && e.fields.Len() > 0
}

func (e Errors) Fields() []string {
	var result []string
	if e.fields == nil {
		return result
	}
	for pair := e.fields.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Key)
	}
	return result
}

func (e Errors) First() string {
	if e.fields == nil {
		return ""
	}
	if pair := e.fields.Oldest(); pair != nil {
		return pair.Value
	}
	return ""
}

func (e Errors) Messages() []string {
	var result []string
	if e.fields == nil {
		return result
	}
	for pair := e.fields.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

func (e Errors) String() string {
	if e.fields == nil {
		return ""
	}
	var parts []string
	for pair := e.fields.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, fmt.Sprintf("%s: %s", pair.Key, pair.Value))
	}
	return strings.Join(parts, "; ")
}

// Merge adds other's messages after the ones already present
func (e Errors) Merge(other Errors) {
	if other.fields == nil {
		return
	}
	for pair := other.fields.Oldest(); pair != nil; pair = pair.Next() {
		e.Add(pair.Key, pair.Value)
	}
}
