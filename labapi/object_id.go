package labapi

import (
	"bytes"

	"github.com/goccy/go-json"
)

// ObjectId is a primary key. The API sends document ids as strings, but numeric ids are accepted
// too. It's always sent back as a string.
type ObjectId string

func (id ObjectId) String() string {
	return string(id)
}

func (id *ObjectId) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ObjectId(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ObjectId(n.String())
	return nil
}
