package models

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DeletionCapacity is the number of participants in a direct conversation.
const DeletionCapacity = 2

// DeletionSet holds the distinct accounts that deleted a message. It never
// grows past DeletionCapacity.
type DeletionSet struct {
	ids []string
}

func NewDeletionSet(ids ...string) DeletionSet {
	var s DeletionSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether the set changed.
func (s *DeletionSet) Add(id string) bool {
	if id == "" || s.Contains(id) || s.Full() {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

func (s DeletionSet) Contains(id string) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

func (s DeletionSet) Len() int { return len(s.ids) }

func (s DeletionSet) Full() bool { return len(s.ids) >= DeletionCapacity }

// IDs returns a copy of the members in insertion order.
func (s DeletionSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s DeletionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *DeletionSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewDeletionSet(ids...)
	return nil
}

// MarshalBSONValue stores the set as a plain array so that server-side
// pipeline updates can operate on it.
func (s DeletionSet) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.IDs())
}

func (s *DeletionSet) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*s = DeletionSet{}
		return nil
	}
	var ids []string
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&ids); err != nil {
		return err
	}
	*s = NewDeletionSet(ids...)
	return nil
}
